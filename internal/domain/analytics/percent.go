package analytics

import "strconv"

// Percentages converts category counts to shares of total, in percent with one
// decimal. A zero total yields an empty map rather than zero-valued entries.
func Percentages(counts map[string]int, total int) map[string]float64 {
	out := make(map[string]float64, len(counts))
	if total == 0 {
		return out
	}
	for k, v := range counts {
		out[k] = round(float64(v)/float64(total)*100, 1)
	}
	return out
}

// round rounds v to the given number of decimals. Exact ties on the binary
// value go to the even digit, so 0.125 becomes 0.12 and 6.25 becomes 6.2.
func round(v float64, places int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}
