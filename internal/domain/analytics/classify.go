package analytics

// Minute bands. Upper bounds are inclusive; everything past 90 is extra time.
const (
	BandFirst    = "0-30"
	BandSecond   = "31-60"
	BandThird    = "61-90"
	BandOvertime = "91-120"
)

// Zone thresholds on the normalized 0-100 pitch. These literal cutoffs are
// part of the output contract; do not replace them with exact thirds.
const (
	lowerThird = 33.33
	upperThird = 66.66
)

// MinuteBand maps a match minute to its band. It accepts any int.
func MinuteBand(minute int) string {
	switch {
	case minute <= 30:
		return BandFirst
	case minute <= 60:
		return BandSecond
	case minute <= 90:
		return BandThird
	default:
		return BandOvertime
	}
}

// Zone maps pitch coordinates to "<horizontal>-<vertical>", where x picks
// left/center/right and y picks defensive/middle/offensive. Values outside
// 0-100 are still classified.
func Zone(x, y float64) string {
	return horizontal(y) + "-" + vertical(x)
}

func vertical(x float64) string {
	switch {
	case x < lowerThird:
		return "left"
	case x < upperThird:
		return "center"
	default:
		return "right"
	}
}

func horizontal(y float64) string {
	switch {
	case y < lowerThird:
		return "defensive"
	case y < upperThird:
		return "middle"
	default:
		return "offensive"
	}
}
