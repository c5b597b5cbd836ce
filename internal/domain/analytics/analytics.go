// Package analytics turns a set of matches into tactical summaries: score
// totals plus per-side breakdowns of goals by play type, minute band and pitch
// zone. Everything here is pure and safe for concurrent use.
package analytics

import "github.com/okian/pitchlog/internal/domain/model"

// ScoreTotals aggregates the final scores of the summarized matches.
type ScoreTotals struct {
	GoalsFor       int     `json:"goals_for"`
	GoalsAgainst   int     `json:"goals_against"`
	GoalDifference int     `json:"goal_difference"`
	AvgFor         float64 `json:"avg_for"`
	AvgAgainst     float64 `json:"avg_against"`
}

// EventsCount holds the number of annotated goals per side.
type EventsCount struct {
	For     int `json:"for"`
	Against int `json:"against"`
}

// RawCounts mirrors the percentage tables with plain frequencies.
type RawCounts struct {
	AgainstPlayType   map[string]int `json:"against_play_type"`
	ForPlayType       map[string]int `json:"for_play_type"`
	AgainstMinuteBand map[string]int `json:"against_minute_band"`
	ForMinuteBand     map[string]int `json:"for_minute_band"`
	AgainstZone       map[string]int `json:"against_zone"`
	ForZone           map[string]int `json:"for_zone"`
}

// Summary is the aggregate over a set of matches. Field names and nesting are
// consumed by reports and API clients and must stay stable.
type Summary struct {
	MatchesCount               int                `json:"matches_count"`
	ScoreTotals                ScoreTotals        `json:"score_totals"`
	EventsCount                EventsCount        `json:"events_count"`
	PercentAgainstByPlayType   map[string]float64 `json:"percent_against_by_play_type"`
	PercentForByPlayType       map[string]float64 `json:"percent_for_by_play_type"`
	PercentAgainstByMinuteBand map[string]float64 `json:"percent_against_by_minute_band"`
	PercentForByMinuteBand     map[string]float64 `json:"percent_for_by_minute_band"`
	PercentAgainstByZone       map[string]float64 `json:"percent_against_by_zone"`
	PercentForByZone           map[string]float64 `json:"percent_for_by_zone"`
	RawCounts                  RawCounts          `json:"raw_counts"`
}

// tally accumulates one side's goal events.
type tally struct {
	total      int
	playType   map[string]int
	minuteBand map[string]int
	zone       map[string]int
}

func newTally() *tally {
	return &tally{
		playType:   make(map[string]int),
		minuteBand: make(map[string]int),
		zone:       make(map[string]int),
	}
}

func (t *tally) add(e *model.GoalEvent) {
	t.total++
	t.playType[e.PlayType]++
	t.minuteBand[MinuteBand(e.Minute)]++
	t.zone[Zone(e.X, e.Y)]++
}

// Build aggregates matches into a new Summary. Order of matches is irrelevant.
// Events whose side is neither for nor against are left out of every event
// table; they still count through their match's score.
func Build(matches []model.Match) Summary {
	var goalsFor, goalsAgainst int
	forSide, againstSide := newTally(), newTally()

	for i := range matches {
		m := &matches[i]
		goalsFor += m.GoalsFor
		goalsAgainst += m.GoalsAgainst

		for j := range m.GoalEvents {
			e := &m.GoalEvents[j]
			if !e.Side.Valid() {
				continue
			}
			if e.Side == model.SideFor {
				forSide.add(e)
			} else {
				againstSide.add(e)
			}
		}
	}

	n := len(matches)
	totals := ScoreTotals{
		GoalsFor:       goalsFor,
		GoalsAgainst:   goalsAgainst,
		GoalDifference: goalsFor - goalsAgainst,
	}
	if n > 0 {
		totals.AvgFor = round(float64(goalsFor)/float64(n), 2)
		totals.AvgAgainst = round(float64(goalsAgainst)/float64(n), 2)
	}

	return Summary{
		MatchesCount: n,
		ScoreTotals:  totals,
		EventsCount: EventsCount{
			For:     forSide.total,
			Against: againstSide.total,
		},
		PercentAgainstByPlayType:   Percentages(againstSide.playType, againstSide.total),
		PercentForByPlayType:       Percentages(forSide.playType, forSide.total),
		PercentAgainstByMinuteBand: Percentages(againstSide.minuteBand, againstSide.total),
		PercentForByMinuteBand:     Percentages(forSide.minuteBand, forSide.total),
		PercentAgainstByZone:       Percentages(againstSide.zone, againstSide.total),
		PercentForByZone:           Percentages(forSide.zone, forSide.total),
		RawCounts: RawCounts{
			AgainstPlayType:   againstSide.playType,
			ForPlayType:       forSide.playType,
			AgainstMinuteBand: againstSide.minuteBand,
			ForMinuteBand:     forSide.minuteBand,
			AgainstZone:       againstSide.zone,
			ForZone:           forSide.zone,
		},
	}
}
