package model

import (
	"sort"
	"time"
)

// DateLayout is the calendar date format used for match dates.
const DateLayout = "2006-01-02"

// Match is a played match with its score and annotated goals.
// The number of "for" events need not equal GoalsFor.
type Match struct {
	ID           string      `json:"id"`
	Date         string      `json:"date"`
	Opponent     string      `json:"opponent"`
	GoalsFor     int         `json:"goals_for"`
	GoalsAgainst int         `json:"goals_against"`
	Notes        string      `json:"notes,omitempty"`
	GoalEvents   []GoalEvent `json:"goal_events"`
	CreatedAt    time.Time   `json:"created_at"`
}

// EventCounts returns the number of annotated goals per known side.
func (m *Match) EventCounts() (forCount, againstCount int) {
	for i := range m.GoalEvents {
		switch m.GoalEvents[i].Side {
		case SideFor:
			forCount++
		case SideAgainst:
			againstCount++
		}
	}
	return forCount, againstCount
}

// SortNewestFirst orders matches by date desc, then creation time desc, then id.
func SortNewestFirst(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := &matches[i], &matches[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}
