// Package model contains domain models passed between layers.
package model

import "sort"

// Side tells whether a goal was scored by the tracked team or conceded.
type Side string

// Known sides. Other values may reach the model from unvalidated sources;
// aggregation ignores them.
const (
	SideFor     Side = "for"
	SideAgainst Side = "against"
)

// Valid reports whether s is one of the known sides.
func (s Side) Valid() bool {
	return s == SideFor || s == SideAgainst
}

// Play types with extra data requirements.
const (
	PlayTypeSetPiece   = "ABP"        // requires ABPSubtype
	PlayTypeTransition = "Transición" // requires an end point
)

// DefaultPlayTypes returns the stock goal classifications.
func DefaultPlayTypes() []string {
	return []string{PlayTypeSetPiece, PlayTypeTransition, "Ataque posicional", "Individual", "Error rival"}
}

// DefaultABPSubtypes returns the stock set-piece subtypes.
func DefaultABPSubtypes() []string {
	return []string{"Córner", "Falta directa", "Falta indirecta", "Penalti", "Saque de banda"}
}

// GoalEvent is one goal placed on a normalized 0-100 pitch.
type GoalEvent struct {
	Side       Side     `json:"side"`
	Minute     int      `json:"minute"`
	PlayType   string   `json:"play_type"`
	ABPSubtype string   `json:"abp_subtype,omitempty"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	XEnd       *float64 `json:"x_end,omitempty"`
	YEnd       *float64 `json:"y_end,omitempty"`
}

// SortEvents orders events by minute, keeping input order for equal minutes.
func SortEvents(events []GoalEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Minute < events[j].Minute
	})
}
