package seeder

import "time"

// Defaults used when a Config field is left zero.
const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultMatches = 20
	DefaultLast    = 5
	DefaultTimeout = 10 * time.Second
)

// Generation ranges.
const (
	maxGoals       = 5
	goalsLambda    = 1.4
	maxMinute      = 95
	pitchMax       = 100.0
	notesChance    = 0.3
	daysBetween    = 7
)

// Submission outcomes.
const (
	outcomeCreated   = "created"
	outcomeDuplicate = "duplicate"
	outcomeFailed    = "failed"
)

var opponents = []string{
	"Rayo Norte", "Atlético Sur", "CD Ribera", "UD Montaña", "Real Vega",
	"SD Puerto", "CF Llanura", "Deportivo Sierra", "Unión Costa", "Racing Valle",
}

var notes = []string{
	"Lluvia intensa",
	"Rotaciones en defensa",
	"Partido de copa",
	"Presión alta los primeros 20 minutos",
	"Expulsión en la segunda parte",
}
