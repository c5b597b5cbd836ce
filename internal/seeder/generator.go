package seeder

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/okian/pitchlog/internal/domain/model"
)

// Generator produces random but plausible matches. It is not safe for
// concurrent use.
type Generator struct {
	rng         *rand.Rand
	playTypes   []string
	abpSubtypes []string
}

// NewGenerator returns a Generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		playTypes:   model.DefaultPlayTypes(),
		abpSubtypes: model.DefaultABPSubtypes(),
	}
}

// Generate returns n matches played weekly up to the week of until, oldest first.
func (g *Generator) Generate(n int, until time.Time) []matchPayload {
	matches := make([]matchPayload, n)
	for i := range matches {
		played := until.AddDate(0, 0, -daysBetween*(n-1-i))
		matches[i] = g.match(played)
	}
	return matches
}

func (g *Generator) match(played time.Time) matchPayload {
	m := matchPayload{
		Date:         played.Format(model.DateLayout),
		Opponent:     opponents[g.rng.IntN(len(opponents))],
		GoalsFor:     g.goals(),
		GoalsAgainst: g.goals(),
	}
	if g.rng.Float64() < notesChance {
		m.Notes = notes[g.rng.IntN(len(notes))]
	}

	m.GoalEvents = make([]eventPayload, 0, m.GoalsFor+m.GoalsAgainst)
	for range m.GoalsFor {
		m.GoalEvents = append(m.GoalEvents, g.event(model.SideFor))
	}
	for range m.GoalsAgainst {
		m.GoalEvents = append(m.GoalEvents, g.event(model.SideAgainst))
	}
	return m
}

// goals draws from a Poisson distribution capped at maxGoals (Knuth).
func (g *Generator) goals() int {
	limit := math.Exp(-goalsLambda)
	k, p := 0, 1.0
	for {
		p *= g.rng.Float64()
		if p <= limit || k == maxGoals {
			return k
		}
		k++
	}
}

func (g *Generator) event(side model.Side) eventPayload {
	e := eventPayload{
		Side:     string(side),
		Minute:   g.rng.IntN(maxMinute + 1),
		PlayType: g.playTypes[g.rng.IntN(len(g.playTypes))],
		X:        g.coord(),
		Y:        g.coord(),
	}
	switch e.PlayType {
	case model.PlayTypeSetPiece:
		e.ABPSubtype = g.abpSubtypes[g.rng.IntN(len(g.abpSubtypes))]
	case model.PlayTypeTransition:
		xEnd, yEnd := g.coord(), g.coord()
		e.XEnd, e.YEnd = &xEnd, &yEnd
	}
	return e
}

// coord returns a pitch coordinate rounded to one decimal.
func (g *Generator) coord() float64 {
	return math.Round(g.rng.Float64()*pitchMax*10) / 10
}
