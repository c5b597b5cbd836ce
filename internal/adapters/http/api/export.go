package api

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/okian/pitchlog/pkg/logger"
)

var exportHeader = []string{"date", "opponent", "goals_for", "goals_against", "events_for", "events_against", "notes"}

// handleExportMatches handles GET /matches/export.csv, newest match first.
func (s *Server) handleExportMatches(w http.ResponseWriter, r *http.Request) {
	const op = "api.export_matches"
	ctx := r.Context()

	matches, err := s.deps.ListMatches(ctx, 0)
	if err != nil {
		s.writeFailure(ctx, w, Wrap(op, err))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=matches.csv")
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write(exportHeader)
	for i := range matches {
		m := &matches[i]
		forCount, againstCount := m.EventCounts()
		_ = cw.Write([]string{
			m.Date,
			m.Opponent,
			strconv.Itoa(m.GoalsFor),
			strconv.Itoa(m.GoalsAgainst),
			strconv.Itoa(forCount),
			strconv.Itoa(againstCount),
			m.Notes,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		s.logger.Warn(ctx, "csv export interrupted", logger.Error(Wrap(op, err)))
	}
}
