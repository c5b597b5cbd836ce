package api

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
)

// parseWindow reads the "last N matches" value from raw. Empty means the
// default window; anything outside the configured windows is rejected.
func (s *Server) parseWindow(raw string) (int, error) {
	if raw == "" {
		return s.defaultWindow, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("last must be one of %v", s.windows)
	}
	return s.checkWindow(n)
}

func (s *Server) checkWindow(n int) (int, error) {
	if !slices.Contains(s.windows, n) {
		return 0, fmt.Errorf("last must be one of %v", s.windows)
	}
	return n, nil
}

// handleAnalytics handles GET /analytics?last=N.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	const op = "api.analytics"
	last, err := s.parseWindow(r.URL.Query().Get("last"))
	if err != nil {
		s.writeFailure(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	summary, err := s.deps.Analytics(r.Context(), last)
	if err != nil {
		s.writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
