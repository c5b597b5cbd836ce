package api

import (
	"errors"
	"net/http"

	"github.com/okian/pitchlog/internal/domain/model"
)

type reportRequest struct {
	Last *int `json:"last"`
}

type reportAck struct {
	ID     string             `json:"id"`
	Status model.ReportStatus `json:"status"`
}

// handleCreateReport handles POST /reports. An empty body uses the default window.
func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_report"
	ctx := r.Context()

	var req reportRequest
	if err := decodeJSON(r, w, &req); err != nil && !errors.Is(err, errEmptyBody) {
		s.writeFailure(ctx, w, WrapKind(op, ErrBadRequest, err))
		return
	}
	last := s.defaultWindow
	if req.Last != nil {
		var err error
		if last, err = s.checkWindow(*req.Last); err != nil {
			s.writeFailure(ctx, w, WrapKind(op, ErrBadRequest, err))
			return
		}
	}

	rep, err := s.deps.RequestReport(ctx, last)
	if err != nil {
		s.writeFailure(ctx, w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, reportAck{ID: rep.ID, Status: rep.Status})
}

// handleListReports handles GET /reports?limit=N.
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_reports"
	limit, err := s.parseLimit(r)
	if err != nil {
		s.writeFailure(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	reports, err := s.deps.ListReports(r.Context(), limit)
	if err != nil {
		s.writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	if reports == nil {
		reports = []model.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

// handleGetReport handles GET /reports/{id}.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_report"
	rep, err := s.deps.GetReport(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
