package api

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/okian/pitchlog/internal/domain/model"
	"github.com/okian/pitchlog/pkg/metrics"
)

const (
	idempotencyHeader = "Idempotency-Key"
	maxIdempotencyKey = 200
)

// matchRequest mirrors the OpenAPI schema for POST /matches.
type matchRequest struct {
	Date         string             `json:"date" validate:"required,datetime=2006-01-02"`
	Opponent     string             `json:"opponent" validate:"required,max=120"`
	GoalsFor     *int               `json:"goals_for" validate:"required,min=0"`
	GoalsAgainst *int               `json:"goals_against" validate:"required,min=0"`
	Notes        string             `json:"notes" validate:"max=500"`
	GoalEvents   []goalEventRequest `json:"goal_events" validate:"max=64,dive"`
}

type goalEventRequest struct {
	Side       string   `json:"side" validate:"required,oneof=for against"`
	Minute     *int     `json:"minute" validate:"required,min=0,max=120"`
	PlayType   string   `json:"play_type" validate:"required"`
	ABPSubtype string   `json:"abp_subtype"`
	X          *float64 `json:"x" validate:"required,min=0,max=100"`
	Y          *float64 `json:"y" validate:"required,min=0,max=100"`
	XEnd       *float64 `json:"x_end" validate:"omitempty,min=0,max=100"`
	YEnd       *float64 `json:"y_end" validate:"omitempty,min=0,max=100"`
}

type matchAck struct {
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

// goalEventRules checks the rules that depend on the configured play types.
func (s *Server) goalEventRules(sl validator.StructLevel) {
	e, ok := sl.Current().Interface().(goalEventRequest)
	if !ok {
		return
	}
	if e.PlayType != "" && !slices.Contains(s.playTypes, e.PlayType) {
		sl.ReportError(e.PlayType, "play_type", "PlayType", "play_type_known", "")
	}
	switch e.PlayType {
	case model.PlayTypeSetPiece:
		if !slices.Contains(s.abpSubtypes, e.ABPSubtype) {
			sl.ReportError(e.ABPSubtype, "abp_subtype", "ABPSubtype", "abp_subtype_known", "")
		}
	case model.PlayTypeTransition:
		if e.XEnd == nil || e.YEnd == nil {
			sl.ReportError(e.XEnd, "x_end", "XEnd", "end_point_required", "")
		}
	default:
		if e.ABPSubtype != "" {
			sl.ReportError(e.ABPSubtype, "abp_subtype", "ABPSubtype", "abp_only", "")
		}
	}
}

func (req *matchRequest) normalize() {
	req.Date = strings.TrimSpace(req.Date)
	req.Opponent = strings.TrimSpace(req.Opponent)
	req.Notes = strings.TrimSpace(req.Notes)
	for i := range req.GoalEvents {
		e := &req.GoalEvents[i]
		e.Side = strings.TrimSpace(e.Side)
		e.PlayType = strings.TrimSpace(e.PlayType)
		e.ABPSubtype = strings.TrimSpace(e.ABPSubtype)
	}
}

// toModel must only be called on a validated request.
func (req *matchRequest) toModel() model.Match {
	m := model.Match{
		Date:         req.Date,
		Opponent:     req.Opponent,
		GoalsFor:     *req.GoalsFor,
		GoalsAgainst: *req.GoalsAgainst,
		Notes:        req.Notes,
		GoalEvents:   make([]model.GoalEvent, 0, len(req.GoalEvents)),
	}
	for i := range req.GoalEvents {
		e := &req.GoalEvents[i]
		ev := model.GoalEvent{
			Side:       model.Side(e.Side),
			Minute:     *e.Minute,
			PlayType:   e.PlayType,
			ABPSubtype: e.ABPSubtype,
			X:          *e.X,
			Y:          *e.Y,
		}
		if e.PlayType == model.PlayTypeTransition {
			ev.XEnd, ev.YEnd = e.XEnd, e.YEnd
		}
		m.GoalEvents = append(m.GoalEvents, ev)
	}
	return m
}

// validationMessage flattens validator errors into "field: rule" pairs.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		parts = append(parts, field+": "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}

// handleCreateMatch handles POST /matches.
func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_match"
	ctx := r.Context()

	var req matchRequest
	if err := decodeJSON(r, w, &req); err != nil {
		metrics.RecordMatchRejected()
		s.writeFailure(ctx, w, WrapKind(op, ErrBadRequest, err))
		return
	}
	req.normalize()
	if err := s.validate.StructCtx(ctx, req); err != nil {
		metrics.RecordMatchRejected()
		s.writeFailure(ctx, w, WrapKind(op, ErrBadRequest, errors.New(validationMessage(err))))
		return
	}

	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if len(key) > maxIdempotencyKey {
		s.writeFailure(ctx, w, WrapKind(op, ErrBadRequest, errors.New("idempotency key too long")))
		return
	}

	id, duplicate, err := s.deps.RecordMatch(ctx, key, req.toModel())
	if err != nil {
		s.writeFailure(ctx, w, Wrap(op, err))
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, matchAck{ID: id, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusCreated, matchAck{ID: id})
}

// handleListMatches handles GET /matches?limit=N.
func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_matches"
	limit, err := s.parseLimit(r)
	if err != nil {
		s.writeFailure(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	matches, err := s.deps.ListMatches(r.Context(), limit)
	if err != nil {
		s.writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	if matches == nil {
		matches = []model.Match{}
	}
	writeJSON(w, http.StatusOK, matches)
}

// handleGetMatch handles GET /matches/{id}.
func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_match"
	m, err := s.deps.GetMatch(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleDeleteMatch handles DELETE /matches/{id}.
func (s *Server) handleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_match"
	if err := s.deps.DeleteMatch(r.Context(), r.PathValue("id")); err != nil {
		s.writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
