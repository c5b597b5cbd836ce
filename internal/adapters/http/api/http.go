// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/okian/pitchlog/internal/domain/analytics"
	"github.com/okian/pitchlog/internal/domain/model"
	"github.com/okian/pitchlog/pkg/logger"
	"github.com/okian/pitchlog/pkg/metrics"
)

// maxBodyBytes bounds a match submission.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// RecordMatch stores m. A replayed idempotency key returns the first
	// match id with duplicate=true.
	RecordMatch(ctx context.Context, key string, m model.Match) (id string, duplicate bool, err error)
	GetMatch(ctx context.Context, id string) (model.Match, error)
	DeleteMatch(ctx context.Context, id string) error
	ListMatches(ctx context.Context, limit int) ([]model.Match, error)

	// Analytics summarizes the last matches, newest first.
	Analytics(ctx context.Context, last int) (analytics.Summary, error)

	// RequestReport queues generation of a report over the last matches.
	RequestReport(ctx context.Context, last int) (model.Report, error)
	GetReport(ctx context.Context, id string) (model.Report, error)
	ListReports(ctx context.Context, limit int) ([]model.Report, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps     Dependencies
	validate *validator.Validate
	logger   logger.Logger

	healthHandler *HealthHandler
	statsHandler  *StatsHandler

	maxListLimit  int
	windows       []int
	defaultWindow int
	playTypes     []string
	abpSubtypes   []string
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:          deps,
		validate:      validator.New(),
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		maxListLimit:  100,
		windows:       []int{3, 5, 10},
		defaultWindow: 5,
		playTypes:     model.DefaultPlayTypes(),
		abpSubtypes:   model.DefaultABPSubtypes(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	s.validate.RegisterTagNameFunc(jsonFieldName)
	s.validate.RegisterStructValidation(s.goalEventRules, goalEventRequest{})
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /matches", MetricsMiddleware(s.handleCreateMatch, "matches_create"))
	mux.HandleFunc("GET /matches", MetricsMiddleware(s.handleListMatches, "matches_list"))
	mux.HandleFunc("GET /matches/export.csv", MetricsMiddleware(s.handleExportMatches, "matches_export"))
	mux.HandleFunc("GET /matches/{id}", MetricsMiddleware(s.handleGetMatch, "matches_get"))
	mux.HandleFunc("DELETE /matches/{id}", MetricsMiddleware(s.handleDeleteMatch, "matches_delete"))

	mux.HandleFunc("GET /analytics", MetricsMiddleware(s.handleAnalytics, "analytics"))

	mux.HandleFunc("POST /reports", MetricsMiddleware(s.handleCreateReport, "reports_create"))
	mux.HandleFunc("GET /reports", MetricsMiddleware(s.handleListReports, "reports_list"))
	mux.HandleFunc("GET /reports/{id}", MetricsMiddleware(s.handleGetReport, "reports_get"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err onto a status and error code.
func (s *Server) writeFailure(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		s.logger.Error(ctx, "request failed", logger.Error(err))
		metrics.RecordErrorByComponent("api", "internal_error")
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// jsonFieldName reports fields by their JSON name in validation errors.
func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// strictJSON rejects fields the request types do not declare.
var strictJSON = sonic.Config{DisallowUnknownFields: true}.Froze()

// decodeJSON reads the request body into v. An empty body yields errEmptyBody.
func decodeJSON(r *http.Request, w http.ResponseWriter, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errEmptyBody
	}
	return strictJSON.Unmarshal(body, v)
}

// parseLimit reads ?limit=N. Missing means max; 1..max is accepted.
func (s *Server) parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return s.maxListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > s.maxListLimit {
		return 0, errors.New("limit must be between 1 and " + strconv.Itoa(s.maxListLimit))
	}
	return n, nil
}
