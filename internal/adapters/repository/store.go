// Package repository persists matches and reports.
package repository

import (
	"context"

	"github.com/okian/pitchlog/internal/domain/model"
)

// MatchStore provides read/write access to recorded matches.
type MatchStore interface {
	// CreateMatch stores m. ID and CreatedAt must already be set.
	CreateMatch(ctx context.Context, m *model.Match) error

	// GetMatch returns ErrNotFound if id is unknown.
	GetMatch(ctx context.Context, id string) (model.Match, error)

	// DeleteMatch returns ErrNotFound if id is unknown.
	DeleteMatch(ctx context.Context, id string) error

	// ListMatches returns up to limit matches, newest first (date, then
	// creation time). limit <= 0 returns every match.
	ListMatches(ctx context.Context, limit int) ([]model.Match, error)

	CountMatches(ctx context.Context) (int, error)
}

// ReportStore provides read/write access to generated reports.
type ReportStore interface {
	CreateReport(ctx context.Context, r *model.Report) error

	// GetReport returns ErrNotFound if id is unknown.
	GetReport(ctx context.Context, id string) (model.Report, error)

	// ListReports returns up to limit reports, newest first. limit <= 0 returns all.
	ListReports(ctx context.Context, limit int) ([]model.Report, error)

	// FinishReport sets the final status, content or error message and the
	// completion time. Returns ErrNotFound if id is unknown.
	FinishReport(ctx context.Context, id string, status model.ReportStatus, content, errMsg string) error
}

// Store is the full persistence contract used by the service.
type Store interface {
	MatchStore
	ReportStore
	Close() error
}
