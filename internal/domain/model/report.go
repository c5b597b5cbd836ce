package model

import (
	"encoding/json"
	"time"
)

// ReportStatus tracks a report through asynchronous generation.
type ReportStatus string

const (
	ReportPending ReportStatus = "pending"
	ReportDone    ReportStatus = "done"
	ReportFailed  ReportStatus = "failed"
)

// Report is generated prose for an analytics summary over NumMatches matches.
type Report struct {
	ID          string          `json:"id"`
	NumMatches  int             `json:"num_matches"`
	Status      ReportStatus    `json:"status"`
	Content     string          `json:"content,omitempty"`
	Error       string          `json:"error,omitempty"`
	Summary     json.RawMessage `json:"summary,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// ReportJob is the unit of work passed from the API to report workers.
type ReportJob struct {
	ReportID string
	System   string // instructions for the text generator
	User     string // data prompt
}
