package report

import "errors"

// ErrNotConfigured means no text generation backend is available, e.g. a
// missing API key. Callers surface it as a report failure, not a crash.
var ErrNotConfigured = errors.New("report generation not configured")
