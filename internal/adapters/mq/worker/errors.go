package worker

import "errors"

var (
	// ErrShutdownTimeout is returned when workers do not drain before the deadline.
	ErrShutdownTimeout = errors.New("worker pool shutdown timed out")
	// ErrAbandoned is the failure recorded for jobs still queued at shutdown.
	ErrAbandoned = errors.New("report abandoned: shutdown")
)
