package api

import (
	"errors"
	"fmt"

	reportqueue "github.com/okian/pitchlog/internal/adapters/mq/queue"
	repository "github.com/okian/pitchlog/internal/adapters/repository"
	service "github.com/okian/pitchlog/internal/app"
)

// Sentinel kinds for API errors. writeFailure maps each kind to a status.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrBackpressure = errors.New("backpressure")
	ErrUnavailable  = errors.New("service unavailable")

	errEmptyBody = errors.New("empty request body")
)

// opError carries the handler operation, an optional kind and the cause.
// errors.Is matches both the kind and anything in the cause chain.
type opError struct {
	op   string
	kind error
	err  error
}

func (e *opError) Error() string {
	switch {
	case e.kind != nil && e.err != nil:
		return fmt.Sprintf("%s: %v: %v", e.op, e.kind, e.err)
	case e.kind != nil:
		return fmt.Sprintf("%s: %v", e.op, e.kind)
	default:
		return fmt.Sprintf("%s: %v", e.op, e.err)
	}
}

func (e *opError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.kind != nil {
		errs = append(errs, e.kind)
	}
	if e.err != nil {
		errs = append(errs, e.err)
	}
	return errs
}

// Wrap annotates err with op and classifies downstream sentinels into kinds.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &opError{op: op, kind: kindOf(err), err: err}
}

// kindOf returns the API kind for errors raised below the handlers, or nil.
func kindOf(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, reportqueue.ErrFull):
		return ErrBackpressure
	case errors.Is(err, reportqueue.ErrClosed), errors.Is(err, service.ErrNotStarted):
		return ErrUnavailable
	default:
		return nil
	}
}

// WrapKind annotates err with op and classifies it as kind.
func WrapKind(op string, kind, err error) error {
	return &opError{op: op, kind: kind, err: err}
}
