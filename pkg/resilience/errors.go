package resilience

import "errors"

// ErrCircuitOpen is returned by Allow while calls are being shed.
var ErrCircuitOpen = errors.New("circuit breaker is open")
