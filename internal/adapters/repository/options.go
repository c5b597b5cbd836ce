package repository

import "time"

// Option applies a configuration option to a MemoryStore.
type Option func(*MemoryStore)

// WithClock replaces time.Now for report completion times.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}
