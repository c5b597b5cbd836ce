package api

import (
	"slices"

	"github.com/okian/pitchlog/pkg/logger"
)

// Option configures a Server.
type Option func(*Server)

// WithMaxListLimit caps the limit accepted by list endpoints.
func WithMaxListLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxListLimit = n
		}
	}
}

// WithWindows sets the accepted "last N matches" values and the default one.
// A default outside windows is ignored.
func WithWindows(windows []int, def int) Option {
	return func(s *Server) {
		if len(windows) == 0 {
			return
		}
		s.windows = slices.Clone(windows)
		if slices.Contains(s.windows, def) {
			s.defaultWindow = def
		} else if !slices.Contains(s.windows, s.defaultWindow) {
			s.defaultWindow = s.windows[0]
		}
	}
}

// WithPlayTypes sets the accepted goal play types.
func WithPlayTypes(types []string) Option {
	return func(s *Server) {
		if len(types) > 0 {
			s.playTypes = slices.Clone(types)
		}
	}
}

// WithABPSubtypes sets the accepted set-piece subtypes.
func WithABPSubtypes(subtypes []string) Option {
	return func(s *Server) {
		if len(subtypes) > 0 {
			s.abpSubtypes = slices.Clone(subtypes)
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
