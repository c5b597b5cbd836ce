// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers a YAML file and environment variables over those defaults.
// - Errors returned from this package wrap ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/okian/pitchlog/internal/domain/model"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the persistence backend: memory or postgres.
	Store string `koanf:"store"`

	// DatabaseURL is the PostgreSQL DSN, required when Store is postgres.
	DatabaseURL string `koanf:"database_url"`

	// QueueSize bounds the pending report jobs.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of report workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize caps the remembered idempotency keys.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxListLimit caps GET /matches?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// DefaultWindow is the number of matches summarized when none is requested.
	DefaultWindow int `koanf:"default_window"`

	// Windows lists the accepted "last N matches" values.
	Windows []int `koanf:"windows"`

	// PlayTypes and ABPSubtypes are the accepted goal classifications.
	PlayTypes   []string `koanf:"play_types"`
	ABPSubtypes []string `koanf:"abp_subtypes"`

	// Text generation.
	TextgenAPIKey      string  `koanf:"textgen_api_key"`
	TextgenBaseURL     string  `koanf:"textgen_base_url"`
	TextgenModel       string  `koanf:"textgen_model"`
	TextgenTemperature float64 `koanf:"textgen_temperature"`
	TextgenTimeoutMS   int     `koanf:"textgen_timeout_ms"`
	TextgenMaxRetries  int     `koanf:"textgen_max_retries"`

	// BreakerFailureThreshold consecutive failures open the text generation
	// circuit for BreakerOpenTimeoutMS.
	BreakerFailureThreshold int `koanf:"breaker_failure_threshold"`
	BreakerOpenTimeoutMS    int `koanf:"breaker_open_timeout_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		Store:                   StoreMemory,
		QueueSize:               1_000,
		WorkerCount:             runtime.NumCPU(),
		DedupeSize:              10_000,
		MaxListLimit:            100,
		DefaultWindow:           5,
		Windows:                 []int{3, 5, 10},
		PlayTypes:               model.DefaultPlayTypes(),
		ABPSubtypes:             model.DefaultABPSubtypes(),
		TextgenBaseURL:          "https://api.openai.com",
		TextgenModel:            "gpt-4o-mini",
		TextgenTemperature:      0.2,
		TextgenTimeoutMS:        30_000,
		TextgenMaxRetries:       2,
		BreakerFailureThreshold: 5,
		BreakerOpenTimeoutMS:    30_000,
	}
}

// Validate checks cross-field constraints. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(c.Addr) == "" {
		return invalid("addr must not be empty")
	}
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return invalid("database_url is required for store %q", c.Store)
		}
	default:
		return invalid("unknown store %q", c.Store)
	}
	if c.QueueSize <= 0 {
		return invalid("queue_size must be positive, got %d", c.QueueSize)
	}
	if c.WorkerCount <= 0 {
		return invalid("worker_count must be positive, got %d", c.WorkerCount)
	}
	if c.DedupeSize < 0 {
		return invalid("dedupe_size must not be negative, got %d", c.DedupeSize)
	}
	if c.MaxListLimit <= 0 {
		return invalid("max_list_limit must be positive, got %d", c.MaxListLimit)
	}
	if len(c.Windows) == 0 {
		return invalid("windows must not be empty")
	}
	for _, w := range c.Windows {
		if w <= 0 {
			return invalid("windows must be positive, got %d", w)
		}
	}
	if !slices.Contains(c.Windows, c.DefaultWindow) {
		return invalid("default_window %d is not one of windows %v", c.DefaultWindow, c.Windows)
	}
	if len(c.PlayTypes) == 0 {
		return invalid("play_types must not be empty")
	}
	if c.TextgenTemperature < 0 || c.TextgenTemperature > 2 {
		return invalid("textgen_temperature must be within [0,2], got %v", c.TextgenTemperature)
	}
	if c.TextgenTimeoutMS <= 0 {
		return invalid("textgen_timeout_ms must be positive, got %d", c.TextgenTimeoutMS)
	}
	if c.TextgenMaxRetries < 0 {
		return invalid("textgen_max_retries must not be negative, got %d", c.TextgenMaxRetries)
	}
	if c.BreakerFailureThreshold <= 0 {
		return invalid("breaker_failure_threshold must be positive, got %d", c.BreakerFailureThreshold)
	}
	if c.BreakerOpenTimeoutMS <= 0 {
		return invalid("breaker_open_timeout_ms must be positive, got %d", c.BreakerOpenTimeoutMS)
	}
	return nil
}
