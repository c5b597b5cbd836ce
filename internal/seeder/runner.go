// Package seeder fills a running pitchlog service with random matches and
// reports the resulting analytics.
package seeder

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/panics"

	"github.com/okian/pitchlog/internal/domain/analytics"
	"github.com/okian/pitchlog/pkg/logger"
)

// Run checks the service, submits cfg.Matches generated matches and fetches
// the analytics over the last cfg.Last of them.
func Run(ctx context.Context, cfg Config) (*Stats, analytics.Summary, error) {
	applyDefaults(&cfg)
	log := logger.Get().Named("seeder")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting seed run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("matches", cfg.Matches),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()),
		logger.Int("last", cfg.Last))

	client := NewClient(cfg.BaseURL, &http.Client{Timeout: cfg.Timeout})
	if err := client.Health(ctx); err != nil {
		return stats, analytics.Summary{}, fmt.Errorf("service health check failed: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	matches := NewGenerator(seed).Generate(cfg.Matches, time.Now().UTC())
	stats.Generated = len(matches)

	if err := submitMatches(ctx, cfg, client, matches, stats, log); err != nil {
		return stats, analytics.Summary{}, fmt.Errorf("match submission failed: %w", err)
	}

	summary, err := client.Analytics(ctx, cfg.Last)
	if err != nil {
		return stats, analytics.Summary{}, fmt.Errorf("analytics retrieval failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	log.Info(ctx, "seed run completed",
		logger.Int("generated", stats.Generated),
		logger.Int("created", stats.Created),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.String("duration", stats.Duration.String()))
	log.Info(ctx, "analytics summary",
		logger.Int("last", cfg.Last),
		logger.Int("matches", summary.MatchesCount),
		logger.Int("goalsFor", summary.ScoreTotals.GoalsFor),
		logger.Int("goalsAgainst", summary.ScoreTotals.GoalsAgainst),
		logger.Float64("avgFor", summary.ScoreTotals.AvgFor),
		logger.Float64("avgAgainst", summary.ScoreTotals.AvgAgainst),
		logger.Any("againstByPlayType", summary.PercentAgainstByPlayType),
		logger.Any("againstByZone", summary.PercentAgainstByZone))

	return stats, summary, nil
}

func applyDefaults(cfg *Config) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Matches <= 0 {
		cfg.Matches = DefaultMatches
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Last <= 0 {
		cfg.Last = DefaultLast
	}
}

// submitMatches posts every match through a bounded worker pool. Individual
// failures are counted, not returned; a panicking task is returned as an error
// once every task has finished.
func submitMatches(ctx context.Context, cfg Config, client *Client, matches []matchPayload, stats *Stats, log logger.Logger) error {
	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		counts  outcomeCounts
		wg      sync.WaitGroup
		catcher panics.Catcher
	)

	for i := range matches {
		if ctx.Err() != nil {
			break
		}
		m := matches[i]
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			catcher.Try(func() { submitOne(ctx, cfg, client, m, &counts, log) })
		}); err != nil {
			wg.Done()
			return fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	wg.Wait()

	stats.Created = int(counts.created.Load())
	stats.Duplicate = int(counts.duplicate.Load())
	stats.Failed = int(counts.failed.Load())
	stats.Submitted = stats.Created + stats.Duplicate + stats.Failed
	if r := catcher.Recovered(); r != nil {
		return fmt.Errorf("match submission task: %w", r.AsError())
	}
	return ctx.Err()
}

type outcomeCounts struct {
	created   atomic.Int64
	duplicate atomic.Int64
	failed    atomic.Int64
}

func submitOne(ctx context.Context, cfg Config, client *Client, m matchPayload, counts *outcomeCounts, log logger.Logger) {
	outcome, err := client.PostMatch(ctx, uuid.NewString(), m)
	switch outcome {
	case outcomeCreated:
		counts.created.Add(1)
	case outcomeDuplicate:
		counts.duplicate.Add(1)
	default:
		counts.failed.Add(1)
		log.Warn(ctx, "match submission failed", logger.String("date", m.Date), logger.Error(err))
		return
	}
	if cfg.Verbose {
		log.Info(ctx, "match submitted",
			logger.String("date", m.Date),
			logger.String("opponent", m.Opponent),
			logger.String("outcome", outcome))
	}
}
