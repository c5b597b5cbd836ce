// Package service wires the store, the analytics engine and the report
// pipeline together and implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	reportqueue "github.com/okian/pitchlog/internal/adapters/mq/queue"
	workerpool "github.com/okian/pitchlog/internal/adapters/mq/worker"
	repository "github.com/okian/pitchlog/internal/adapters/repository"
	"github.com/okian/pitchlog/internal/domain/analytics"
	"github.com/okian/pitchlog/internal/domain/dedupe"
	"github.com/okian/pitchlog/internal/domain/model"
	"github.com/okian/pitchlog/internal/domain/report"
	"github.com/okian/pitchlog/pkg/logger"
	"github.com/okian/pitchlog/pkg/metrics"
)

// abandonGrace bounds the wait for workers to record failures after cancel.
const abandonGrace = 5 * time.Second

// unconfiguredGenerator stands in when no text generation backend is wired.
type unconfiguredGenerator struct{}

func (unconfiguredGenerator) Generate(context.Context, string, string) (string, error) {
	return "", report.ErrNotConfigured
}

// Service implements the API dependencies for match logging and reports.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	generator  report.Generator
	deduper    dedupe.Deduper
	queue      reportqueue.Queue
	workerPool *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	jobTimeout  time.Duration
	now         func() time.Time

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a new Service with default configuration. Reads work before
// Start; report requests need the worker pool and fail with ErrNotStarted.
func New(opts ...Option) *Service {
	s := &Service{
		generator:   unconfiguredGenerator{},
		workerCount: runtime.NumCPU(),
		queueSize:   1_000,
		dedupeSize:  10_000,
		jobTimeout:  2 * time.Minute,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	return s
}

// Start creates the report queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting pitchlog service...")

	// Workers outlive the start-up context; Stop ends them.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.queue = reportqueue.NewInMemoryQueue(reportqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s.generator, s.store,
		workerpool.WithJobTimeout(s.jobTimeout),
	)
	s.workerPool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "pitchlog service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop drains pending report jobs, bounded by ctx, then closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping pitchlog service...")

	var errs []error
	if err := s.workerPool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	// Cancelling fails in-flight and still-queued reports; wait for those
	// writes before the store goes away.
	s.cancel()
	select {
	case <-s.workerPool.Done():
	case <-time.After(abandonGrace):
		s.logger.Warn(ctx, "workers did not stop after cancel")
	}

	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	s.started = false
	s.logger.Info(ctx, "pitchlog service stopped")

	return errors.Join(errs...)
}

// RecordMatch stores m. A non-empty idempotency key that was seen before
// returns the first match id with duplicate=true and stores nothing.
func (s *Service) RecordMatch(ctx context.Context, key string, m model.Match) (id string, duplicate bool, err error) {
	if key != "" {
		if prev, seen := s.deduper.Reserve(ctx, key); seen {
			metrics.RecordMatchDuplicate()
			s.logger.Debug(ctx, "duplicate match submission", logger.String("key", key))
			return prev, true, nil
		}
	}

	m.ID = uuid.NewString()
	m.CreatedAt = s.now().UTC()
	m.GoalEvents = append([]model.GoalEvent(nil), m.GoalEvents...)
	model.SortEvents(m.GoalEvents)

	if err := s.store.CreateMatch(ctx, &m); err != nil {
		if key != "" {
			s.deduper.Unrecord(ctx, key)
		}
		metrics.RecordErrorByComponent("service", "store_error")
		return "", false, fmt.Errorf("record match: %w", err)
	}
	if key != "" {
		s.deduper.Bind(ctx, key, m.ID)
	}

	metrics.RecordMatchRecorded()
	for i := range m.GoalEvents {
		metrics.RecordGoalEvent(string(m.GoalEvents[i].Side))
	}
	s.logger.Debug(ctx, "match recorded",
		logger.String("id", m.ID),
		logger.String("opponent", m.Opponent),
		logger.Int("events", len(m.GoalEvents)),
	)

	return m.ID, false, nil
}

func (s *Service) GetMatch(ctx context.Context, id string) (model.Match, error) {
	return s.store.GetMatch(ctx, id)
}

func (s *Service) DeleteMatch(ctx context.Context, id string) error {
	if err := s.store.DeleteMatch(ctx, id); err != nil {
		return err
	}
	metrics.RecordMatchDeleted()
	return nil
}

// ListMatches returns up to limit matches, newest first. limit <= 0 returns all.
func (s *Service) ListMatches(ctx context.Context, limit int) ([]model.Match, error) {
	return s.store.ListMatches(ctx, limit)
}

// Analytics summarizes the last matches recorded, newest first.
func (s *Service) Analytics(ctx context.Context, last int) (analytics.Summary, error) {
	if last < 1 {
		return analytics.Summary{}, fmt.Errorf("%w: last must be positive, got %d", ErrInvalidArg, last)
	}

	start := time.Now()
	matches, err := s.store.ListMatches(ctx, last)
	if err != nil {
		return analytics.Summary{}, fmt.Errorf("load last %d matches: %w", last, err)
	}
	summary := analytics.Build(matches)
	metrics.RecordAnalyticsBuild(strconv.Itoa(last), float64(time.Since(start).Milliseconds()))

	return summary, nil
}

// RequestReport builds the summary over the last matches, stores a pending
// report and queues its generation. When the queue refuses the job the report
// is marked failed and the queue error is returned.
func (s *Service) RequestReport(ctx context.Context, last int) (model.Report, error) {
	s.mu.RLock()
	started, q := s.started, s.queue
	s.mu.RUnlock()
	if !started {
		return model.Report{}, ErrNotStarted
	}

	summary, err := s.Analytics(ctx, last)
	if err != nil {
		return model.Report{}, err
	}
	raw, err := sonic.Marshal(summary)
	if err != nil {
		return model.Report{}, fmt.Errorf("encode summary: %w", err)
	}
	system, user, err := report.BuildPrompt(summary)
	if err != nil {
		return model.Report{}, err
	}

	r := model.Report{
		ID:         uuid.NewString(),
		NumMatches: summary.MatchesCount,
		Status:     model.ReportPending,
		Summary:    raw,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.CreateReport(ctx, &r); err != nil {
		return model.Report{}, fmt.Errorf("create report: %w", err)
	}

	if err := q.Enqueue(ctx, reportqueue.Job{ReportID: r.ID, System: system, User: user}); err != nil {
		metrics.RecordReportJob("rejected")
		if ferr := s.store.FinishReport(context.WithoutCancel(ctx), r.ID, model.ReportFailed, "", err.Error()); ferr != nil {
			s.logger.Error(ctx, "failed to mark rejected report", logger.String("report_id", r.ID), logger.Error(ferr))
		}
		return model.Report{}, fmt.Errorf("enqueue report %s: %w", r.ID, err)
	}

	metrics.RecordReportJob("enqueued")
	s.logger.Info(ctx, "report queued",
		logger.String("report_id", r.ID),
		logger.Int("matches", summary.MatchesCount),
	)

	return r, nil
}

func (s *Service) GetReport(ctx context.Context, id string) (model.Report, error) {
	return s.store.GetReport(ctx, id)
}

// ListReports returns up to limit reports, newest first. limit <= 0 returns all.
func (s *Service) ListReports(ctx context.Context, limit int) ([]model.Report, error) {
	return s.store.ListReports(ctx, limit)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"dedupeKeys":  s.deduper.Size(),
	}

	if n, err := s.store.CountMatches(context.Background()); err == nil {
		stats["totalMatches"] = n
		metrics.UpdateStoredMatches(n)
	}

	if s.started {
		stats["queueLength"] = s.queue.Len()
	}

	return stats
}

// Size returns the current number of idempotency keys remembered.
func (s *Service) Size() int64 {
	return s.deduper.Size()
}
