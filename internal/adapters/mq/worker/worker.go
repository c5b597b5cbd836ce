package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/pitchlog/internal/domain/model"
	"github.com/okian/pitchlog/pkg/logger"
	"github.com/okian/pitchlog/pkg/metrics"
	"github.com/sourcegraph/conc"
)

const defaultJobTimeout = 2 * time.Minute

// Job abstracts what workers read off the queue.
type Job = model.ReportJob

// Generator turns prompts into report text.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// ReportFinisher stores the outcome of a report job.
type ReportFinisher interface {
	FinishReport(ctx context.Context, id string, status model.ReportStatus, content, errMsg string) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue() <-chan Job
}

// InMemoryWorker processes report jobs one at a time.
type InMemoryWorker struct {
	queue      Queue
	generator  Generator
	reports    ReportFinisher
	name       string
	jobTimeout time.Duration
	logger     logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, generator Generator, reports ReportFinisher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      queue,
		generator:  generator,
		reports:    reports,
		name:       "worker",
		jobTimeout: defaultJobTimeout,
		logger:     logger.Get(),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.logger = w.logger.Named(w.name)

	return w
}

// Run processes jobs until the queue is closed and drained or ctx is done.
// Once ctx is done, jobs still queued are marked failed instead of left pending.
func (w *InMemoryWorker) Run(ctx context.Context) {
	jobs := w.queue.Dequeue()
	for {
		if ctx.Err() != nil {
			w.abandon(ctx, jobs)
			return
		}
		select {
		case <-ctx.Done():
			w.abandon(ctx, jobs)
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing report job",
					logger.String("report_id", job.ReportID),
					logger.Error(err),
				)
			}
		}
	}
}

// abandon fails every job that can be taken off the queue without blocking.
func (w *InMemoryWorker) abandon(ctx context.Context, jobs <-chan Job) {
	storeCtx := context.WithoutCancel(ctx)
	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}
			metrics.RecordReportJob("abandoned")
			if err := w.reports.FinishReport(storeCtx, job.ReportID, model.ReportFailed, "", ErrAbandoned.Error()); err != nil {
				w.logger.Error(ctx, "error abandoning report job",
					logger.String("report_id", job.ReportID),
					logger.Error(err),
				)
			}
		default:
			return
		}
	}
}

// process generates one report and records the outcome. A generation failure
// is a valid outcome (the report is marked failed); only a failed store write
// is returned as an error.
func (w *InMemoryWorker) process(ctx context.Context, job Job) error {
	genCtx := ctx
	if w.jobTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, w.jobTimeout)
		defer cancel()
	}

	start := time.Now()
	content, genErr := w.generator.Generate(genCtx, job.System, job.User)
	metrics.RecordReportLatency(float64(time.Since(start).Milliseconds()))

	// The outcome is written even if ctx was cancelled mid-generation.
	storeCtx := context.WithoutCancel(ctx)

	if genErr != nil {
		metrics.RecordReportJob("failed")
		metrics.RecordErrorByComponent("worker", "generation_error")
		w.logger.Warn(ctx, "report generation failed",
			logger.String("report_id", job.ReportID),
			logger.Error(genErr),
		)
		if err := w.reports.FinishReport(storeCtx, job.ReportID, model.ReportFailed, "", genErr.Error()); err != nil {
			return fmt.Errorf("mark report %s failed: %w", job.ReportID, err)
		}
		return nil
	}

	if err := w.reports.FinishReport(storeCtx, job.ReportID, model.ReportDone, content, ""); err != nil {
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("store report %s: %w", job.ReportID, err)
	}
	metrics.RecordReportJob("done")
	w.logger.Debug(ctx, "report generated",
		logger.String("report_id", job.ReportID),
		logger.Int("chars", len(content)),
	)
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	wg      *conc.WaitGroup
	logger  logger.Logger
	done    chan struct{}
	once    sync.Once
}

// NewPool creates a new worker pool. workerCount below 1 is raised to 1.
func NewPool(workerCount int, queue Queue, generator Generator, reports ReportFinisher, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		wg:      conc.NewWaitGroup(),
		logger:  logger.Get().Named("worker-pool"),
		done:    make(chan struct{}),
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(queue, generator, reports, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool. Cancelling ctx stops them and fails
// the jobs left in the queue.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Go(func() { w.Run(ctx) })
	}
	p.watch(ctx)
}

// Done is closed once every worker has returned.
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

func (p *Pool) watch(ctx context.Context) {
	p.once.Do(func() {
		go func() {
			defer close(p.done)
			if r := p.wg.WaitAndRecover(); r != nil {
				p.logger.Error(ctx, "worker panicked", logger.Error(r.AsError()))
			}
		}()
	})
}

// Shutdown closes the queue and waits for workers to drain it, or for ctx.
// On timeout the workers keep running until the context given to Start is
// cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	p.watch(ctx)

	select {
	case <-p.done:
		metrics.UpdateWorkerCount(0)
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "worker pool shutdown timed out")
		return errors.Join(ErrShutdownTimeout, ctx.Err())
	}
}
