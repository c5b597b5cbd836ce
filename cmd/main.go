package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/pitchlog/internal/adapters/http/api"
	"github.com/okian/pitchlog/internal/adapters/http/swagger"
	repository "github.com/okian/pitchlog/internal/adapters/repository"
	"github.com/okian/pitchlog/internal/adapters/textgen"
	app "github.com/okian/pitchlog/internal/app"
	"github.com/okian/pitchlog/internal/config"
	"github.com/okian/pitchlog/pkg/logger"
	"github.com/okian/pitchlog/pkg/metrics"
	"github.com/okian/pitchlog/pkg/resilience"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		// The logger may not be configured yet
		os.Stderr.WriteString("pitchlog: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.InitWith(os.Stdout, cfg.LogFormat); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	svc := newService(cfg, store, log)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return fmt.Errorf("start service: %w", err)
	}

	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal or a listener failure
	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "service shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return runErr
}

// openStore builds the configured store. PostgreSQL schemas are migrated first.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		if err := repository.Migrate(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		store, err := repository.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		return store, nil
	default:
		return repository.NewMemoryStore(), nil
	}
}

// newService wires the text generator, its circuit breaker and the store.
func newService(cfg *config.Config, store repository.Store, log logger.Logger) *app.Service {
	breaker := resilience.NewBreaker(
		resilience.WithFailureThreshold(cfg.BreakerFailureThreshold),
		resilience.WithOpenTimeout(time.Duration(cfg.BreakerOpenTimeoutMS)*time.Millisecond),
	)
	generator := textgen.New(
		textgen.WithAPIKey(cfg.TextgenAPIKey),
		textgen.WithBaseURL(cfg.TextgenBaseURL),
		textgen.WithModel(cfg.TextgenModel),
		textgen.WithTemperature(cfg.TextgenTemperature),
		textgen.WithTimeout(time.Duration(cfg.TextgenTimeoutMS)*time.Millisecond),
		textgen.WithMaxRetries(cfg.TextgenMaxRetries),
		textgen.WithBreaker(breaker),
	)

	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithStore(store),
		app.WithGenerator(generator),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
	)
}

// newMux registers the business API and its docs.
func newMux(cfg *config.Config, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(mux)
	api.NewServer(svc, svc,
		api.WithMaxListLimit(cfg.MaxListLimit),
		api.WithWindows(cfg.Windows, cfg.DefaultWindow),
		api.WithPlayTypes(cfg.PlayTypes),
		api.WithABPSubtypes(cfg.ABPSubtypes),
	).Register(mux)
	return mux
}

// startServiceMetricsUpdater periodically refreshes gauges derived from service stats.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateServiceMetrics updates service-level metrics.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if total, ok := stats["totalMatches"].(int); ok {
		metrics.UpdateStoredMatches(total)
	}
}
