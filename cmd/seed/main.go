package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/pitchlog/internal/seeder"
	"github.com/okian/pitchlog/pkg/logger"
)

const defaultRunTimeout = 5 * time.Minute

func main() {
	var (
		baseURL = flag.String("url", seeder.DefaultBaseURL, "Base URL of the service")
		matches = flag.Int("matches", seeder.DefaultMatches, "Number of matches to generate")
		workers = flag.Int("workers", runtime.NumCPU(), "Number of concurrent submitters")
		timeout = flag.Duration("timeout", seeder.DefaultTimeout, "HTTP request timeout")
		last    = flag.Int("last", seeder.DefaultLast, "Analytics window fetched after seeding")
		seed    = flag.Uint64("seed", 0, "Random seed (0 uses the clock)")
		verbose = flag.Bool("verbose", false, "Log every submission")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seeder.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	_, _, err := seeder.Run(ctx, seeder.Config{
		BaseURL: *baseURL,
		Matches: *matches,
		Workers: *workers,
		Timeout: *timeout,
		Last:    *last,
		Verbose: *verbose,
		Seed:    *seed,
	})
	if err != nil {
		logger.Get().Error(ctx, "seed run failed", logger.Error(err))
		os.Exit(1)
	}
}
