package seeder

import "os"

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`pitchlog seeder
===============

Generates random matches, submits them to a running pitchlog service and
logs the analytics summary over the most recent ones.

Usage:
  go run ./cmd/seed [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -matches int
        Number of matches to generate (default 20)
  -workers int
        Number of concurrent submitters (default CPU cores)
  -timeout duration
        HTTP request timeout (default 10s)
  -last int
        Analytics window fetched after seeding (default 5)
  -seed uint
        Random seed; 0 uses the clock
  -verbose
        Log every submission
  -help
        Show this help message

Examples:
  go run ./cmd/seed -matches 30 -last 10
  go run ./cmd/seed -url http://localhost:9090 -verbose
`)
}
