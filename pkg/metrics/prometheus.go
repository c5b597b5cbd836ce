// Package metrics provides Prometheus metrics for the pitchlog service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the pitchlog service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Intake
	matchesRecorded  prometheus.Counter
	matchesDuplicate prometheus.Counter
	matchesRejected  prometheus.Counter
	matchesDeleted   prometheus.Counter
	goalEvents       *prometheus.CounterVec
	storedMatches    prometheus.Gauge

	// Analytics
	analyticsBuilds   *prometheus.CounterVec
	analyticsDuration prometheus.Histogram

	// Reports
	reportJobs        *prometheus.CounterVec
	reportLatency     prometheus.Histogram
	textgenRequests   *prometheus.CounterVec
	textgenRetries    prometheus.Counter
	circuitTransition *prometheus.CounterVec

	// Queue and workers
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueRejected *prometheus.CounterVec
	workerCount   prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pitchlog",
		subsystem:        "",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.matchesRecorded = m.counter("matches_recorded_total", "Total number of matches stored")
	m.matchesDuplicate = m.counter("matches_duplicate_total", "Match submissions replayed with a known idempotency key")
	m.matchesRejected = m.counter("matches_rejected_total", "Match submissions rejected by validation")
	m.matchesDeleted = m.counter("matches_deleted_total", "Total number of matches deleted")
	m.goalEvents = m.counterVec("goal_events_recorded_total", "Goal events stored, by side", "side")
	m.storedMatches = m.gauge("stored_matches", "Number of matches currently stored")

	m.analyticsBuilds = m.counterVec("analytics_builds_total", "Analytics summaries built, by window", "window")
	m.analyticsDuration = m.histogram("analytics_build_duration_milliseconds", "Time to load matches and build a summary")

	m.reportJobs = m.counterVec("report_jobs_total", "Report jobs by outcome (enqueued, done, failed, rejected)", "outcome")
	m.reportLatency = m.histogram("report_generation_latency_milliseconds", "Text generation latency per report job")
	m.textgenRequests = m.counterVec("textgen_requests_total", "Text generation HTTP calls by status class", "status")
	m.textgenRetries = m.counter("textgen_retries_total", "Text generation retries")
	m.circuitTransition = m.counterVec("circuit_transitions_total", "Circuit breaker state transitions", "state")

	m.queueSize = m.gauge("queue_size", "Current number of pending report jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of pending report jobs")
	m.queueRejected = m.counterVec("queue_rejected_total", "Report jobs rejected by the queue, by reason", "reason")
	m.workerCount = m.gauge("worker_count", "Number of report workers")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")
}

// Intake.

// RecordMatchRecorded counts a stored match.
func RecordMatchRecorded() {
	if on() {
		globalManager.matchesRecorded.Inc()
	}
}

func RecordMatchDuplicate() {
	if on() {
		globalManager.matchesDuplicate.Inc()
	}
}

func RecordMatchRejected() {
	if on() {
		globalManager.matchesRejected.Inc()
	}
}

func RecordMatchDeleted() {
	if on() {
		globalManager.matchesDeleted.Inc()
	}
}

// RecordGoalEvent counts one stored goal event for side.
func RecordGoalEvent(side string) {
	if on() {
		globalManager.goalEvents.WithLabelValues(side).Inc()
	}
}

// UpdateStoredMatches sets the stored match gauge.
func UpdateStoredMatches(count int) {
	if on() {
		globalManager.storedMatches.Set(float64(count))
	}
}

// Analytics.

// RecordAnalyticsBuild counts a summary over window matches and observes its duration.
func RecordAnalyticsBuild(window string, durationMs float64) {
	if on() {
		globalManager.analyticsBuilds.WithLabelValues(window).Inc()
		globalManager.analyticsDuration.Observe(durationMs)
	}
}

// Reports.

// RecordReportJob counts a report job outcome.
func RecordReportJob(outcome string) {
	if on() {
		globalManager.reportJobs.WithLabelValues(outcome).Inc()
	}
}

// RecordReportLatency observes text generation latency for one job.
func RecordReportLatency(latencyMs float64) {
	if on() {
		globalManager.reportLatency.Observe(latencyMs)
	}
}

// RecordTextgenRequest counts a text generation call by status ("2xx", "429", "5xx", "error").
func RecordTextgenRequest(status string) {
	if on() {
		globalManager.textgenRequests.WithLabelValues(status).Inc()
	}
}

func RecordTextgenRetry() {
	if on() {
		globalManager.textgenRetries.Inc()
	}
}

// RecordCircuitTransition counts a breaker moving into state.
func RecordCircuitTransition(state string) {
	if on() {
		globalManager.circuitTransition.WithLabelValues(state).Inc()
	}
}

// Queue and workers.

func UpdateQueueSize(size int) {
	if on() {
		globalManager.queueSize.Set(float64(size))
	}
}

func UpdateQueueCapacity(capacity int) {
	if on() {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueRejected counts a job the queue refused (full, closed, context_cancelled).
func RecordQueueRejected(reason string) {
	if on() {
		globalManager.queueRejected.WithLabelValues(reason).Inc()
	}
}

func UpdateWorkerCount(count int) {
	if on() {
		globalManager.workerCount.Set(float64(count))
	}
}

// HTTP.

func RecordHTTPRequest(endpoint, method, statusCode string) {
	if on() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if on() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// Errors.

func RecordErrorByComponent(component, errorType string) {
	if on() {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// GetRegistry returns the custom Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

func on() bool {
	return globalManager != nil && globalManager.enabled
}
