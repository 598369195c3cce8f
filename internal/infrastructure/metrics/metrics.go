package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Generation
	Generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codegen_generations_total",
			Help: "Generations by language and outcome",
		},
		[]string{"language", "outcome"}, // outcome: model|fallback|invalid
	)
	GenerationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codegen_generation_duration_seconds",
			Help:    "End-to-end generation latency",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms..25s
		},
		[]string{"language"},
	)

	// Validation
	ValidationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codegen_validation_runs_total",
			Help: "Number of validation runs by validator and result",
		},
		[]string{"validator", "result"}, // result: pass|fail
	)

	// Formatting
	FormatterRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codegen_formatter_runs_total",
			Help: "External formatter invocations by language and result",
		},
		[]string{"language", "result"}, // result: applied|skipped|failed
	)

	// Model
	ModelRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codegen_model_requests_total",
			Help: "Number of model requests by backend and model",
		},
		[]string{"backend", "model"},
	)

	// Jobs
	JobsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codegen_jobs_created_total",
			Help: "Total number of jobs created",
		},
	)
	JobStatusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codegen_job_status_changes_total",
			Help: "Number of job status transitions",
		},
		[]string{"from", "to"},
	)
	JobDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codegen_job_duration_seconds",
			Help:    "Histogram of job durations in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8), // 1s..128s
		},
	)

	// Store ops
	StoreOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codegen_store_ops_total",
			Help: "Store operations performed",
		},
		[]string{"store", "op"}, // op: get|put|delete|list|count
	)

	// HTTP
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "path"},
	)
	HTTPErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of HTTP request errors.",
		},
		[]string{"method", "path", "status"},
	)

	// Errors
	Errors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codegen_errors_total",
			Help: "Errors encountered in components",
		},
		[]string{"component", "type"},
	)
)

func init() {
	prometheus.MustRegister(
		Generations,
		GenerationDurationSeconds,
		ValidationRuns,
		FormatterRuns,
		ModelRequests,
		JobsCreated,
		JobStatusChanges,
		JobDurationSeconds,
		StoreOps,
		HTTPRequestDuration,
		HTTPRequests,
		HTTPErrors,
		Errors,
	)
}

// Generation
func IncGeneration(language, outcome string) {
	Generations.WithLabelValues(language, outcome).Inc()
}

func ObserveGenerationDuration(language string, d time.Duration) {
	GenerationDurationSeconds.WithLabelValues(language).Observe(d.Seconds())
}

// Validation
func IncValidationRun(validator string, passed bool) {
	result := "fail"
	if passed {
		result = "pass"
	}
	ValidationRuns.WithLabelValues(validator, result).Inc()
}

// Formatting
func IncFormatterRun(language, result string) {
	FormatterRuns.WithLabelValues(language, result).Inc()
}

// Model
func IncModelRequest(backend, model string) {
	ModelRequests.WithLabelValues(backend, model).Inc()
}

// Jobs
func IncJobsCreated() {
	JobsCreated.Inc()
}

func IncJobStatusChange(from, to string) {
	JobStatusChanges.WithLabelValues(from, to).Inc()
}

func ObserveJobDuration(d time.Duration) {
	JobDurationSeconds.Observe(d.Seconds())
}

// Store
func IncStoreOp(store, op string) {
	StoreOps.WithLabelValues(store, op).Inc()
}

// HTTP
func ObserveHTTPRequest(method, path, status string, d time.Duration, failed bool) {
	HTTPRequests.WithLabelValues(method, path).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
	if failed {
		HTTPErrors.WithLabelValues(method, path, status).Inc()
	}
}

// Errors
func IncError(component, typ string) {
	Errors.WithLabelValues(component, typ).Inc()
}
