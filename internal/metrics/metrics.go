package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytscribe_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytscribe_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	RateLimitRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ytscribe_rate_limit_rejections_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	// Task Metrics
	TasksCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ytscribe_tasks_created_total",
			Help: "Total number of transcript tasks created",
		},
	)

	TasksCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytscribe_tasks_completed_total",
			Help: "Total number of finished transcript tasks",
		},
		[]string{"status"},
	)

	TasksInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ytscribe_tasks_in_progress",
			Help: "Number of tasks currently being processed",
		},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytscribe_task_duration_seconds",
			Help:    "Task processing duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.4 minutes
		},
		[]string{"status"},
	)

	// Fetch Metrics
	TranscriptFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytscribe_transcript_fetch_total",
			Help: "Total number of transcript fetches by result",
		},
		[]string{"result"},
	)

	TranscriptFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ytscribe_transcript_fetch_duration_seconds",
			Help:    "Time spent fetching caption tracks",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Export Metrics
	FilesExportedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytscribe_files_exported_total",
			Help: "Total number of exported transcript files",
		},
		[]string{"format"},
	)

	ExportedBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytscribe_exported_bytes_total",
			Help: "Total bytes written by the exporter",
		},
		[]string{"format"},
	)

	ExportFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ytscribe_export_failures_total",
			Help: "Total number of failed exports",
		},
	)

	// Housekeeping Metrics
	CleanupRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ytscribe_cleanup_runs_total",
			Help: "Total number of file cleanup runs",
		},
	)

	CleanupFilesDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ytscribe_cleanup_files_deleted_total",
			Help: "Total number of files removed by cleanup",
		},
	)

	// Queue Metrics
	QueueMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytscribe_queue_messages_total",
			Help: "Total number of queue messages by event",
		},
		[]string{"event"},
	)

	// Storage Metrics
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytscribe_storage_operations_total",
			Help: "Total number of storage operations",
		},
		[]string{"operation", "status"},
	)

	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytscribe_storage_operation_duration_seconds",
			Help:    "Storage operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytscribe_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordRateLimitRejection records a request rejected by the rate limiter
func RecordRateLimitRejection() {
	RateLimitRejectionsTotal.Inc()
}

// RecordTaskCreated records a new task
func RecordTaskCreated() {
	TasksCreatedTotal.Inc()
}

// RecordTaskStarted marks a task as in progress
func RecordTaskStarted() {
	TasksInProgress.Inc()
}

// RecordTaskCompleted records a finished task and its processing time
func RecordTaskCompleted(status string, duration float64) {
	TasksInProgress.Dec()
	TasksCompletedTotal.WithLabelValues(status).Inc()
	TaskDuration.WithLabelValues(status).Observe(duration)
}

// RecordFetch records a transcript fetch
func RecordFetch(result string, duration float64) {
	TranscriptFetchTotal.WithLabelValues(result).Inc()
	TranscriptFetchDuration.Observe(duration)
}

// RecordExport records one exported file
func RecordExport(format string, sizeBytes int64) {
	FilesExportedTotal.WithLabelValues(format).Inc()
	ExportedBytesTotal.WithLabelValues(format).Add(float64(sizeBytes))
}

// RecordExportFailure records a failed export
func RecordExportFailure() {
	ExportFailuresTotal.Inc()
}

// RecordCleanup records a cleanup run
func RecordCleanup(deleted int) {
	CleanupRunsTotal.Inc()
	CleanupFilesDeletedTotal.Add(float64(deleted))
}

// RecordQueueMessage records a queue event (published, consumed, rejected)
func RecordQueueMessage(event string) {
	QueueMessagesTotal.WithLabelValues(event).Inc()
}

// RecordStorageOperation records a storage operation
func RecordStorageOperation(operation, status string, duration float64) {
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
	StorageOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
