package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("GET", "/api/v1/transcripts/", "200", 0.123)

	counter := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/transcripts/", "200"))
	if counter != 1.0 {
		t.Errorf("Expected counter to be 1.0, got %f", counter)
	}
}

func TestRecordTaskLifecycle(t *testing.T) {
	TasksCompletedTotal.Reset()
	TasksInProgress.Set(0)

	RecordTaskStarted()
	RecordTaskStarted()
	if got := testutil.ToFloat64(TasksInProgress); got != 2.0 {
		t.Errorf("Expected 2 tasks in progress, got %f", got)
	}

	RecordTaskCompleted("completed", 1.5)
	RecordTaskCompleted("failed", 0.2)

	if got := testutil.ToFloat64(TasksInProgress); got != 0 {
		t.Errorf("Expected 0 tasks in progress, got %f", got)
	}
	if got := testutil.ToFloat64(TasksCompletedTotal.WithLabelValues("completed")); got != 1.0 {
		t.Errorf("Expected completed counter to be 1.0, got %f", got)
	}
	if got := testutil.ToFloat64(TasksCompletedTotal.WithLabelValues("failed")); got != 1.0 {
		t.Errorf("Expected failed counter to be 1.0, got %f", got)
	}
}

func TestRecordExport(t *testing.T) {
	FilesExportedTotal.Reset()
	ExportedBytesTotal.Reset()

	RecordExport("txt", 100)
	RecordExport("txt", 50)
	RecordExport("pdf", 2048)

	if got := testutil.ToFloat64(FilesExportedTotal.WithLabelValues("txt")); got != 2.0 {
		t.Errorf("Expected 2 txt files, got %f", got)
	}
	if got := testutil.ToFloat64(ExportedBytesTotal.WithLabelValues("txt")); got != 150 {
		t.Errorf("Expected 150 txt bytes, got %f", got)
	}
}

func TestRecordCleanup(t *testing.T) {
	before := testutil.ToFloat64(CleanupFilesDeletedTotal)
	runs := testutil.ToFloat64(CleanupRunsTotal)

	RecordCleanup(3)

	if got := testutil.ToFloat64(CleanupFilesDeletedTotal) - before; got != 3 {
		t.Errorf("Expected 3 deleted files recorded, got %f", got)
	}
	if got := testutil.ToFloat64(CleanupRunsTotal) - runs; got != 1 {
		t.Errorf("Expected 1 cleanup run recorded, got %f", got)
	}
}

func TestRecordFetch(t *testing.T) {
	TranscriptFetchTotal.Reset()

	RecordFetch("success", 0.5)
	RecordFetch("not_found", 0.1)

	if got := testutil.ToFloat64(TranscriptFetchTotal.WithLabelValues("success")); got != 1.0 {
		t.Errorf("Expected 1 successful fetch, got %f", got)
	}
}

func TestRecordError(t *testing.T) {
	ErrorsTotal.Reset()

	RecordError("exporter", "write")
	RecordError("exporter", "write")

	if got := testutil.ToFloat64(ErrorsTotal.WithLabelValues("exporter", "write")); got != 2.0 {
		t.Errorf("Expected 2 errors, got %f", got)
	}
}
