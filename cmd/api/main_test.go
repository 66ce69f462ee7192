package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/config"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/export"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/middleware"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/monitoring"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/storage"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/task"
	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

const testVideoURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

// MockFetcher is a mock implementation of TranscriptFetcher
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, ref models.VideoReference, languages []string, preserveFormatting bool) (*models.Transcript, error) {
	args := m.Called(ctx, ref, languages, preserveFormatting)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transcript), args.Error(1)
}

func (m *MockFetcher) ListTracks(ctx context.Context, videoID string) ([]models.CaptionTrack, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CaptionTrack), args.Error(1)
}

type fakeDispatcher struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, taskID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.ids = append(d.ids, taskID)
	return nil
}

type fakeHealth struct {
	system     *monitoring.SystemInfo
	systemErr  error
	dir        monitoring.DirectoryStatus
	components map[string]string
	ready      bool
}

func (h *fakeHealth) System(ctx context.Context) (*monitoring.SystemInfo, error) {
	return h.system, h.systemErr
}

func (h *fakeHealth) OutputDirectory() monitoring.DirectoryStatus {
	return h.dir
}

func (h *fakeHealth) Components(ctx context.Context) map[string]string {
	return h.components
}

func (h *fakeHealth) Ready(ctx context.Context) (bool, map[string]bool) {
	return h.ready, map[string]bool{"output_directory": h.ready}
}

type testAPI struct {
	*API
	fetcher    *MockFetcher
	dispatcher *fakeDispatcher
	health     *fakeHealth
	registry   *task.Registry
	outputDir  string
}

func testConfig(outputDir string) *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "YouTube Transcript API", Version: "1.0.0"},
		Server: config.ServerConfig{
			APIPrefix:      "/api/v1",
			AllowedOrigins: []string{"*"},
		},
		Transcripts: config.TranscriptsConfig{
			OutputDir:        outputDir,
			DefaultLanguages: []string{"en", "en-US", "en-GB"},
			MaxFileSize:      50 * 1024 * 1024,
		},
		PDF: config.PDFConfig{PageSize: "A4", FontSize: 12, Margins: 72},
	}
}

// setupTestAPI wires real task, export and file components over a temp dir
func setupTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	logger := logging.Nop()

	exporter, err := export.New(export.Config{OutputDir: dir, DownloadPrefix: "/api/v1"}, logger)
	require.NoError(t, err)
	files, err := storage.NewFileStore(dir, logger)
	require.NoError(t, err)

	fetcher := new(MockFetcher)
	registry := task.NewRegistry(task.NewMemoryStore(), fetcher, exporter, files, logger)
	dispatcher := &fakeDispatcher{}
	health := &fakeHealth{
		system:     &monitoring.SystemInfo{CPUUsage: 12.5, MemoryUsage: 40, DiskUsage: 55, UptimeSeconds: 3600},
		dir:        monitoring.DirectoryStatus{Path: dir, Exists: true, Writable: true},
		components: map[string]string{},
		ready:      true,
	}

	return &testAPI{
		API: &API{
			config:     testConfig(dir),
			logger:     logger,
			tasks:      registry,
			fetcher:    fetcher,
			files:      files,
			health:     health,
			dispatcher: dispatcher,
		},
		fetcher:    fetcher,
		dispatcher: dispatcher,
		health:     health,
		registry:   registry,
		outputDir:  dir,
	}
}

func sampleTranscript(ref models.VideoReference) *models.Transcript {
	ref.Title = "Test Video"
	return models.NewTranscript(ref, []models.Snippet{
		{Text: "Hello everyone.", Start: 0, Duration: 2},
		{Text: "Welcome to the show.", Start: 2, Duration: 3},
	}, "en", false)
}

func performRequest(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponse {
	t.Helper()
	var resp middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthHandler(t *testing.T) {
	api := setupTestAPI(t)
	router := setupRouter(api.API)

	w := performRequest(router, http.MethodGet, "/api/v1/health/", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "YouTube Transcript API", body["service"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestLivenessHandler(t *testing.T) {
	api := setupTestAPI(t)
	router := setupRouter(api.API)

	w := performRequest(router, http.MethodGet, "/api/v1/health/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"alive"`)
}

func TestReadinessHandler(t *testing.T) {
	api := setupTestAPI(t)
	router := setupRouter(api.API)

	w := performRequest(router, http.MethodGet, "/api/v1/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ready":true`)

	api.health.ready = false
	w = performRequest(router, http.MethodGet, "/api/v1/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"ready":false`)
}

func TestDetailedHealthHandler(t *testing.T) {
	api := setupTestAPI(t)
	router := setupRouter(api.API)

	w := performRequest(router, http.MethodGet, "/api/v1/health/detailed", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status     string                 `json:"status"`
		SystemInfo monitoring.SystemInfo  `json:"system_info"`
		Services   map[string]interface{} `json:"service_status"`
		Config     map[string]interface{} `json:"configuration"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, 12.5, body.SystemInfo.CPUUsage)
	assert.Equal(t, "available", body.Services["pdf_generation"])
	assert.Contains(t, body.Services, "output_directory")
	assert.Equal(t, false, body.Config["debug_mode"])
}

func TestDetailedHealthHandler_Degraded(t *testing.T) {
	api := setupTestAPI(t)
	api.health.components = map[string]string{"redis": "unavailable: connection refused"}
	router := setupRouter(api.API)

	w := performRequest(router, http.MethodGet, "/api/v1/health/detailed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
	assert.Contains(t, w.Body.String(), `"redis":"unavailable: connection refused"`)
}

func TestRootAndInfoHandlers(t *testing.T) {
	api := setupTestAPI(t)
	router := setupRouter(api.API)

	w := performRequest(router, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"transcripts":"/api/v1/transcripts"`)

	w = performRequest(router, http.MethodGet, "/info", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"max_file_size_mb":50`)
	assert.Contains(t, w.Body.String(), `"page_size":"A4"`)
}

func TestAuthRequired(t *testing.T) {
	api := setupTestAPI(t)
	api.auth = middleware.NewAuthenticator("test-secret", []string{"key-123456"})
	router := setupRouter(api.API)

	w := performRequest(router, http.MethodGet, "/api/v1/transcripts/", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", decodeError(t, w).Error)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transcripts/", nil)
	req.Header.Set("X-API-Key", "key-123456")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Probes stay public
	w = performRequest(router, http.MethodGet, "/api/v1/health/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

type failingFiles struct {
	FileService
}

func (failingFiles) Stats() (*models.FileStats, error) {
	return nil, assert.AnError
}

func TestUnexpectedErrorHidesDetail(t *testing.T) {
	api := setupTestAPI(t)
	api.files = failingFiles{}
	router := setupRouter(api.API)

	w := performRequest(router, http.MethodGet, "/api/v1/files/stats", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "InternalServerError", resp.Error)
	assert.Equal(t, "An unexpected error occurred", resp.Message)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	api.config.App.Debug = true
	w = performRequest(router, http.MethodGet, "/api/v1/files/stats", nil)
	assert.Equal(t, assert.AnError.Error(), decodeError(t, w).Message)
}
