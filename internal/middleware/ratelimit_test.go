package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/metrics"
)

func newLimitedRouter(l Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RateLimit(l, logging.Nop()))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func doRequest(router http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(50, time.Hour)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }
	router := newLimitedRouter(rl)

	before := testutil.ToFloat64(metrics.RateLimitRejectionsTotal)

	for i := 0; i < 50; i++ {
		w := doRequest(router, "203.0.113.7:1234")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	w := doRequest(router, "203.0.113.7:1234")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "RateLimitExceeded", body.Error)
	assert.Equal(t, http.StatusTooManyRequests, body.StatusCode)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RateLimitRejectionsTotal))

	// Other clients are unaffected
	w = doRequest(router, "198.51.100.1:1234")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := rl.Allow(ctx, "k")
	assert.False(t, ok)

	now = now.Add(30 * time.Second)
	ok, _ = rl.Allow(ctx, "k")
	assert.True(t, ok)
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	rl.Allow(ctx, "idle")
	now = now.Add(45 * time.Second)
	rl.Allow(ctx, "active")
	now = now.Add(30 * time.Second)

	assert.Equal(t, 1, rl.Cleanup())
	assert.Equal(t, 1, rl.Len())
}

type fakeCounter struct {
	count  map[string]int
	err    error
	limit  int
	window time.Duration
}

func (f *fakeCounter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.limit, f.window = limit, window
	f.count[key]++
	return f.count[key] <= limit, nil
}

func TestCounterLimiter(t *testing.T) {
	counter := &fakeCounter{count: map[string]int{}}
	router := newLimitedRouter(NewCounterLimiter(counter, 1, time.Hour))

	assert.Equal(t, http.StatusOK, doRequest(router, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(router, "").Code)
	assert.Equal(t, 1, counter.limit)
	assert.Equal(t, time.Hour, counter.window)
}

func TestRateLimitFailsOpen(t *testing.T) {
	counter := &fakeCounter{count: map[string]int{}, err: errors.New("redis down")}
	router := newLimitedRouter(NewCounterLimiter(counter, 1, time.Hour))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doRequest(router, "").Code)
	}
}
