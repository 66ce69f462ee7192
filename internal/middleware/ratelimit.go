package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/metrics"
)

// Limiter decides whether the client identified by key may make another request
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is an in-process Limiter granting each client quota requests
// per window. Clients idle for longer than a window are evicted by Cleanup.
type RateLimiter struct {
	limiters map[string]*limiterEntry
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	window   time.Duration
	now      func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(quota int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Every(window / time.Duration(quota)),
		burst:    quota,
		window:   window,
		now:      time.Now,
	}
}

// Allow implements Limiter
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, exists := rl.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1), nil
}

// Len returns the number of tracked clients
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Cleanup removes limiters idle for longer than a window and returns how many
// were removed
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.window)
	removed := 0
	for key, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
			removed++
		}
	}
	return removed
}

// RunCleanup calls Cleanup every interval until ctx is done
func (rl *RateLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Cleanup()
		}
	}
}

// Counter is a shared fixed-window request counter, such as the Redis cache
type Counter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// CounterLimiter adapts a Counter to the Limiter interface
type CounterLimiter struct {
	counter Counter
	quota   int
	window  time.Duration
}

// NewCounterLimiter creates a Limiter backed by a shared counter
func NewCounterLimiter(counter Counter, quota int, window time.Duration) *CounterLimiter {
	return &CounterLimiter{counter: counter, quota: quota, window: window}
}

// Allow implements Limiter
func (l *CounterLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.counter.Allow(ctx, key, l.quota, l.window)
}

// RateLimit middleware limits requests per user or client IP. Limiter errors
// are logged and the request is let through.
func RateLimit(limiter Limiter, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var key string
		if userID, exists := GetUserID(c); exists {
			key = fmt.Sprintf("user:%s", userID)
		} else {
			key = fmt.Sprintf("ip:%s", c.ClientIP())
		}

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.WithError(err).Warn("Rate limiter unavailable")
			metrics.RecordError("ratelimit", "backend")
			c.Next()
			return
		}

		if !allowed {
			metrics.RecordRateLimitRejection()
			AbortWithError(c, http.StatusTooManyRequests, "RateLimitExceeded", "Rate limit exceeded. Please try again later.")
			return
		}

		c.Next()
	}
}
