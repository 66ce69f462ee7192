package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps the Redis client shared by the task store, rate limiter and locks
type Cache struct {
	client *redis.Client
}

// NewCache creates a new cache instance
func NewCache(host string, port int, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks the connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Rate Limiting Operations

// CheckRateLimit counts a request against a fixed window and reports whether
// it is still within limit. The window starts at the first request.
func (c *Cache) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	rateLimitKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := c.client.Incr(ctx, rateLimitKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	// Set expiry on first request
	if count == 1 {
		if err := c.client.Expire(ctx, rateLimitKey, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set expiry: %w", err)
		}
	}

	return count <= limit, nil
}

// Allow implements the middleware rate limiter on top of CheckRateLimit
func (c *Cache) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return c.CheckRateLimit(ctx, key, int64(limit), window)
}

// Locking Operations for Distributed Systems

// AcquireLock attempts to acquire a distributed lock
func (c *Cache) AcquireLock(ctx context.Context, resource string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:%s", resource)
	return c.client.SetNX(ctx, key, "locked", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Cache) ReleaseLock(ctx context.Context, resource string) error {
	key := fmt.Sprintf("lock:%s", resource)
	return c.client.Del(ctx, key).Err()
}
