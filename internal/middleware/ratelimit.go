package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Counter counts hits on key within a fixed window.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter shares counts across instances.
type RedisCounter struct {
	client *redis.Client
	prefix string
}

// NewRedisCounter stores counters under "<prefix>ratelimit:<key>".
func NewRedisCounter(client *redis.Client, prefix string) *RedisCounter {
	if client == nil {
		panic("Redis client cannot be nil for RedisCounter")
	}
	return &RedisCounter{client: client, prefix: prefix}
}

// Incr pipelines INCR with PTTL and sets the expiry only when the key has
// none, so the window starts at the first hit.
func (r *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	fullKey := r.prefix + "ratelimit:" + key
	pipe := r.client.Pipeline()
	incrCmd := pipe.Incr(ctx, fullKey)
	ttlCmd := pipe.PTTL(ctx, fullKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	if ttlCmd.Val() < 0 {
		if err := r.client.PExpire(ctx, fullKey, window).Err(); err != nil {
			return 0, err
		}
	}
	return incrCmd.Val(), nil
}

// MemoryCounter is the single-instance fallback when Redis is not configured.
type MemoryCounter struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	count   int64
	resetAt time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{entries: make(map[string]*memoryEntry), now: time.Now}
}

func (m *MemoryCounter) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e, ok := m.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = &memoryEntry{resetAt: now.Add(window)}
		m.entries[key] = e
		m.sweep(now)
	}
	e.count++
	return e.count, nil
}

// sweep drops expired windows; called only when a new window opens.
func (m *MemoryCounter) sweep(now time.Time) {
	for k, e := range m.entries {
		if !now.Before(e.resetAt) {
			delete(m.entries, k)
		}
	}
}

// RateLimit limits each client IP to maxRequests per window. If the counter
// fails the request is let through.
func RateLimit(counter Counter, maxRequests int, window time.Duration) gin.HandlerFunc {
	if counter == nil {
		panic("Counter cannot be nil for RateLimit middleware")
	}
	if maxRequests <= 0 {
		panic("maxRequests must be positive for RateLimit middleware")
	}
	if window <= 0 {
		panic("window duration must be positive for RateLimit middleware")
	}
	limit := strconv.Itoa(maxRequests)

	return func(c *gin.Context) {
		key := c.FullPath() + ":" + c.ClientIP()

		count, err := counter.Incr(c.Request.Context(), key, window)
		if err != nil {
			logrus.WithError(err).Warn("RateLimit: counter unavailable, allowing request")
			c.Next()
			return
		}

		remaining := int64(maxRequests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(maxRequests) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "Too many requests"})
			return
		}
		c.Next()
	}
}
