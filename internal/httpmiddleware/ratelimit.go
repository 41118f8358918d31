package httpmiddleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter enforces a per-IP request budget per minute. With a redis
// client the window is shared across instances; without one it falls
// back to an in-process counter.
type RateLimiter struct {
	perMinute int
	redis     *redis.Client

	mu      sync.Mutex
	local   map[string]int
	localAt time.Time
}

// NewRateLimiter creates a limiter. client may be nil.
func NewRateLimiter(perMinute int, client *redis.Client) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &RateLimiter{perMinute: perMinute, redis: client, local: make(map[string]int)}
}

// GinMiddleware returns a gin handler enforcing the per-IP limit.
func (l *RateLimiter) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(c.Request.Context(), ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) allow(ctx context.Context, key string) bool {
	if l.redis != nil {
		if ok, decided := l.allowRedis(ctx, key); decided {
			return ok
		}
		// redis unreachable: rate limiting degrades rather than
		// blocking check-ins
	}
	return l.allowLocal(key)
}

// allowRedis counts requests in a fixed one-minute window via INCR with
// a first-hit TTL.
func (l *RateLimiter) allowRedis(ctx context.Context, key string) (ok, decided bool) {
	bucket := fmt.Sprintf("ratelimit:%s:%d", key, time.Now().Unix()/60)
	n, err := l.redis.Incr(ctx, bucket).Result()
	if err != nil {
		return false, false
	}
	if n == 1 {
		l.redis.Expire(ctx, bucket, 2*time.Minute)
	}
	return n <= int64(l.perMinute), true
}

func (l *RateLimiter) allowLocal(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if now.Sub(l.localAt) >= time.Minute {
		l.local = make(map[string]int)
		l.localAt = now
	}
	l.local[key]++
	return l.local[key] <= l.perMinute
}
