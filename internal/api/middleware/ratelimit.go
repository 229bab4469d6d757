package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/nexconsult/fssp-api/internal/config"
	"github.com/nexconsult/fssp-api/internal/models"
)

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP
type RateLimiter struct {
	config  config.RateLimitConfig
	mu      sync.Mutex
	buckets map[string]*clientBucket
}

// NewRateLimiter creates a new rate limiter. Idle clients are forgotten until ctx is done.
func NewRateLimiter(ctx context.Context, cfg config.RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  cfg,
		buckets: make(map[string]*clientBucket),
	}
	if cfg.CleanupInterval > 0 {
		go rl.evictIdle(ctx)
	}
	return rl
}

// Middleware rejects requests beyond the per-client budget with 429
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	limit := strconv.Itoa(rl.config.RequestsPerMinute)

	return func(c *gin.Context) {
		limiter := rl.limiterFor(c.ClientIP())
		c.Header("X-RateLimit-Limit", limit)

		if limiter.Allow() {
			remaining := int(math.Max(0, limiter.Tokens()))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
			c.Next()
			return
		}

		wait := rl.refillInterval()
		c.Header("X-RateLimit-Remaining", "0")
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
			Error:     "Rate limit exceeded",
			Message:   "Too many requests. Try again in " + wait.String(),
			Code:      "RATE_LIMIT_EXCEEDED",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
			RequestID: c.GetString("request_id"),
		})
	}
}

func (rl *RateLimiter) limiterFor(clientIP string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[clientIP]
	if !ok {
		perSecond := rate.Limit(float64(rl.config.RequestsPerMinute) / 60.0)
		b = &clientBucket{limiter: rate.NewLimiter(perSecond, rl.config.BurstSize)}
		rl.buckets[clientIP] = b
	}
	b.lastSeen = time.Now()
	return b.limiter
}

// refillInterval is how long one token takes to come back
func (rl *RateLimiter) refillInterval() time.Duration {
	if rl.config.RequestsPerMinute <= 0 {
		return time.Minute
	}
	return time.Minute / time.Duration(rl.config.RequestsPerMinute)
}

func (rl *RateLimiter) evictIdle(ctx context.Context) {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			cutoff := now.Add(-2 * rl.config.CleanupInterval)
			rl.mu.Lock()
			for ip, b := range rl.buckets {
				if b.lastSeen.Before(cutoff) {
					delete(rl.buckets, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// GetStats returns rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]interface{} {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]interface{}{
		"active_clients":      len(rl.buckets),
		"requests_per_minute": rl.config.RequestsPerMinute,
		"burst_size":          rl.config.BurstSize,
		"cleanup_interval":    rl.config.CleanupInterval.String(),
	}
}
