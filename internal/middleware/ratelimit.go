package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultRateLimit  = 10
	defaultRateWindow = 15 * time.Minute
)

type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// Counter counts hits on a key within a fixed window.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter counts with INCR + EXPIRE. Every hit pushes the expiry out,
// so a client that keeps retrying stays blocked.
type RedisCounter struct {
	rdb *redis.Client
}

func NewRedisCounter(rdb *redis.Client) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

func (r *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := r.rdb.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return 0, fmt.Errorf("rate limit pipeline: %w", err)
	}
	return incr.Val(), nil
}

func rateLimitKey(endpoint, clientIP string) string {
	return fmt.Sprintf("ratelimit:%s:%s", endpoint, clientIP)
}

// RateLimiter limits requests per client IP and path. A nil counter or a
// counter error lets the request through.
func RateLimiter(counter Counter, cfg RateLimitConfig, log zerolog.Logger) gin.HandlerFunc {
	if cfg.Limit <= 0 {
		cfg.Limit = defaultRateLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultRateWindow
	}

	return func(c *gin.Context) {
		if counter == nil {
			c.Next()
			return
		}
		clientIP := c.ClientIP()
		endpoint := c.Request.URL.Path

		ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
		count, err := counter.Hit(ctx, rateLimitKey(endpoint, clientIP), cfg.Window)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("ip", clientIP).Msg("rate limit check failed")
			c.Next()
			return
		}

		if count > int64(cfg.Limit) {
			log.Warn().Str("ip", clientIP).Str("path", endpoint).Msg("rate limit exceeded")
			c.Header("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please try again later."})
			return
		}
		c.Next()
	}
}
