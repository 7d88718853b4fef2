package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window counter on Redis INCR/EXPIRE.
// key format: rl:<window_seconds>:<identifier>
// Without a client every hit is allowed.
type Limiter struct {
	client *redis.Client
}

// NewRedisClient connects to addr (host:port). An empty addr means redis is
// not configured and yields a nil client.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// Enabled reports whether a redis client backs the limiter.
func (l *Limiter) Enabled() bool { return l != nil && l.client != nil }

// Allow counts one hit for ident and reports whether it is within limit.
func (l *Limiter) Allow(ctx context.Context, ident string, limit int, window time.Duration) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	key := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + ident

	val, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		LimiterErrors.Inc()
		return true, err
	}
	if val == 1 {
		// first increment, set expiry
		l.client.Expire(ctx, key, window)
	}
	allowed := val <= int64(limit)
	countDecision(scopeOf(ident), allowed)
	return allowed, nil
}

// Ping checks the backing redis, if any.
func (l *Limiter) Ping(ctx context.Context) error {
	if !l.Enabled() {
		return nil
	}
	return l.client.Ping(ctx).Err()
}

// scopeOf keeps metric cardinality low: only the key prefix is a label.
func scopeOf(ident string) string {
	for i := 0; i < len(ident); i++ {
		if ident[i] == ':' {
			return ident[:i]
		}
	}
	return ident
}

// RedisRateLimit limits requests per client IP.
func RedisRateLimit(l *Limiter, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Enabled() {
			// fallback to allowing requests if Redis not configured
			c.Next()
			return
		}

		ok, err := l.Allow(c.Request.Context(), "ip:"+c.ClientIP(), maxRequests, window)
		if err != nil {
			// on Redis error, fail-open (allow) but set header
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			return
		}
		c.Next()
	}
}
