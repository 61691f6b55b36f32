package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/academie/admission-backend/internal/config"
	"github.com/academie/admission-backend/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RateLimiter is a fixed-window limiter backed by Redis so that every
// server instance shares the same counters.
type RateLimiter struct {
	rdb      *redis.Client
	limit    int
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewRateLimiter creates a RateLimiter allowing limit requests per interval.
func NewRateLimiter(rdb *redis.Client, limit int, interval time.Duration, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		rdb:      rdb,
		limit:    limit,
		interval: interval,
		now:      time.Now,
		log:      log.With().Str("component", "ratelimit").Logger(),
	}
}

// Middleware rate-limits by principal, falling back to client IP.
// Redis failures let the request through.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		subject := c.ClientIP()
		if p := GetPrincipal(c); p != nil {
			subject = p.ID.String()
		}

		window := rl.now().UnixNano() / int64(rl.interval)
		key := config.CacheKey.AutosaveRateKey(subject, window)

		ctx := c.Request.Context()
		pipe := rl.rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, rl.interval)
		if _, err := pipe.Exec(ctx); err != nil {
			rl.log.Warn().Err(err).Str("subject", subject).Msg("Rate limit counter unavailable")
			c.Next()
			return
		}

		count := incr.Val()
		remaining := int64(rl.limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(rl.limit) {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}
