package auth

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httperrors "github.com/mtsferreira/anatomy-game/pkg/http/errors"
)

// RateLimiter applies a fixed-window per-IP limit backed by Redis.
// A nil or unreachable Redis fails open.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	prefix string
	logger zerolog.Logger
}

// NewRateLimiter builds a limiter allowing limit requests per window.
func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration, prefix string, logger zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		redis:  rdb,
		limit:  limit,
		window: window,
		prefix: prefix,
		logger: logger.With().Str("component", "ratelimit").Logger(),
	}
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.redis == nil || rl.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		key := fmt.Sprintf("%s:%s:%d", rl.prefix, ip, time.Now().Unix()/int64(rl.window.Seconds()))

		ctx := r.Context()
		count, err := rl.redis.Incr(ctx, key).Result()
		if err != nil {
			rl.logger.Warn().Err(err).Msg("rate limit check failed, allowing request")
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			rl.redis.Expire(ctx, key, rl.window)
		}
		if count > int64(rl.limit) {
			httperrors.RespondTooManyRequests(w, "too many requests, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
