package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/beanbook/beanbook/internal/auth"
	"github.com/beanbook/beanbook/internal/cache"
)

// RateLimiter consumes tokens from per-user and per-IP buckets.
type RateLimiter interface {
	CheckUserRateLimit(ctx context.Context, userID string, limit cache.RateLimit) *cache.RateLimitResult
	CheckIPRateLimit(ctx context.Context, ip string, limit cache.RateLimit) *cache.RateLimitResult
}

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter RateLimiter
	Enabled bool
	User    cache.RateLimit
	IP      cache.RateLimit
}

// RateLimitUser limits signed-in requests per user.
// It must run after RequireSession; requests without a session pass through.
func RateLimitUser(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := auth.UserIDFromContext(r.Context())
			if !cfg.Enabled || userID == "" || cfg.User.Unlimited() {
				next.ServeHTTP(w, r)
				return
			}

			result := cfg.Limiter.CheckUserRateLimit(r.Context(), userID, cfg.User)
			if !allow(w, r, cfg, result, cfg.User, "user", slog.String("user_id", userID)) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitIP limits anonymous requests such as sign-in per client IP.
func RateLimitIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || cfg.IP.Unlimited() {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			result := cfg.Limiter.CheckIPRateLimit(r.Context(), ip, cfg.IP)
			if !allow(w, r, cfg, result, cfg.IP, "ip", slog.String("ip", ip)) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// allow sets the rate limit headers and writes a 429 when the bucket is empty.
func allow(w http.ResponseWriter, r *http.Request, cfg RateLimitConfig, result *cache.RateLimitResult, limit cache.RateLimit, kind string, subject slog.Attr) bool {
	setRateLimitHeaders(w, limit.Burst, result.Remaining, result.ResetAt)
	if result.Allowed {
		return true
	}

	retryAfter := int(result.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	cfg.Logger.Warn("rate limit exceeded",
		subject,
		slog.String("type", kind),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.Int("retry_after_seconds", retryAfter),
		slog.String("request_id", GetRequestID(r.Context())),
	)

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	writeError(w, http.StatusTooManyRequests, "RATE_LIMITED",
		fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", retryAfter))
	return false
}

// setRateLimitHeaders sets standard rate limit response headers.
func setRateLimitHeaders(w http.ResponseWriter, limit int, remaining int64, resetAt time.Time) {
	if limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
	}
}

// clientIP returns the host part of RemoteAddr. chi's RealIP runs earlier
// and has already applied X-Forwarded-For / X-Real-IP.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
