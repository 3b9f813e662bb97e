package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/redmonkez12/go-contacts-api/internal/httputil"
	"github.com/redmonkez12/go-contacts-api/internal/logging"
)

// Purposes share one limit but are counted separately
const (
	PurposeLogin         = "login"
	PurposePasswordReset = "password_reset"
	PurposeProfile       = "profile"
)

// Limiter is a fixed-window request counter stored in Redis
type Limiter struct {
	client *redis.Client
	logger *logging.Logger
	prefix string
	limit  int
	window time.Duration
}

// NewLimiter allows limit requests per window for every purpose/IP pair
// A non-positive limit disables limiting
func NewLimiter(client *redis.Client, logger *logging.Logger, limit int, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		client: client,
		logger: logger,
		prefix: "ratelimit:",
		limit:  limit,
		window: window,
	}
}

// Allow records one request and reports whether it is within the limit
func (l *Limiter) Allow(ctx context.Context, purpose, ip string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}

	key := l.key(purpose, ip)
	counter, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return true, oops.Code("RATE_LIMIT_INCR_FAILED").With("purpose", purpose).Wrap(err)
	}

	// First hit in the window starts the clock
	if counter == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return true, oops.Code("RATE_LIMIT_EXPIRE_FAILED").With("purpose", purpose).Wrap(err)
		}
	}

	return counter <= int64(l.limit), nil
}

// Middleware rejects requests over the limit with 429
// Redis failures are logged and the request is let through
func (l *Limiter) Middleware(purpose string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)

			allowed, err := l.Allow(r.Context(), purpose, ip)
			if err != nil {
				logging.GetLoggerFromContext(r.Context()).LogError("rate limiter unavailable", err, "purpose", purpose)
			}
			if !allowed {
				logging.GetLoggerFromContext(r.Context()).Warn("rate limit exceeded", "purpose", purpose, "ip", ip)
				w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
				httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (l *Limiter) key(purpose, ip string) string {
	return fmt.Sprintf("%s%s:%s", l.prefix, purpose, ip)
}

// ClientIP extracts the host part of RemoteAddr
// chi's RealIP middleware has already applied X-Forwarded-For and X-Real-IP
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return "unknown"
	}
	return host
}
