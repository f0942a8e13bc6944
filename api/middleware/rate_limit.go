package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jes-wd/freya-sync/api/responses"
	pkgerrors "github.com/jes-wd/freya-sync/pkg/errors"
	"github.com/jes-wd/freya-sync/pkg/logger"
)

// windowLimiter counts events in fixed windows, usually backed by redis.
type windowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit caps requests per caller IP inside a fixed window. Limiter
// errors fail open: a redis outage must not drop webhook deliveries.
func RateLimit(scope string, limit int64, window time.Duration, limiter windowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			allowed, count, err := limiter.FixedWindowAllow(r.Context(), scope+":"+clientIP(r), limit, window)
			if err != nil {
				if logg != nil {
					logg.Error(r.Context(), "rate limit check failed, allowing request", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithField(ctx, "count", count)
					logg.Warn(ctx, "rate limit exceeded")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
