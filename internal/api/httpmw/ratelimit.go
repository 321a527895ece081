package httpmw

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/BearBump/RetailDesk/internal/cache"
	"github.com/BearBump/RetailDesk/internal/metrics"
	"go.uber.org/zap"
)

// RateLimit applies a per-client fixed-window limit. Limiter errors let the
// request through. Forwarding headers pick the client only when trustProxy is
// set; otherwise the connection address is the key.
func RateLimit(l cache.RateLimiter, m *metrics.Metrics, log *zap.Logger, trustProxy bool) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r, trustProxy)
			d, err := l.Allow(r.Context(), ip)
			if err != nil {
				log.Warn("rate limiter unavailable", zap.String("ip", ip), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if d.Limited {
				m.ObserveRateLimited()
				w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfterSeconds()))
				WriteError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the connection address. With trustProxy it prefers the
// first X-Forwarded-For hop, then X-Real-IP; only enable that behind a proxy
// which overwrites those headers.
func ClientIP(r *http.Request, trustProxy bool) string {
	if !trustProxy {
		return remoteHost(r)
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
