package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/citypulse/trafficguide/internal/ratelimit"
)

// RedisRateLimiter uses a Redis-backed manager keyed by client IP; if the
// manager is nil it no-ops and calls next
func RedisRateLimiter(m *ratelimit.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}

			client := clientIP(r)
			method, path := r.Method, r.URL.Path

			allowed, reset, err := m.CheckRate(r.Context(), client, method, path)
			if err == nil && !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(reset))
				write429(w)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.Limit()))

			next.ServeHTTP(w, r)

			// Best-effort usage accounting after the request was served.
			_ = m.IncUsage(r.Context(), client, method, path, time.Now().UTC())
		})
	}
}
