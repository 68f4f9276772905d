package ratelimit

import (
	"net"
	"net/http"
	"strconv"

	"github.com/safecollab/safecollab/internal/respond"
)

// ClientIP returns the host part of r.RemoteAddr. Proxy headers are only
// honoured when chi's RealIP middleware ran first.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware limits requests per client IP. Rejected requests get 429 with a
// Retry-After header, and every onReject hook is called.
func Middleware(limiter *Limiter, onReject ...func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))

			if !limiter.Allow(ClientIP(r)) {
				for _, fn := range onReject {
					fn()
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(limiter.RetryAfter().Seconds())))
				respond.ErrorMessage(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
