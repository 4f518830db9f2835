package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/MonkyMars/gecho"
)

// getClientIP returns the caller address. chi's RealIP has already folded
// X-Forwarded-For and X-Real-IP into RemoteAddr.
func (mw *Middleware) getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// generateRateLimitKey groups requests by scope and the path they hit
func (mw *Middleware) generateRateLimitKey(scope string, r *http.Request) string {
	endpoint := strings.TrimSuffix(r.URL.Path, "/")
	return fmt.Sprintf("%s:%s:%s", scope, r.Method, endpoint)
}

// AuthRateLimit applies the configured auth limit to credential endpoints
func (mw *Middleware) AuthRateLimit() func(http.Handler) http.Handler {
	return mw.RateLimitMiddleware("auth", mw.cfg.RateLimit.AuthLimit, mw.cfg.RateLimit.AuthWindow)
}

// GeneralRateLimit applies the configured general limit to every route
// except health checks and metrics
func (mw *Middleware) GeneralRateLimit() func(http.Handler) http.Handler {
	limited := mw.RateLimitMiddleware("general", mw.cfg.RateLimit.GeneralLimit, mw.cfg.RateLimit.GeneralWindow)
	return func(next http.Handler) http.Handler {
		limitedNext := limited(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}
			limitedNext.ServeHTTP(w, r)
		})
	}
}

// RateLimitMiddleware implements a fixed window counter per client and
// endpoint. It fails open when the cache is unavailable.
func (mw *Middleware) RateLimitMiddleware(scope string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip if rate limiting is disabled
			if !mw.cfg.RateLimit.Enabled || !mw.cacheService.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			clientIP := mw.getClientIP(r)
			endpoint := mw.generateRateLimitKey(scope, r)

			count, err := mw.cacheService.IncrementRateLimit(r.Context(), clientIP, endpoint, window)
			if err != nil {
				// Cache error - log and allow request (fail open)
				mw.logger.Warn("Rate limit cache error, allowing request",
					gecho.Field("error", err),
					gecho.Field("ip", clientIP),
					gecho.Field("endpoint", endpoint),
				)
				next.ServeHTTP(w, r)
				return
			}

			reset := time.Now().Add(window).Unix()
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", reset))

			if count > limit {
				mw.logger.Warn("Rate limit exceeded",
					gecho.Field("ip", clientIP),
					gecho.Field("endpoint", endpoint),
					gecho.Field("count", count),
					gecho.Field("limit", limit),
				)

				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
				gecho.TooManyRequests(w,
					gecho.WithMessage("Too many attempts. Please try again later."),
					gecho.WithData(map[string]any{
						"limit":       limit,
						"retry_after": int(window.Seconds()),
					}),
					gecho.Send(),
				)
				return
			}

			remaining := max(0, limit-count)
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

			// Log if getting close to limit (80% threshold)
			if count > int(float64(limit)*0.8) {
				mw.logger.Debug("Rate limit warning",
					gecho.Field("ip", clientIP),
					gecho.Field("endpoint", endpoint),
					gecho.Field("remaining", remaining),
				)
			}

			next.ServeHTTP(w, r)
		})
	}
}
