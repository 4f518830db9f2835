package middleware

import (
	"net/http"
)

// apiHeaders go on every response. The API only serves JSON, so nothing may
// be framed, embedded or cached by intermediaries.
var apiHeaders = map[string]string{
	"X-Content-Type-Options":  "nosniff",
	"X-Frame-Options":         "DENY",
	"Referrer-Policy":         "no-referrer",
	"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
	"Permissions-Policy":      "geolocation=(), camera=()",
	"Cache-Control":           "no-store",
}

func (mw *Middleware) SecurityHeaders() func(http.Handler) http.Handler {
	hsts := mw.cfg.Server.Environment == "production"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for name, value := range apiHeaders {
				w.Header().Set(name, value)
			}
			if hsts {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// BodyLimit caps request bodies at the configured size. Reading past the cap
// fails with *http.MaxBytesError, which body decoding reports as a 422.
func (mw *Middleware) BodyLimit() func(http.Handler) http.Handler {
	maxBytes := mw.cfg.Server.BodyLimit

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
