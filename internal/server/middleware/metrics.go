package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// RequestRecorder receives one observation per handled HTTP request.
type RequestRecorder interface {
	RecordRequest(method, route string, status int, duration time.Duration)
}

// Metrics returns an HTTP middleware that records request counts and
// latency per route pattern. Patterns are read from the chi route context
// after routing, so path parameters do not explode the label space.
func Metrics(rec RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			rec.RecordRequest(r.Method, route, ww.status, time.Since(start))
		})
	}
}
