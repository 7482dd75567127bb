package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit returns an HTTP middleware that limits requests per IP address
// to the specified number per minute. Uses a sliding window algorithm.
// Applied to the login endpoint to slow down credential guessing.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.LimitByIP(requestsPerMinute, time.Minute)
}
