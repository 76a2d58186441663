package mw

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimitByIP returns a middleware that rate limits by client IP.
// Applied to the public resolve endpoint; the management surface is
// key-gated and not limited here.
func RateLimitByIP(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.LimitByIP(requestsPerMinute, time.Minute)
}

// RateLimitGlobal applies a single shared limit across all clients to
// protect the process as a whole.
func RateLimitGlobal(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return "global", nil
		}),
	)
}
