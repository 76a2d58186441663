package mw

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"
)

// panicWithStack captures a panic value along with its stack trace.
type panicWithStack struct {
	value interface{}
	stack []byte
}

// TimeoutConfig defines timeout behavior for different path patterns.
type TimeoutConfig struct {
	// Default timeout for most endpoints
	Default time.Duration
	// Extended timeout for endpoints that hit upstream platforms
	Extended time.Duration
	// Patterns that get the extended timeout (e.g. "/resolve")
	ExtendedPatterns []string
}

// Timeout returns a middleware that applies configurable timeouts to
// requests. Paths matching ExtendedPatterns get the Extended timeout; all
// other paths get the Default timeout.
func Timeout(cfg TimeoutConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			timeout := cfg.Default
			for _, pattern := range cfg.ExtendedPatterns {
				if strings.Contains(r.URL.Path, pattern) {
					timeout = cfg.Extended
					break
				}
			}

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			done := make(chan struct{})
			panicChan := make(chan *panicWithStack, 1)

			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicChan <- &panicWithStack{
							value: p,
							stack: debug.Stack(),
						}
					}
				}()
				next.ServeHTTP(w, r.WithContext(ctx))
				close(done)
			}()

			select {
			case <-done:
				return
			case p := <-panicChan:
				// Re-panic so the outer recoverer reports the original site
				panic(fmt.Sprintf("%v\n\nOriginal stack trace:\n%s", p.value, p.stack))
			case <-ctx.Done():
				if ctx.Err() == context.DeadlineExceeded {
					w.WriteHeader(http.StatusGatewayTimeout)
					return
				}
			}
		})
	}
}
