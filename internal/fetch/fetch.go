// Package fetch provides the shared HTTP client used for upstream platform
// requests. It carries no cookie jar: credentials are attached per request
// from the pool, never accumulated from upstream responses.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodyBytes caps upstream response bodies. Platform pages and API
// payloads are well under this; anything larger is not worth parsing.
const maxBodyBytes = 10 << 20

const maxRedirects = 10

// StatusError reports a non-2xx upstream response. The body is retained
// (capped) because several platforms put error detail in the payload.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

// AuthRejected reports whether the status indicates a credential rejection.
func (e *StatusError) AuthRejected() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// NotFound reports whether the upstream said the resource does not exist.
func (e *StatusError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone
}

// Client wraps http.Client for upstream platform fetches.
type Client struct {
	http *http.Client
}

// New creates a fetch client with the given per-request timeout.
func New(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
	}
}

// Request describes one upstream fetch.
type Request struct {
	Method string
	URL    string
	// Headers is the fingerprint header bundle plus any extractor extras.
	Headers http.Header
	// Cookie is the decrypted cookie header value; empty means anonymous.
	Cookie string
	Body   io.Reader
}

// Do executes the request and returns the response body. Transport
// failures come back as plain errors; non-2xx responses come back as
// *StatusError so callers can separate network trouble from upstream
// rejection.
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	for key, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if req.Cookie != "" {
		httpReq.Header.Set("Cookie", req.Cookie)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
	}

	return body, nil
}

// Probe issues a lightweight GET used by health checks; only the status
// outcome matters, the body is discarded.
func (c *Client) Probe(ctx context.Context, url string, headers http.Header, cookie string) error {
	_, err := c.Do(ctx, Request{Method: http.MethodGet, URL: url, Headers: headers, Cookie: cookie})
	return err
}

// AsStatusError unwraps a *StatusError from an error chain.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
