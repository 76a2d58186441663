// Package extractor implements the per-platform media extractors. Each
// extractor fetches one or more upstream resources and normalizes whatever
// media it finds into the common format list. Extraction failures are
// values, not panics: malformed upstream payloads come back as typed errors.
package extractor

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/risunCode/downaria/internal/fetch"
	"github.com/risunCode/downaria/internal/models"
	"github.com/risunCode/downaria/internal/platform"
)

// Options carries the per-request identity for an extraction attempt.
type Options struct {
	// Headers is the fingerprint header bundle.
	Headers map[string][]string
	// Cookie is the decrypted credential; empty means anonymous.
	Cookie string
}

// Error is a classified extraction failure.
type Error struct {
	Kind    models.ErrorKind
	Message string
	// AuthRejected marks upstream 401/403 responses so the orchestrator
	// can expire the cookie that earned them.
	AuthRejected bool
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind models.ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// classify maps a fetch error onto the failure taxonomy.
func classify(err error) *Error {
	if se, ok := fetch.AsStatusError(err); ok {
		switch {
		case se.NotFound():
			return newError(models.ErrNotFound, "content not found")
		case se.AuthRejected():
			return &Error{Kind: models.ErrUpstreamRejected, Message: se.Error(), AuthRejected: true}
		default:
			return newError(models.ErrUpstreamRejected, se.Error())
		}
	}
	return newError(models.ErrNetwork, err.Error())
}

// Extractor resolves media for exactly one platform.
type Extractor interface {
	Platform() platform.Platform
	// RequiresCookie reports whether the platform refuses anonymous
	// access entirely, skipping the no-cookie attempt.
	RequiresCookie() bool
	Extract(ctx context.Context, url string, opts Options) (*models.MediaData, *Error)
}

// Registry holds the closed extractor set.
type Registry struct {
	byPlatform map[platform.Platform]Extractor
}

// NewRegistry builds the extractor set over a shared fetch client.
func NewRegistry(client *fetch.Client) *Registry {
	return NewRegistryWith(
		newTikTok(client),
		newDouyin(client),
		newInstagram(client),
		newFacebook(client),
		newTwitter(client),
		newWeibo(client),
	)
}

// NewRegistryWith builds a registry from an explicit extractor set.
// Primarily for tests that substitute upstream behavior.
func NewRegistryWith(extractors ...Extractor) *Registry {
	byPlatform := make(map[platform.Platform]Extractor, len(extractors))
	for _, e := range extractors {
		byPlatform[e.Platform()] = e
	}
	return &Registry{byPlatform: byPlatform}
}

// ForPlatform returns the extractor for a platform, or nil when unsupported.
func (r *Registry) ForPlatform(p platform.Platform) Extractor {
	return r.byPlatform[p]
}

// scriptJSON pulls the body of the script tag carrying the given marker.
// Scoping to the marked block keeps the patterns from matching unrelated
// embedded content elsewhere on the page.
func scriptJSON(html, marker string) (string, bool) {
	i := strings.Index(html, marker)
	if i < 0 {
		return "", false
	}
	rest := html[i:]
	start := strings.Index(rest, ">")
	end := strings.Index(rest, "</script>")
	if start < 0 || end < 0 || end <= start {
		return "", false
	}
	return rest[start+1 : end], true
}

// decodeJSONString decodes a JSON-escaped string fragment (\/ and \uXXXX
// sequences) as found inside regex captures from server-rendered markup.
func decodeJSONString(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}

// dedupeFormats drops formats whose resolved URL was already seen,
// keeping first occurrence order.
func dedupeFormats(formats []models.MediaFormat) []models.MediaFormat {
	seen := make(map[string]bool, len(formats))
	out := formats[:0]
	for _, f := range formats {
		if f.URL == "" || seen[f.URL] {
			continue
		}
		seen[f.URL] = true
		out = append(out, f)
	}
	return out
}
