// Package models defines the domain models for the application.
package models

import (
	"net/http"
	"time"

	"github.com/risunCode/downaria/internal/platform"
)

// CookieStatus represents the lifecycle state of a pooled cookie.
type CookieStatus string

const (
	CookieStatusHealthy  CookieStatus = "healthy"
	CookieStatusCooldown CookieStatus = "cooldown"
	CookieStatusExpired  CookieStatus = "expired"
	CookieStatusDisabled CookieStatus = "disabled"
)

// CookieEntry represents a pooled credential for a platform.
// The cookie value is stored encrypted and is never serialized; decryption
// happens only on the fetch path and the explicit admin reveal operation.
type CookieEntry struct {
	ID                string            `json:"id"`
	Platform          platform.Platform `json:"platform"`
	ValueEncrypted    string            `json:"-"`
	ValuePreview      string            `json:"-"` // masked prefix, stored so listing never decrypts
	Label             string            `json:"label,omitempty"`
	Note              string            `json:"note,omitempty"`
	Status            CookieStatus      `json:"status"`
	Enabled           bool              `json:"enabled"`
	UseCount          int               `json:"use_count"`
	SuccessCount      int               `json:"success_count"`
	ErrorCount        int               `json:"error_count"`
	ConsecutiveErrors int               `json:"consecutive_errors"`
	LastUsedAt        *time.Time        `json:"last_used_at,omitempty"`
	LastError         string            `json:"last_error,omitempty"`
	CooldownUntil     *time.Time        `json:"cooldown_until,omitempty"`
	MaxUsesPerHour    int               `json:"max_uses_per_hour"` // 0 = unthrottled
	HourWindowStart   *time.Time        `json:"-"`
	HourUseCount      int               `json:"-"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Selectable reports whether the entry may be handed out at the given time:
// enabled, healthy, cooldown elapsed, and rolling-hour budget not exhausted.
func (c *CookieEntry) Selectable(now time.Time) bool {
	if !c.Enabled || c.Status == CookieStatusExpired || c.Status == CookieStatusDisabled {
		return false
	}
	if c.Status == CookieStatusCooldown {
		if c.CooldownUntil == nil || now.Before(*c.CooldownUntil) {
			return false
		}
	}
	if c.MaxUsesPerHour > 0 && c.HourWindowStart != nil {
		windowCurrent := now.Sub(*c.HourWindowStart) < time.Hour
		if windowCurrent && c.HourUseCount >= c.MaxUsesPerHour {
			return false
		}
	}
	return true
}

// DeviceClass describes the device a fingerprint impersonates.
type DeviceClass string

const (
	DeviceDesktop DeviceClass = "desktop"
	DeviceMobile  DeviceClass = "mobile"
)

// FingerprintProfile represents a pooled browser identity.
type FingerprintProfile struct {
	ID             string            `json:"id"`
	Platform       platform.Platform `json:"platform"` // "all" scopes the profile to every platform
	Label          string            `json:"label"`
	UserAgent      string            `json:"user_agent"`
	AcceptLanguage string            `json:"accept_language"`
	SecChUA        string            `json:"sec_ch_ua,omitempty"`
	SecChUAPlatform string           `json:"sec_ch_ua_platform,omitempty"`
	Chromium       bool              `json:"chromium"`
	Browser        string            `json:"browser,omitempty"`
	DeviceClass    DeviceClass       `json:"device_class"`
	OS             string            `json:"os,omitempty"`
	Priority       int               `json:"priority"` // 0-100, higher selected more often
	Enabled        bool              `json:"enabled"`
	UseCount       int               `json:"use_count"`
	SuccessCount   int               `json:"success_count"`
	ErrorCount     int               `json:"error_count"`
	Note           string            `json:"note,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// PlatformAll scopes a fingerprint to every platform.
const PlatformAll platform.Platform = "all"

// Headers builds the request header bundle for this profile.
// sec-ch-ua keys are attached only for Chromium profiles: non-Chromium
// browsers never emit them, and sending them would be a detectable
// inconsistency. sec-ch-ua-mobile always agrees with the device class.
func (f *FingerprintProfile) Headers() http.Header {
	h := http.Header{}
	h.Set("User-Agent", f.UserAgent)
	h.Set("Accept-Language", f.AcceptLanguage)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")

	if f.Chromium {
		if f.SecChUA != "" {
			h.Set("Sec-Ch-Ua", f.SecChUA)
		}
		if f.SecChUAPlatform != "" {
			h.Set("Sec-Ch-Ua-Platform", f.SecChUAPlatform)
		}
		if f.DeviceClass == DeviceMobile {
			h.Set("Sec-Ch-Ua-Mobile", "?1")
		} else {
			h.Set("Sec-Ch-Ua-Mobile", "?0")
		}
	}

	return h
}

// AppliesTo reports whether the profile may be used for the given platform.
func (f *FingerprintProfile) AppliesTo(p platform.Platform) bool {
	return f.Platform == PlatformAll || f.Platform == p
}

// CacheEntry is a TTL-bound memoized extraction result.
type CacheEntry struct {
	ID           string            `json:"id"`
	Platform     platform.Platform `json:"platform"`
	CanonicalURL string            `json:"canonical_url"`
	ResultJSON   string            `json:"result_json"`
	UsedCookie   bool              `json:"used_cookie"`
	CreatedAt    time.Time         `json:"created_at"`
}

// PlatformUsage aggregates per-platform request counters for one day.
type PlatformUsage struct {
	ID           string            `json:"id"`
	Platform     platform.Platform `json:"platform"`
	Date         string            `json:"date"` // YYYY-MM-DD
	RequestCount int               `json:"request_count"`
	SuccessCount int               `json:"success_count"`
	FailureCount int               `json:"failure_count"`
}

// MediaKind classifies a resolved media format.
type MediaKind string

const (
	MediaVideo MediaKind = "video"
	MediaImage MediaKind = "image"
	MediaAudio MediaKind = "audio"
)

// MediaFormat is one downloadable rendition of the resolved media.
type MediaFormat struct {
	URL     string    `json:"url"`
	Quality string    `json:"quality,omitempty"`
	Kind    MediaKind `json:"type"`
}

// MediaData is the payload of a successful extraction.
type MediaData struct {
	Title          string        `json:"title,omitempty"`
	Author         string        `json:"author,omitempty"`
	Thumbnail      string        `json:"thumbnail,omitempty"`
	Formats        []MediaFormat `json:"formats"`
	UsedCookie     bool          `json:"usedCookie"`
	ResponseTimeMs int64         `json:"responseTime"`
}

// ErrorKind classifies resolution failures.
type ErrorKind string

const (
	ErrUnsupportedPlatform ErrorKind = "unsupported_platform"
	ErrCredentialRequired  ErrorKind = "credential_required"
	ErrCredentialExhausted ErrorKind = "credential_exhausted"
	ErrUpstreamRejected    ErrorKind = "upstream_rejected"
	ErrNotFound            ErrorKind = "not_found"
	ErrNetwork             ErrorKind = "network"
	ErrInternal            ErrorKind = "internal"
)

// ExtractionResult is the normalized outcome of a resolution request.
// On success Data is present with a non-empty format list; on failure
// Error carries a human-readable message and Data is absent.
type ExtractionResult struct {
	Success   bool              `json:"success"`
	Platform  platform.Platform `json:"platform,omitempty"`
	Data      *MediaData        `json:"data,omitempty"`
	ErrorKind ErrorKind         `json:"error_kind,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// APIKey represents an admin API key for the management surface.
type APIKey struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	KeyHash    string     `json:"-"`
	KeyPrefix  string     `json:"key_prefix"` // First chars for display
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}
