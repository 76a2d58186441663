// Package platform classifies source URLs into supported platforms and
// canonicalizes them for cache keying. Detection is pure string matching
// against hostnames and path shapes; it never performs network I/O.
package platform

import (
	"net/url"
	"strings"
)

// Platform identifies a supported media source.
type Platform string

const (
	TikTok    Platform = "tiktok"
	Douyin    Platform = "douyin"
	Instagram Platform = "instagram"
	Facebook  Platform = "facebook"
	Twitter   Platform = "twitter"
	Weibo     Platform = "weibo"

	// None is returned for URLs matching no supported platform.
	None Platform = ""
)

// All lists every supported platform in detection priority order.
// The order is part of the contract: when host patterns could ever be
// ambiguous, the first matching rule wins.
func All() []Platform {
	return []Platform{TikTok, Douyin, Instagram, Facebook, Twitter, Weibo}
}

// Display returns the platform's human-readable name for error messages.
func (p Platform) Display() string {
	switch p {
	case TikTok:
		return "TikTok"
	case Douyin:
		return "Douyin"
	case Instagram:
		return "Instagram"
	case Facebook:
		return "Facebook"
	case Twitter:
		return "Twitter"
	case Weibo:
		return "Weibo"
	}
	return string(p)
}

// Valid reports whether p names a supported platform.
func (p Platform) Valid() bool {
	switch p {
	case TikTok, Douyin, Instagram, Facebook, Twitter, Weibo:
		return true
	}
	return false
}

// hostRule maps hostname suffixes to a platform. Matching is on the
// registrable host or any subdomain of it.
type hostRule struct {
	platform Platform
	hosts    []string
}

// Rules are ordered: douyin before tiktok is irrelevant for hosts (they do
// not overlap) but the slice order documents the fixed priority anyway.
var hostRules = []hostRule{
	{TikTok, []string{"tiktok.com", "vt.tiktok.com", "vm.tiktok.com"}},
	{Douyin, []string{"douyin.com", "iesdouyin.com", "v.douyin.com"}},
	{Instagram, []string{"instagram.com", "instagr.am"}},
	{Facebook, []string{"facebook.com", "fb.watch", "fb.com", "m.facebook.com"}},
	{Twitter, []string{"twitter.com", "x.com", "t.co", "twimg.com"}},
	{Weibo, []string{"weibo.com", "weibo.cn", "m.weibo.cn"}},
}

// Detect classifies a raw URL string into a Platform.
// Unknown or unparseable input yields None; it never errors.
func Detect(raw string) Platform {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		// Tolerate scheme-less input like "www.tiktok.com/@user/video/1"
		u, err = url.Parse("https://" + strings.TrimSpace(raw))
		if err != nil || u.Host == "" {
			return None
		}
	}

	host := strings.ToLower(u.Hostname())
	for _, rule := range hostRules {
		for _, h := range rule.hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return rule.platform
			}
		}
	}
	return None
}

// trackingParams are query parameters stripped during canonicalization.
// They identify share channels, not content.
var trackingParams = map[string]bool{
	"utm_source": true, "utm_medium": true, "utm_campaign": true,
	"utm_term": true, "utm_content": true,
	"fbclid": true, "gclid": true,
	"igsh": true, "igshid": true, "ig_rid": true,
	"share_id": true, "share_token": true, "share_app_id": true,
	"sender_device": true, "web_id": true,
	"is_from_webapp": true, "is_copy_url": true,
	"s": true, "t": true, "mibextid": true, "rdid": true,
}

// Canonicalize normalizes a URL so equivalent share links map to one cache
// key: lowercase scheme/host, tracking params stripped, fragment dropped,
// trailing slash removed. It is idempotent.
func Canonicalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" {
		u, err = url.Parse("https://" + strings.TrimSpace(raw))
		if err != nil {
			return "", err
		}
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for param := range q {
		if trackingParams[strings.ToLower(param)] {
			q.Del(param)
		}
	}
	u.RawQuery = q.Encode()

	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String(), nil
}
