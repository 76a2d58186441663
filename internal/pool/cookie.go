// Package pool implements the selection policies for the cookie and
// fingerprint pools. Selection is a pure function over a snapshot of pool
// entries; persistence of the outcome is the caller's job, so the policies
// stay trivially testable.
package pool

import (
	"time"

	"github.com/risunCode/downaria/internal/models"
)

// SelectCookie picks the next cookie from a snapshot: only selectable
// entries qualify (enabled, healthy or cooldown-elapsed, hour budget left),
// and among those the least recently used wins. Never-used entries sort
// before used ones. Returns nil when the pool is exhausted.
func SelectCookie(entries []*models.CookieEntry, now time.Time) *models.CookieEntry {
	var best *models.CookieEntry

	for _, entry := range entries {
		if !entry.Selectable(now) {
			continue
		}
		if best == nil || lessRecentlyUsed(entry, best) {
			best = entry
		}
	}

	return best
}

func lessRecentlyUsed(a, b *models.CookieEntry) bool {
	switch {
	case a.LastUsedAt == nil && b.LastUsedAt == nil:
		return a.CreatedAt.Before(b.CreatedAt)
	case a.LastUsedAt == nil:
		return true
	case b.LastUsedAt == nil:
		return false
	default:
		return a.LastUsedAt.Before(*b.LastUsedAt)
	}
}

// CookiePolicy holds the failure-handling thresholds for the cookie pool.
type CookiePolicy struct {
	// CooldownAfter is the consecutive error count that triggers a cooldown.
	CooldownAfter int
	// CooldownPeriod is how long a cooldown lasts.
	CooldownPeriod time.Duration
	// ExpireAfter is the consecutive error count that marks a cookie expired.
	ExpireAfter int
}

// OnFailure decides the status transition after a failed use. authRejected
// marks upstream auth rejections (401/403), which expire the cookie
// immediately regardless of the streak. Returns the target status and, for
// cooldown, its expiry; status "" means no transition.
func (p CookiePolicy) OnFailure(consecutive int, authRejected bool, now time.Time) (models.CookieStatus, *time.Time) {
	if authRejected {
		return models.CookieStatusExpired, nil
	}
	if p.ExpireAfter > 0 && consecutive >= p.ExpireAfter {
		return models.CookieStatusExpired, nil
	}
	if p.CooldownAfter > 0 && consecutive >= p.CooldownAfter {
		until := now.Add(p.CooldownPeriod)
		return models.CookieStatusCooldown, &until
	}
	return "", nil
}
