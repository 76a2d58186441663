package pool

import (
	"testing"
	"time"

	"github.com/risunCode/downaria/internal/models"
)

func cookieAt(id string, lastUsed *time.Time) *models.CookieEntry {
	return &models.CookieEntry{
		ID:         id,
		Status:     models.CookieStatusHealthy,
		Enabled:    true,
		LastUsedAt: lastUsed,
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSelectCookie_LeastRecentlyUsed(t *testing.T) {
	now := time.Now()
	old := now.Add(-2 * time.Hour)
	recent := now.Add(-5 * time.Minute)

	entries := []*models.CookieEntry{
		cookieAt("recent", &recent),
		cookieAt("old", &old),
	}

	got := SelectCookie(entries, now)
	if got == nil || got.ID != "old" {
		t.Fatalf("got %v, want the least recently used entry", got)
	}
}

func TestSelectCookie_NeverUsedFirst(t *testing.T) {
	now := time.Now()
	used := now.Add(-time.Hour)

	entries := []*models.CookieEntry{
		cookieAt("used", &used),
		cookieAt("fresh", nil),
	}

	got := SelectCookie(entries, now)
	if got == nil || got.ID != "fresh" {
		t.Fatalf("got %v, want the never-used entry", got)
	}
}

func TestSelectCookie_SkipsUnselectable(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	windowStart := now.Add(-10 * time.Minute)

	disabled := cookieAt("disabled", nil)
	disabled.Enabled = false

	expired := cookieAt("expired", nil)
	expired.Status = models.CookieStatusExpired

	cooling := cookieAt("cooling", nil)
	cooling.Status = models.CookieStatusCooldown
	cooling.CooldownUntil = &future

	throttled := cookieAt("throttled", nil)
	throttled.MaxUsesPerHour = 5
	throttled.HourWindowStart = &windowStart
	throttled.HourUseCount = 5

	entries := []*models.CookieEntry{disabled, expired, cooling, throttled}
	if got := SelectCookie(entries, now); got != nil {
		t.Fatalf("got %q, want nil for an exhausted pool", got.ID)
	}

	// Hour budget frees up once the window rolls.
	staleWindow := now.Add(-90 * time.Minute)
	throttled.HourWindowStart = &staleWindow
	got := SelectCookie(entries, now)
	if got == nil || got.ID != "throttled" {
		t.Fatalf("got %v, want the entry whose window rolled over", got)
	}
}

func TestSelectCookie_CooldownElapsed(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)

	cooled := cookieAt("cooled", nil)
	cooled.Status = models.CookieStatusCooldown
	cooled.CooldownUntil = &past

	got := SelectCookie([]*models.CookieEntry{cooled}, now)
	if got == nil || got.ID != "cooled" {
		t.Fatalf("got %v, want the cooldown-elapsed entry", got)
	}
}

func TestSelectCookie_Empty(t *testing.T) {
	if got := SelectCookie(nil, time.Now()); got != nil {
		t.Fatalf("got %v, want nil for an empty pool", got)
	}
}

func TestCookiePolicy_OnFailure(t *testing.T) {
	policy := CookiePolicy{CooldownAfter: 3, CooldownPeriod: 30 * time.Minute, ExpireAfter: 10}
	now := time.Now()

	status, until := policy.OnFailure(1, false, now)
	if status != "" {
		t.Errorf("status = %q, want no transition below the threshold", status)
	}

	status, until = policy.OnFailure(3, false, now)
	if status != models.CookieStatusCooldown {
		t.Errorf("status = %q, want cooldown at the threshold", status)
	}
	if until == nil || !until.Equal(now.Add(30*time.Minute)) {
		t.Errorf("until = %v, want now plus the cooldown period", until)
	}

	status, _ = policy.OnFailure(10, false, now)
	if status != models.CookieStatusExpired {
		t.Errorf("status = %q, want expired at the expire threshold", status)
	}

	// Auth rejection expires immediately, streak irrelevant.
	status, _ = policy.OnFailure(1, true, now)
	if status != models.CookieStatusExpired {
		t.Errorf("status = %q, want expired on auth rejection", status)
	}
}
