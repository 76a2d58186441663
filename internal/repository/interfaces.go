// Package repository defines repository interfaces for data access.
// Counter updates (use/success/error) are applied as single-statement
// atomic increments, never read-modify-write in the caller, so concurrent
// selections of the same pool entry cannot lose updates.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/risunCode/downaria/internal/models"
	"github.com/risunCode/downaria/internal/platform"
)

// CookieRepository defines methods for pooled cookie data access.
type CookieRepository interface {
	Create(ctx context.Context, entry *models.CookieEntry) error
	GetByID(ctx context.Context, id string) (*models.CookieEntry, error)
	List(ctx context.Context) ([]*models.CookieEntry, error)
	// ListByPlatform returns all entries for a platform regardless of state;
	// selection policy is applied by the pool over this snapshot.
	ListByPlatform(ctx context.Context, p platform.Platform) ([]*models.CookieEntry, error)
	Update(ctx context.Context, entry *models.CookieEntry) error
	Delete(ctx context.Context, id string) error

	// RecordUse atomically bumps use_count, stamps last_used_at and
	// maintains the rolling-hour window counters.
	RecordUse(ctx context.Context, id string, now time.Time) error
	// RecordSuccess atomically bumps success_count, clears consecutive
	// errors and lifts any cooldown.
	RecordSuccess(ctx context.Context, id string) error
	// RecordFailure atomically bumps error_count and consecutive_errors and
	// stores the error text; returns the new consecutive error count so the
	// caller can apply the backoff policy.
	RecordFailure(ctx context.Context, id string, lastError string) (int, error)
	// SetStatus moves an entry to the given status, with an optional
	// cooldown expiry for CookieStatusCooldown.
	SetStatus(ctx context.Context, id string, status models.CookieStatus, cooldownUntil *time.Time) error
	// ResetStatus is the explicit operator reset back to healthy.
	ResetStatus(ctx context.Context, id string) error
	// SetLastError records probe feedback without touching usage counters.
	SetLastError(ctx context.Context, id string, lastError string) error
	// ListCooldownElapsed returns cooldown entries whose expiry has passed,
	// for the maintenance worker's health probes.
	ListCooldownElapsed(ctx context.Context, now time.Time) ([]*models.CookieEntry, error)
}

// FingerprintRepository defines methods for fingerprint profile data access.
type FingerprintRepository interface {
	Create(ctx context.Context, profile *models.FingerprintProfile) error
	GetByID(ctx context.Context, id string) (*models.FingerprintProfile, error)
	List(ctx context.Context) ([]*models.FingerprintProfile, error)
	// ListForPlatform returns enabled profiles scoped to the platform or to "all".
	ListForPlatform(ctx context.Context, p platform.Platform) ([]*models.FingerprintProfile, error)
	Update(ctx context.Context, profile *models.FingerprintProfile) error
	Delete(ctx context.Context, id string) error
	// RecordOutcome atomically bumps use_count plus success_count or error_count.
	RecordOutcome(ctx context.Context, id string, success bool) error
}

// CacheRepository defines methods for extraction result cache access.
type CacheRepository interface {
	// Get returns the entry for (platform, canonical URL) or nil on miss.
	// TTL is enforced by the caller; expired rows are still returned here.
	Get(ctx context.Context, p platform.Platform, canonicalURL string) (*models.CacheEntry, error)
	Upsert(ctx context.Context, entry *models.CacheEntry) error
	// DeleteExpired removes entries created before the given time.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
	Clear(ctx context.Context) (int64, error)
}

// UsageRepository defines methods for per-platform usage counters.
type UsageRepository interface {
	// IncrementRequest upserts the (platform, date) row and bumps request_count.
	IncrementRequest(ctx context.Context, p platform.Platform, date string) error
	// IncrementOutcome bumps success_count or failure_count for (platform, date).
	IncrementOutcome(ctx context.Context, p platform.Platform, date string, success bool) error
	Summary(ctx context.Context) ([]*models.PlatformUsage, error)
}

// APIKeyRepository defines methods for admin API key data access.
type APIKeyRepository interface {
	Create(ctx context.Context, key *models.APIKey) error
	GetByKeyHash(ctx context.Context, hash string) (*models.APIKey, error)
	List(ctx context.Context) ([]*models.APIKey, error)
	Revoke(ctx context.Context, id string) error
	UpdateLastUsed(ctx context.Context, id string, lastUsed time.Time) error
}

// Repositories holds all repository instances.
type Repositories struct {
	Cookie      CookieRepository
	Fingerprint FingerprintRepository
	Cache       CacheRepository
	Usage       UsageRepository
	APIKey      APIKeyRepository
}

// NewRepositories creates all repository instances.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Cookie:      NewSQLiteCookieRepository(db),
		Fingerprint: NewSQLiteFingerprintRepository(db),
		Cache:       NewSQLiteCacheRepository(db),
		Usage:       NewSQLiteUsageRepository(db),
		APIKey:      NewSQLiteAPIKeyRepository(db),
	}
}
