package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/risunCode/downaria/internal/models"
	"github.com/risunCode/downaria/internal/platform"
)

// SQLiteCacheRepository implements CacheRepository for SQLite/libsql.
type SQLiteCacheRepository struct {
	db *sql.DB
}

// NewSQLiteCacheRepository creates a new SQLite cache repository.
func NewSQLiteCacheRepository(db *sql.DB) *SQLiteCacheRepository {
	return &SQLiteCacheRepository{db: db}
}

// Get retrieves the entry for (platform, canonical URL). Returns nil on miss.
func (r *SQLiteCacheRepository) Get(ctx context.Context, p platform.Platform, canonicalURL string) (*models.CacheEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, platform, canonical_url, result_json, used_cookie, created_at
		FROM cache_entries
		WHERE platform = ? AND canonical_url = ?
	`, p, canonicalURL)

	var entry models.CacheEntry
	var createdAt string

	err := row.Scan(&entry.ID, &entry.Platform, &entry.CanonicalURL, &entry.ResultJSON, &entry.UsedCookie, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan cache entry: %w", err)
	}

	entry.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &entry, nil
}

// Upsert stores an extraction result, replacing any previous entry for the
// same (platform, canonical URL). created_at restarts the TTL on replace.
func (r *SQLiteCacheRepository) Upsert(ctx context.Context, entry *models.CacheEntry) error {
	now := time.Now().UTC()

	if entry.ID == "" {
		entry.ID = ulid.Make().String()
	}
	entry.CreatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cache_entries (id, platform, canonical_url, result_json, used_cookie, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(platform, canonical_url) DO UPDATE SET
			result_json = excluded.result_json,
			used_cookie = excluded.used_cookie,
			created_at = excluded.created_at
	`, entry.ID, entry.Platform, entry.CanonicalURL, entry.ResultJSON, entry.UsedCookie, now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}

	return nil
}

// DeleteExpired removes entries created before the given time.
func (r *SQLiteCacheRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM cache_entries WHERE created_at < ?
	`, before.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}

	return result.RowsAffected()
}

// Clear removes all cache entries and returns the number removed.
func (r *SQLiteCacheRepository) Clear(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cache_entries`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}

	return result.RowsAffected()
}
