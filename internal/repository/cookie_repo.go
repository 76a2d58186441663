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

const cookieColumns = `id, platform, value_encrypted, value_preview, label, note, status, is_enabled,
	use_count, success_count, error_count, consecutive_errors,
	last_used_at, last_error, cooldown_until,
	max_uses_per_hour, hour_window_start, hour_use_count,
	created_at, updated_at`

// SQLiteCookieRepository implements CookieRepository for SQLite/libsql.
type SQLiteCookieRepository struct {
	db *sql.DB
}

// NewSQLiteCookieRepository creates a new SQLite cookie repository.
func NewSQLiteCookieRepository(db *sql.DB) *SQLiteCookieRepository {
	return &SQLiteCookieRepository{db: db}
}

// Create inserts a new cookie entry.
func (r *SQLiteCookieRepository) Create(ctx context.Context, entry *models.CookieEntry) error {
	now := time.Now().UTC()

	if entry.ID == "" {
		entry.ID = ulid.Make().String()
	}
	if entry.Status == "" {
		entry.Status = models.CookieStatusHealthy
	}
	entry.CreatedAt = now
	entry.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cookies (id, platform, value_encrypted, value_preview, label, note, status, is_enabled,
			max_uses_per_hour, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Platform, entry.ValueEncrypted, entry.ValuePreview, nullString(entry.Label), nullString(entry.Note),
		entry.Status, entry.Enabled, entry.MaxUsesPerHour,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create cookie: %w", err)
	}

	return nil
}

// GetByID retrieves a cookie entry by ID. Returns nil when not found.
func (r *SQLiteCookieRepository) GetByID(ctx context.Context, id string) (*models.CookieEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+cookieColumns+`
		FROM cookies
		WHERE id = ?
	`, id)

	return r.scanCookie(row)
}

// List retrieves all cookie entries.
func (r *SQLiteCookieRepository) List(ctx context.Context) ([]*models.CookieEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+cookieColumns+`
		FROM cookies
		ORDER BY platform, created_at
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return r.scanCookies(rows)
}

// ListByPlatform retrieves all cookie entries for a platform.
func (r *SQLiteCookieRepository) ListByPlatform(ctx context.Context, p platform.Platform) ([]*models.CookieEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+cookieColumns+`
		FROM cookies
		WHERE platform = ?
		ORDER BY created_at
	`, p)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return r.scanCookies(rows)
}

// Update persists mutable fields of a cookie entry.
func (r *SQLiteCookieRepository) Update(ctx context.Context, entry *models.CookieEntry) error {
	now := time.Now().UTC()
	entry.UpdatedAt = now

	result, err := r.db.ExecContext(ctx, `
		UPDATE cookies
		SET value_encrypted = ?, value_preview = ?, label = ?, note = ?, is_enabled = ?, max_uses_per_hour = ?, updated_at = ?
		WHERE id = ?
	`, entry.ValueEncrypted, entry.ValuePreview, nullString(entry.Label), nullString(entry.Note),
		entry.Enabled, entry.MaxUsesPerHour, now.Format(time.RFC3339), entry.ID)
	if err != nil {
		return fmt.Errorf("failed to update cookie: %w", err)
	}

	return requireRowAffected(result, "cookie")
}

// Delete removes a cookie entry by ID.
func (r *SQLiteCookieRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cookies WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(result, "cookie")
}

// RecordUse bumps use_count, stamps last_used_at and maintains the
// rolling-hour window in a single statement. The window resets when the
// previous window start is more than an hour old or unset.
func (r *SQLiteCookieRepository) RecordUse(ctx context.Context, id string, now time.Time) error {
	nowStr := now.UTC().Format(time.RFC3339)
	windowFloor := now.UTC().Add(-time.Hour).Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx, `
		UPDATE cookies
		SET use_count = use_count + 1,
			last_used_at = ?,
			hour_use_count = CASE
				WHEN hour_window_start IS NULL OR hour_window_start < ? THEN 1
				ELSE hour_use_count + 1
			END,
			hour_window_start = CASE
				WHEN hour_window_start IS NULL OR hour_window_start < ? THEN ?
				ELSE hour_window_start
			END,
			updated_at = ?
		WHERE id = ?
	`, nowStr, windowFloor, windowFloor, nowStr, nowStr, id)
	if err != nil {
		return fmt.Errorf("failed to record cookie use: %w", err)
	}

	return requireRowAffected(result, "cookie")
}

// RecordSuccess bumps success_count, clears the consecutive error streak
// and lifts any cooldown.
func (r *SQLiteCookieRepository) RecordSuccess(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx, `
		UPDATE cookies
		SET success_count = success_count + 1,
			consecutive_errors = 0,
			last_error = NULL,
			cooldown_until = NULL,
			status = CASE WHEN status = 'cooldown' THEN 'healthy' ELSE status END,
			updated_at = ?
		WHERE id = ?
	`, now, id)
	if err != nil {
		return fmt.Errorf("failed to record cookie success: %w", err)
	}

	return requireRowAffected(result, "cookie")
}

// RecordFailure bumps error_count and consecutive_errors and stores the
// error text, then returns the new consecutive error count.
func (r *SQLiteCookieRepository) RecordFailure(ctx context.Context, id string, lastError string) (int, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx, `
		UPDATE cookies
		SET error_count = error_count + 1,
			consecutive_errors = consecutive_errors + 1,
			last_error = ?,
			updated_at = ?
		WHERE id = ?
	`, nullString(lastError), now, id)
	if err != nil {
		return 0, fmt.Errorf("failed to record cookie failure: %w", err)
	}
	if err := requireRowAffected(result, "cookie"); err != nil {
		return 0, err
	}

	var consecutive int
	err = r.db.QueryRowContext(ctx, `SELECT consecutive_errors FROM cookies WHERE id = ?`, id).Scan(&consecutive)
	if err != nil {
		return 0, fmt.Errorf("failed to read consecutive errors: %w", err)
	}

	return consecutive, nil
}

// SetStatus moves an entry to the given status. cooldownUntil is stored for
// the cooldown status and cleared otherwise.
func (r *SQLiteCookieRepository) SetStatus(ctx context.Context, id string, status models.CookieStatus, cooldownUntil *time.Time) error {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx, `
		UPDATE cookies
		SET status = ?, cooldown_until = ?, updated_at = ?
		WHERE id = ?
	`, status, nullTime(cooldownUntil), now, id)
	if err != nil {
		return fmt.Errorf("failed to set cookie status: %w", err)
	}

	return requireRowAffected(result, "cookie")
}

// ResetStatus is the explicit operator reset: healthy, streak cleared,
// cooldown lifted. Usage totals are kept.
func (r *SQLiteCookieRepository) ResetStatus(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx, `
		UPDATE cookies
		SET status = 'healthy',
			consecutive_errors = 0,
			last_error = NULL,
			cooldown_until = NULL,
			updated_at = ?
		WHERE id = ?
	`, now, id)
	if err != nil {
		return fmt.Errorf("failed to reset cookie status: %w", err)
	}

	return requireRowAffected(result, "cookie")
}

// SetLastError records probe feedback without touching usage counters.
func (r *SQLiteCookieRepository) SetLastError(ctx context.Context, id string, lastError string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx, `
		UPDATE cookies SET last_error = ?, updated_at = ? WHERE id = ?
	`, nullString(lastError), now, id)
	if err != nil {
		return fmt.Errorf("failed to set cookie last error: %w", err)
	}

	return requireRowAffected(result, "cookie")
}

// ListCooldownElapsed retrieves enabled cooldown entries whose expiry has passed.
func (r *SQLiteCookieRepository) ListCooldownElapsed(ctx context.Context, now time.Time) ([]*models.CookieEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+cookieColumns+`
		FROM cookies
		WHERE status = 'cooldown' AND is_enabled = 1
			AND cooldown_until IS NOT NULL AND cooldown_until <= ?
		ORDER BY cooldown_until
	`, now.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return r.scanCookies(rows)
}

// scanCookie scans a single row into a CookieEntry.
func (r *SQLiteCookieRepository) scanCookie(row *sql.Row) (*models.CookieEntry, error) {
	var entry models.CookieEntry
	var createdAt, updatedAt string
	var label, note, lastError sql.NullString
	var lastUsedAt, cooldownUntil, hourWindowStart sql.NullString

	err := row.Scan(
		&entry.ID, &entry.Platform, &entry.ValueEncrypted, &entry.ValuePreview, &label, &note,
		&entry.Status, &entry.Enabled,
		&entry.UseCount, &entry.SuccessCount, &entry.ErrorCount, &entry.ConsecutiveErrors,
		&lastUsedAt, &lastError, &cooldownUntil,
		&entry.MaxUsesPerHour, &hourWindowStart, &entry.HourUseCount,
		&createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan cookie: %w", err)
	}

	fillCookie(&entry, label, note, lastError, lastUsedAt, cooldownUntil, hourWindowStart, createdAt, updatedAt)
	return &entry, nil
}

// scanCookies scans multiple rows into a CookieEntry slice.
func (r *SQLiteCookieRepository) scanCookies(rows *sql.Rows) ([]*models.CookieEntry, error) {
	var entries []*models.CookieEntry

	for rows.Next() {
		var entry models.CookieEntry
		var createdAt, updatedAt string
		var label, note, lastError sql.NullString
		var lastUsedAt, cooldownUntil, hourWindowStart sql.NullString

		err := rows.Scan(
			&entry.ID, &entry.Platform, &entry.ValueEncrypted, &entry.ValuePreview, &label, &note,
			&entry.Status, &entry.Enabled,
			&entry.UseCount, &entry.SuccessCount, &entry.ErrorCount, &entry.ConsecutiveErrors,
			&lastUsedAt, &lastError, &cooldownUntil,
			&entry.MaxUsesPerHour, &hourWindowStart, &entry.HourUseCount,
			&createdAt, &updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cookie: %w", err)
		}

		fillCookie(&entry, label, note, lastError, lastUsedAt, cooldownUntil, hourWindowStart, createdAt, updatedAt)
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

func fillCookie(entry *models.CookieEntry, label, note, lastError, lastUsedAt, cooldownUntil, hourWindowStart sql.NullString, createdAt, updatedAt string) {
	entry.Label = label.String
	entry.Note = note.String
	entry.LastError = lastError.String
	entry.LastUsedAt = parseTimePtr(lastUsedAt)
	entry.CooldownUntil = parseTimePtr(cooldownUntil)
	entry.HourWindowStart = parseTimePtr(hourWindowStart)
	entry.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	entry.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
}

// Helper functions shared by the SQLite repositories.

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func requireRowAffected(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s not found", what)
	}
	return nil
}
