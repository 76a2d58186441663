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

const fingerprintColumns = `id, platform, label, user_agent, accept_language,
	sec_ch_ua, sec_ch_ua_platform, chromium, browser, device_class, os,
	priority, is_enabled, use_count, success_count, error_count, note,
	created_at, updated_at`

// SQLiteFingerprintRepository implements FingerprintRepository for SQLite/libsql.
type SQLiteFingerprintRepository struct {
	db *sql.DB
}

// NewSQLiteFingerprintRepository creates a new SQLite fingerprint repository.
func NewSQLiteFingerprintRepository(db *sql.DB) *SQLiteFingerprintRepository {
	return &SQLiteFingerprintRepository{db: db}
}

// Create inserts a new fingerprint profile.
func (r *SQLiteFingerprintRepository) Create(ctx context.Context, profile *models.FingerprintProfile) error {
	now := time.Now().UTC()

	if profile.ID == "" {
		profile.ID = ulid.Make().String()
	}
	if profile.Platform == "" {
		profile.Platform = models.PlatformAll
	}
	if profile.DeviceClass == "" {
		profile.DeviceClass = models.DeviceDesktop
	}
	profile.CreatedAt = now
	profile.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO fingerprints (id, platform, label, user_agent, accept_language,
			sec_ch_ua, sec_ch_ua_platform, chromium, browser, device_class, os,
			priority, is_enabled, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, profile.ID, profile.Platform, profile.Label, profile.UserAgent, profile.AcceptLanguage,
		nullString(profile.SecChUA), nullString(profile.SecChUAPlatform), profile.Chromium,
		nullString(profile.Browser), profile.DeviceClass, nullString(profile.OS),
		profile.Priority, profile.Enabled, nullString(profile.Note),
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create fingerprint: %w", err)
	}

	return nil
}

// GetByID retrieves a fingerprint profile by ID. Returns nil when not found.
func (r *SQLiteFingerprintRepository) GetByID(ctx context.Context, id string) (*models.FingerprintProfile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+fingerprintColumns+`
		FROM fingerprints
		WHERE id = ?
	`, id)

	return r.scanProfile(row)
}

// List retrieves all fingerprint profiles.
func (r *SQLiteFingerprintRepository) List(ctx context.Context) ([]*models.FingerprintProfile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+fingerprintColumns+`
		FROM fingerprints
		ORDER BY platform, priority DESC, created_at
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return r.scanProfiles(rows)
}

// ListForPlatform retrieves enabled profiles scoped to the platform or to "all".
func (r *SQLiteFingerprintRepository) ListForPlatform(ctx context.Context, p platform.Platform) ([]*models.FingerprintProfile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+fingerprintColumns+`
		FROM fingerprints
		WHERE is_enabled = 1 AND platform IN (?, 'all')
		ORDER BY priority DESC, created_at
	`, p)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return r.scanProfiles(rows)
}

// Update persists mutable fields of a fingerprint profile.
func (r *SQLiteFingerprintRepository) Update(ctx context.Context, profile *models.FingerprintProfile) error {
	now := time.Now().UTC()
	profile.UpdatedAt = now

	result, err := r.db.ExecContext(ctx, `
		UPDATE fingerprints
		SET platform = ?, label = ?, user_agent = ?, accept_language = ?,
			sec_ch_ua = ?, sec_ch_ua_platform = ?, chromium = ?, browser = ?,
			device_class = ?, os = ?, priority = ?, is_enabled = ?, note = ?, updated_at = ?
		WHERE id = ?
	`, profile.Platform, profile.Label, profile.UserAgent, profile.AcceptLanguage,
		nullString(profile.SecChUA), nullString(profile.SecChUAPlatform), profile.Chromium,
		nullString(profile.Browser), profile.DeviceClass, nullString(profile.OS),
		profile.Priority, profile.Enabled, nullString(profile.Note),
		now.Format(time.RFC3339), profile.ID)
	if err != nil {
		return fmt.Errorf("failed to update fingerprint: %w", err)
	}

	return requireRowAffected(result, "fingerprint")
}

// Delete removes a fingerprint profile by ID.
func (r *SQLiteFingerprintRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM fingerprints WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(result, "fingerprint")
}

// RecordOutcome bumps use_count plus the matching outcome counter in one statement.
func (r *SQLiteFingerprintRepository) RecordOutcome(ctx context.Context, id string, success bool) error {
	now := time.Now().UTC().Format(time.RFC3339)

	var query string
	if success {
		query = `UPDATE fingerprints SET use_count = use_count + 1, success_count = success_count + 1, updated_at = ? WHERE id = ?`
	} else {
		query = `UPDATE fingerprints SET use_count = use_count + 1, error_count = error_count + 1, updated_at = ? WHERE id = ?`
	}

	result, err := r.db.ExecContext(ctx, query, now, id)
	if err != nil {
		return fmt.Errorf("failed to record fingerprint outcome: %w", err)
	}

	return requireRowAffected(result, "fingerprint")
}

// scanProfile scans a single row into a FingerprintProfile.
func (r *SQLiteFingerprintRepository) scanProfile(row *sql.Row) (*models.FingerprintProfile, error) {
	var profile models.FingerprintProfile
	var createdAt, updatedAt string
	var secChUA, secChUAPlatform, browser, osName, note sql.NullString

	err := row.Scan(
		&profile.ID, &profile.Platform, &profile.Label, &profile.UserAgent, &profile.AcceptLanguage,
		&secChUA, &secChUAPlatform, &profile.Chromium, &browser, &profile.DeviceClass, &osName,
		&profile.Priority, &profile.Enabled,
		&profile.UseCount, &profile.SuccessCount, &profile.ErrorCount, &note,
		&createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
	}

	fillProfile(&profile, secChUA, secChUAPlatform, browser, osName, note, createdAt, updatedAt)
	return &profile, nil
}

// scanProfiles scans multiple rows into a FingerprintProfile slice.
func (r *SQLiteFingerprintRepository) scanProfiles(rows *sql.Rows) ([]*models.FingerprintProfile, error) {
	var profiles []*models.FingerprintProfile

	for rows.Next() {
		var profile models.FingerprintProfile
		var createdAt, updatedAt string
		var secChUA, secChUAPlatform, browser, osName, note sql.NullString

		err := rows.Scan(
			&profile.ID, &profile.Platform, &profile.Label, &profile.UserAgent, &profile.AcceptLanguage,
			&secChUA, &secChUAPlatform, &profile.Chromium, &browser, &profile.DeviceClass, &osName,
			&profile.Priority, &profile.Enabled,
			&profile.UseCount, &profile.SuccessCount, &profile.ErrorCount, &note,
			&createdAt, &updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
		}

		fillProfile(&profile, secChUA, secChUAPlatform, browser, osName, note, createdAt, updatedAt)
		profiles = append(profiles, &profile)
	}

	return profiles, rows.Err()
}

func fillProfile(profile *models.FingerprintProfile, secChUA, secChUAPlatform, browser, osName, note sql.NullString, createdAt, updatedAt string) {
	profile.SecChUA = secChUA.String
	profile.SecChUAPlatform = secChUAPlatform.String
	profile.Browser = browser.String
	profile.OS = osName.String
	profile.Note = note.String
	profile.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	profile.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
}
