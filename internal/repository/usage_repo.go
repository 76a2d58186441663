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

// SQLiteUsageRepository implements UsageRepository for SQLite/libsql.
type SQLiteUsageRepository struct {
	db *sql.DB
}

// NewSQLiteUsageRepository creates a new SQLite usage repository.
func NewSQLiteUsageRepository(db *sql.DB) *SQLiteUsageRepository {
	return &SQLiteUsageRepository{db: db}
}

// IncrementRequest upserts the (platform, date) row and bumps request_count.
func (r *SQLiteUsageRepository) IncrementRequest(ctx context.Context, p platform.Platform, date string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO platform_usage (id, platform, date, request_count)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(platform, date) DO UPDATE SET
			request_count = request_count + 1
	`, ulid.Make().String(), p, date)
	if err != nil {
		return fmt.Errorf("failed to increment request count: %w", err)
	}

	return nil
}

// IncrementOutcome bumps success_count or failure_count for (platform, date).
func (r *SQLiteUsageRepository) IncrementOutcome(ctx context.Context, p platform.Platform, date string, success bool) error {
	var query string
	if success {
		query = `
			INSERT INTO platform_usage (id, platform, date, success_count)
			VALUES (?, ?, ?, 1)
			ON CONFLICT(platform, date) DO UPDATE SET
				success_count = success_count + 1
		`
	} else {
		query = `
			INSERT INTO platform_usage (id, platform, date, failure_count)
			VALUES (?, ?, ?, 1)
			ON CONFLICT(platform, date) DO UPDATE SET
				failure_count = failure_count + 1
		`
	}

	_, err := r.db.ExecContext(ctx, query, ulid.Make().String(), p, date)
	if err != nil {
		return fmt.Errorf("failed to increment outcome count: %w", err)
	}

	return nil
}

// Summary retrieves all usage rows, newest first.
func (r *SQLiteUsageRepository) Summary(ctx context.Context) ([]*models.PlatformUsage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, platform, date, request_count, success_count, failure_count
		FROM platform_usage
		ORDER BY date DESC, platform
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var usage []*models.PlatformUsage
	for rows.Next() {
		var u models.PlatformUsage
		if err := rows.Scan(&u.ID, &u.Platform, &u.Date, &u.RequestCount, &u.SuccessCount, &u.FailureCount); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		u.Date = normalizeDate(u.Date)
		usage = append(usage, &u)
	}

	return usage, rows.Err()
}

// normalizeDate collapses driver timestamp coercion back to the stored
// YYYY-MM-DD form. libsql reads a date-shaped TEXT column as RFC3339.
func normalizeDate(date string) string {
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		return t.Format("2006-01-02")
	}
	return date
}
