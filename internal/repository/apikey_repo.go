package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/risunCode/downaria/internal/models"
)

// SQLiteAPIKeyRepository implements APIKeyRepository for SQLite/libsql.
type SQLiteAPIKeyRepository struct {
	db *sql.DB
}

// NewSQLiteAPIKeyRepository creates a new SQLite API key repository.
func NewSQLiteAPIKeyRepository(db *sql.DB) *SQLiteAPIKeyRepository {
	return &SQLiteAPIKeyRepository{db: db}
}

// Create inserts a new API key record.
func (r *SQLiteAPIKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	now := time.Now().UTC()

	if key.ID == "" {
		key.ID = ulid.Make().String()
	}
	key.CreatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_keys (id, name, key_hash, key_prefix, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, key.ID, key.Name, key.KeyHash, key.KeyPrefix, now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}

	return nil
}

// GetByKeyHash retrieves a key by its SHA-256 hash. Returns nil when not found.
func (r *SQLiteAPIKeyRepository) GetByKeyHash(ctx context.Context, hash string) (*models.APIKey, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, key_hash, key_prefix, last_used_at, created_at, revoked_at
		FROM api_keys
		WHERE key_hash = ?
	`, hash)

	return r.scanKey(row)
}

// List retrieves all API keys, newest first.
func (r *SQLiteAPIKeyRepository) List(ctx context.Context) ([]*models.APIKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, key_hash, key_prefix, last_used_at, created_at, revoked_at
		FROM api_keys
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var keys []*models.APIKey
	for rows.Next() {
		var key models.APIKey
		var createdAt string
		var lastUsedAt, revokedAt sql.NullString

		err := rows.Scan(&key.ID, &key.Name, &key.KeyHash, &key.KeyPrefix, &lastUsedAt, &createdAt, &revokedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}

		key.LastUsedAt = parseTimePtr(lastUsedAt)
		key.RevokedAt = parseTimePtr(revokedAt)
		key.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		keys = append(keys, &key)
	}

	return keys, rows.Err()
}

// Revoke marks a key revoked. Revoked keys stay listed but fail auth.
func (r *SQLiteAPIKeyRepository) Revoke(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx, `
		UPDATE api_keys SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL
	`, now, id)
	if err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}

	return requireRowAffected(result, "api key")
}

// UpdateLastUsed stamps the last successful authentication time.
func (r *SQLiteAPIKeyRepository) UpdateLastUsed(ctx context.Context, id string, lastUsed time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE api_keys SET last_used_at = ? WHERE id = ?
	`, lastUsed.UTC().Format(time.RFC3339), id)
	return err
}

// scanKey scans a single row into an APIKey.
func (r *SQLiteAPIKeyRepository) scanKey(row *sql.Row) (*models.APIKey, error) {
	var key models.APIKey
	var createdAt string
	var lastUsedAt, revokedAt sql.NullString

	err := row.Scan(&key.ID, &key.Name, &key.KeyHash, &key.KeyPrefix, &lastUsedAt, &createdAt, &revokedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan api key: %w", err)
	}

	key.LastUsedAt = parseTimePtr(lastUsedAt)
	key.RevokedAt = parseTimePtr(revokedAt)
	key.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	return &key, nil
}
