// Package migrations handles database schema migrations.
// Migrations are versioned using timestamps (YYYYMMDD-HHmmss format) and
// tracked in the database to ensure each migration runs exactly once.
//
// Migration files should be named: YYYYMMDD-HHmmss-description.go
package migrations

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Migration represents a single database migration.
type Migration struct {
	// Timestamp in YYYYMMDD-HHmmss format, used for ordering and tracking.
	Timestamp   string
	Description string
	Up          []string // SQL statements to run
}

// registry holds all registered migrations.
var registry []Migration

// Register adds a migration to the registry.
// Called by init() functions in individual migration files.
func Register(m Migration) {
	registry = append(registry, m)
}

// Run executes all pending migrations.
// Creates a migrations tracking table if it doesn't exist.
func Run(db *sql.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := getAppliedVersions(db)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	sort.Slice(registry, func(i, j int) bool {
		return registry[i].Timestamp < registry[j].Timestamp
	})

	for _, m := range registry {
		if applied[m.Timestamp] {
			continue
		}

		logger.Info("running migration", "timestamp", m.Timestamp, "description", m.Description)

		if err := runMigration(db, m); err != nil {
			return fmt.Errorf("migration %s (%s) failed: %w", m.Timestamp, m.Description, err)
		}
	}

	return nil
}

// getAppliedVersions returns a map of applied migration timestamps.
func getAppliedVersions(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// runMigration executes a single migration within a transaction.
func runMigration(db *sql.DB, m Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.Up {
		if _, err := tx.Exec(stmt); err != nil {
			// Duplicate column from a re-run ALTER TABLE ADD COLUMN is harmless
			if strings.Contains(err.Error(), "duplicate column") {
				continue
			}
			return fmt.Errorf("failed to execute statement: %w\n%s", err, stmt)
		}
	}

	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
		m.Timestamp, m.Description, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}
