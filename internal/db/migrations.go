package db

import (
	"fmt"
	"log/slog"
)

// migrations is an ordered list of SQL statements to run. Every statement
// is valid for both SQLite and PostgreSQL.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id         TEXT      PRIMARY KEY,
		email      TEXT      NOT NULL UNIQUE,
		name       TEXT      NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS rental_items (
		id                 TEXT      PRIMARY KEY,
		owner_email        TEXT      NOT NULL,
		title              TEXT      NOT NULL,
		description        TEXT      NOT NULL DEFAULT '',
		image_url          TEXT      NOT NULL DEFAULT '',
		original_price     BIGINT    NOT NULL CHECK (original_price >= 0),
		hourly_rate        BIGINT    CHECK (hourly_rate IS NULL OR hourly_rate >= 0),
		daily_rate         BIGINT    CHECK (daily_rate IS NULL OR daily_rate >= 0),
		quantity           INTEGER   NOT NULL DEFAULT 1 CHECK (quantity >= 1),
		available_quantity INTEGER   NOT NULL DEFAULT 1,
		category           TEXT      NOT NULL,
		location           TEXT      NOT NULL,
		status             TEXT      NOT NULL DEFAULT 'available',
		created_at         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS rentals (
		id           TEXT      PRIMARY KEY,
		item_id      TEXT      NOT NULL REFERENCES rental_items(id) ON DELETE CASCADE,
		renter_email TEXT      NOT NULL,
		start_date   TIMESTAMP NOT NULL,
		end_date     TIMESTAMP NOT NULL,
		total_cost   BIGINT    NOT NULL DEFAULT 0,
		status       TEXT      NOT NULL DEFAULT 'active',
		created_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		name       TEXT      PRIMARY KEY,
		value      TEXT      NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT      PRIMARY KEY,
		email      TEXT      NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id           TEXT      PRIMARY KEY,
		name         TEXT      NOT NULL,
		key_prefix   TEXT      NOT NULL,
		key_hash     TEXT      NOT NULL UNIQUE,
		created_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		last_used_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS passkey_credentials (
		id              TEXT      PRIMARY KEY,
		email           TEXT      NOT NULL,
		user_handle     TEXT      NOT NULL,
		name            TEXT      NOT NULL DEFAULT '',
		credential_json TEXT      NOT NULL,
		created_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		last_used_at    TIMESTAMP
	)`,
}

// columnMigrations are additive column changes applied after the tables
// exist.
var columnMigrations = []struct {
	table, column, definition string
}{
	{"api_keys", "email", "TEXT NOT NULL DEFAULT ''"},
	{"members", "phone", "TEXT NOT NULL DEFAULT ''"},
	{"members", "location", "TEXT NOT NULL DEFAULT ''"},
}

// migrate runs all migrations in order.
func migrate(d *DB) error {
	for i, m := range migrations {
		if _, err := d.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	for _, cm := range columnMigrations {
		if err := d.addColumnIfNotExists(cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func (d *DB) addColumnIfNotExists(table, column, definition string) error {
	if d.Dialect == Postgres {
		_, err := d.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s", table, column, definition))
		return err
	}

	exists, err := d.hasColumn(table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = d.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}

func (d *DB) hasColumn(table, column string) (bool, error) {
	rows, err := d.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("checking table info: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue any
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("iterating columns: %w", err)
	}
	return false, nil
}
