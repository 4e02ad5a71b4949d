package sqlite

import (
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	up      string
}

// Ordered list of schema migrations, never edit an applied one
var migrations = []migration{
	{
		version: 1,
		name:    "create_news_tables",
		up: `
			CREATE TABLE IF NOT EXISTS news_category (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT NOT NULL,
				slug TEXT NOT NULL UNIQUE
			);

			CREATE TABLE IF NOT EXISTS news_entry (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT NOT NULL,
				slug TEXT NOT NULL UNIQUE,
				excerpt TEXT NOT NULL DEFAULT '',
				body TEXT NOT NULL DEFAULT '',
				author TEXT NOT NULL DEFAULT '',
				pub_date INTEGER NOT NULL,
				image TEXT NOT NULL DEFAULT ''
			);

			CREATE TABLE IF NOT EXISTS news_entry_categories (
				entry_id INTEGER NOT NULL REFERENCES news_entry(id) ON DELETE CASCADE,
				category_id INTEGER NOT NULL REFERENCES news_category(id) ON DELETE CASCADE,
				PRIMARY KEY (entry_id, category_id)
			);
		`,
	},
	{
		version: 2,
		name:    "index_news_entry_pub_date",
		up: `
			CREATE INDEX IF NOT EXISTS idx_news_entry_pub_date
			ON news_entry(pub_date DESC);
		`,
	},
	{
		version: 3,
		name:    "create_phonedb_tables",
		up: `
			CREATE TABLE IF NOT EXISTS phonedb_vendor (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL UNIQUE CHECK (length(name) <= 250)
			);

			CREATE TABLE IF NOT EXISTS phonedb_connection (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL UNIQUE CHECK (length(name) <= 250)
			);

			CREATE TABLE IF NOT EXISTS phonedb_feature (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL UNIQUE CHECK (length(name) <= 250)
			);

			CREATE TABLE IF NOT EXISTS phonedb_phone (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				vendor_id INTEGER NOT NULL REFERENCES phonedb_vendor(id) ON DELETE CASCADE,
				name TEXT NOT NULL CHECK (length(name) <= 250),
				UNIQUE (vendor_id, name)
			);

			CREATE INDEX IF NOT EXISTS idx_phonedb_phone_name
			ON phonedb_phone(name);

			CREATE TABLE IF NOT EXISTS phonedb_phone_connections (
				phone_id INTEGER NOT NULL REFERENCES phonedb_phone(id) ON DELETE CASCADE,
				connection_id INTEGER NOT NULL REFERENCES phonedb_connection(id) ON DELETE CASCADE,
				PRIMARY KEY (phone_id, connection_id)
			);

			CREATE TABLE IF NOT EXISTS phonedb_phone_features (
				phone_id INTEGER NOT NULL REFERENCES phonedb_phone(id) ON DELETE CASCADE,
				feature_id INTEGER NOT NULL REFERENCES phonedb_feature(id) ON DELETE CASCADE,
				PRIMARY KEY (phone_id, feature_id)
			);
		`,
	},
}

// runMigrations applies pending migrations and returns how many ran
func runMigrations(db *sql.DB) (int, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	currentVersion := 0
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return 0, fmt.Errorf("failed to get current schema version: %w", err)
	}

	applied := 0
	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return applied, fmt.Errorf("failed to begin transaction for migration %d: %w", m.version, err)
		}

		if _, err := tx.Exec(m.up); err != nil {
			tx.Rollback()
			return applied, fmt.Errorf("failed to execute migration %d (%s): %w", m.version, m.name, err)
		}

		_, err = tx.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			m.version,
			m.name,
		)
		if err != nil {
			tx.Rollback()
			return applied, fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return applied, fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}
		applied++
	}

	return applied, nil
}
