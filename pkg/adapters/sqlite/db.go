// Package sqlite provides SQLite-backed checkpoint, case and account stores
// using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

// schemaVersion is bumped whenever migrations are appended.
const schemaVersion = 2

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS checkpoints (
		session_id TEXT PRIMARY KEY,
		data       BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS cases (
		session_id  TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		issue_type  TEXT NOT NULL,
		urgency     TEXT NOT NULL DEFAULT '',
		outcome     TEXT NOT NULL,
		summary     TEXT NOT NULL DEFAULT '',
		recorded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cases_user ON cases(user_id, recorded_at DESC);`,

	`ALTER TABLE cases ADD COLUMN account_id TEXT NOT NULL DEFAULT '';
	CREATE TABLE IF NOT EXISTS customers (
		account_id TEXT NOT NULL,
		user_id    TEXT NOT NULL,
		full_name  TEXT NOT NULL DEFAULT '',
		email      TEXT NOT NULL DEFAULT '',
		blocked    INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (account_id, user_id)
	);
	CREATE INDEX IF NOT EXISTS idx_customers_email ON customers(account_id, email COLLATE NOCASE);
	CREATE TABLE IF NOT EXISTS subscriptions (
		account_id    TEXT NOT NULL,
		user_id       TEXT NOT NULL,
		tier          TEXT NOT NULL,
		status        TEXT NOT NULL,
		monthly_quota INTEGER NOT NULL DEFAULT 0,
		started_at    INTEGER NOT NULL,
		PRIMARY KEY (account_id, user_id),
		FOREIGN KEY (account_id, user_id) REFERENCES customers(account_id, user_id) ON DELETE CASCADE
	);
	CREATE TABLE IF NOT EXISTS experiences (
		account_id      TEXT NOT NULL,
		experience_id   TEXT NOT NULL,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		location        TEXT NOT NULL DEFAULT '',
		starts          TEXT NOT NULL DEFAULT '',
		slots_available INTEGER NOT NULL DEFAULT 0,
		premium         INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (account_id, experience_id)
	);
	CREATE TABLE IF NOT EXISTS reservations (
		account_id     TEXT NOT NULL,
		reservation_id TEXT NOT NULL,
		user_id        TEXT NOT NULL,
		experience_id  TEXT NOT NULL,
		status         TEXT NOT NULL,
		created_at     INTEGER NOT NULL,
		PRIMARY KEY (account_id, reservation_id)
	);
	CREATE INDEX IF NOT EXISTS idx_reservations_user ON reservations(account_id, user_id, created_at);`,
}

// Open opens (or creates) a database at path and applies pending migrations.
// Use ":memory:" for an ephemeral database.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_foreign_keys=ON&_journal_mode=WAL&_busy_timeout=5000", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single connection also keeps ":memory:" alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return err
	}

	var current int
	err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current)
	if err != nil {
		return err
	}

	for v := current; v < schemaVersion; v++ {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, migrations[v]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, v+1); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}
