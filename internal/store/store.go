// Package store provides SQLite-backed persistence for newsletters and
// their collaborator records (users, categories, notifications).
package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS newsletters (
	id               TEXT PRIMARY KEY,
	title            TEXT NOT NULL,
	category         TEXT NOT NULL,
	status           TEXT NOT NULL DEFAULT 'not_sent',
	articles         TEXT NOT NULL DEFAULT '[]',
	recipients       TEXT NOT NULL DEFAULT '[]',
	html             TEXT NOT NULL DEFAULT '',
	pdf              BLOB,
	pdf_content_type TEXT NOT NULL DEFAULT '',
	created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_newsletters_category ON newsletters(category);
CREATE INDEX IF NOT EXISTS idx_newsletters_status   ON newsletters(status);

CREATE TABLE IF NOT EXISTS categories (
	name       TEXT PRIMARY KEY,
	keywords   TEXT NOT NULL DEFAULT '[]',
	flyer_path TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	categories TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS notifications (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	newsletter_id TEXT NOT NULL,
	message       TEXT NOT NULL,
	action_url    TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id);
`

// DB wraps a sql.DB with newsletter-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
// The DSN may already carry driver parameters; the pragmas are appended
// with the right separator either way.
func Open(dsn string) (*DB, error) {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	conn, err := sql.Open("sqlite3", dsn+sep+"_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
