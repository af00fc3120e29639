// Package sqlite implements the repository interfaces over SQLite.
//
// We use modernc.org/sqlite, a pure-Go translation of SQLite — no CGo, so
// cross-compilation stays painless. The driver registers itself under the
// name "sqlite" via the blank import below.
//
// Post IDs are packed 64-bit unsigned integers (see the ids package). SQLite
// integers are signed 64-bit, so IDs are stored with their bit pattern
// preserved through an int64 conversion and converted back on read. The
// stored representation is part of the wire/storage contract and must remain
// stable.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository
// interfaces. It owns the pool lifecycle: New opens and migrates, Close
// releases.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath (":memory:" for tests), verifies the
// connection, and runs migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress; the default
	// journal mode locks the whole file.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. Every statement is idempotent, so migrate is
// safe to run on an existing database.
func (db *DB) migrate() error {
	// users: the primary key is Discord's numeric user ID, issued
	// externally — no local ID generation. banned and flags are separate
	// columns: moderation state versus privilege bit vector.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id          INTEGER PRIMARY KEY,
			username    TEXT NOT NULL,
			avatar_hash TEXT NOT NULL DEFAULT '',
			bio         TEXT NOT NULL DEFAULT '',
			banned      INTEGER NOT NULL DEFAULT 0,
			flags       INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// sessions: one row per login, keyed by the opaque bearer token.
	// Multiple concurrent sessions per user are expected; rows disappear
	// only through the auth layer's lazy expiry delete.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			token      TEXT PRIMARY KEY,
			owner_id   INTEGER NOT NULL REFERENCES users(id),
			expires_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_owner_id ON sessions(owner_id);
	`)
	if err != nil {
		return fmt.Errorf("creating sessions table: %w", err)
	}

	// posts: id carries the creation time in its high bits, so "newest
	// first" is simply ORDER BY id DESC — no timestamp index needed.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id           INTEGER PRIMARY KEY,
			author_id    INTEGER NOT NULL REFERENCES users(id),
			content      TEXT NOT NULL,
			reference_id INTEGER,
			hidden       INTEGER NOT NULL DEFAULT 0,
			flags        INTEGER NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts(author_id);
	`)
	if err != nil {
		return fmt.Errorf("creating posts table: %w", err)
	}

	return nil
}
