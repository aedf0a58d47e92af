// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// the SQLite sources — works everywhere Go works, and ":memory:" databases
// make tests fast and isolated.
//
// The store owns uniqueness: the UNIQUE constraint on users.email is the
// authoritative duplicate-registration signal. Two concurrent registrations
// with the same email race inside SQLite, one wins, the other surfaces here
// as a constraint violation and is mapped to a Conflict error.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Blank import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements both
// repository.UserRepository and repository.ProductRepository.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/store.db" → file-based database (persistent)
//   - ":memory:"      → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pool connection to ":memory:" opens its own empty database, so
	// in-memory mode must pin the pool to a single connection or queries
	// after the first would miss the schema.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// Ping forces an immediate connection so a bad path or permissions
	// problem surfaces now rather than on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress —
	// without it SQLite locks the whole file during writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. The product_platforms
	// join table depends on them for referential integrity.
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

// Close closes the database connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this
// idempotent — safe to run on every startup.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			name          TEXT NOT NULL DEFAULT '',
			last_post     TEXT NOT NULL DEFAULT '',
			avatar_url    TEXT NOT NULL DEFAULT '',
			github_id     INTEGER,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_github_id
			ON users(github_id) WHERE github_id IS NOT NULL;
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS products (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			name         TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			price        REAL NOT NULL,
			release_date TEXT NOT NULL,
			imageurl     TEXT,
			videourl     TEXT,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS platforms (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS product_platforms (
			product_id  INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			platform_id INTEGER NOT NULL REFERENCES platforms(id),
			used        INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (product_id, platform_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating catalog tables: %w", err)
	}

	// Seed the platform catalog. INSERT OR IGNORE keeps existing rows and
	// their IDs stable across restarts — clients reference platforms by ID.
	_, err = db.conn.Exec(`
		INSERT OR IGNORE INTO platforms (id, name) VALUES
			(1, 'PlayStation 5'),
			(2, 'PlayStation 4'),
			(3, 'Xbox Series X'),
			(4, 'Nintendo Switch'),
			(5, 'PC');
	`)
	if err != nil {
		return fmt.Errorf("seeding platforms: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. The modernc driver exposes constraint errors through the error
// string; matching on the stable "UNIQUE constraint failed" prefix SQLite
// emits is the conventional check.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
