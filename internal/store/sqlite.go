// Package store is the durable log over an embedded SQLite database: all
// reads and writes of threads, messages, and agents go through it.
package store

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Open opens the SQLite database at path and configures it for the
// single-writer discipline the bus relies on: WAL mode for concurrent
// readers, foreign keys on, and exactly one open connection so every write
// is serialized by the connection pool itself rather than a hand-rolled
// lock. Use ":memory:" for an ephemeral database (tests).
func Open(path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// SQLite only supports a single writer at a time; this is also what
	// makes the Sequencer (§4.2) a plain in-transaction counter instead of
	// needing an external coordinator.
	db.SetMaxOpenConns(1)

	return db, nil
}

// Migrate runs all pending schema migrations. Safe to call on every
// startup; a database already at the latest version is a no-op.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
