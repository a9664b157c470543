// Package sqlite stores the audit journal in an embedded SQLite database.
//
// WHY modernc.org/sqlite:
// It is a pure Go translation of SQLite, so the binary builds without a C
// toolchain. Tests open ":memory:" and get a fresh database each time.
//
// HOW IT FITS TOGETHER:
//
//	service write ─► observer.Bus ─► Journal.OnWrite ─► DB.Append ─► events table
//
// Events are stored twice: the columns used for filtering (kind, actor,
// entity, at) in plain form, the full event as a CBOR payload.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps the connection pool and implements repository.EventRepository.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at path and runs migrations. The
// parent directory is created when missing. Use ":memory:" in tests.
func New(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("sqlite: creating directory for %s: %w", path, err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	// An in-memory database exists per connection. One connection keeps every
	// query on the same database and serializes writers.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=1000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate is idempotent: CREATE ... IF NOT EXISTS only.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id       TEXT PRIMARY KEY,
			kind     TEXT NOT NULL,
			actor    TEXT NOT NULL,
			entity   TEXT NOT NULL,
			at       DATETIME NOT NULL,
			recorded DATETIME NOT NULL,
			payload  BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
		CREATE INDEX IF NOT EXISTS idx_events_actor ON events(actor);
		CREATE INDEX IF NOT EXISTS idx_events_entity ON events(entity);
	`)
	if err != nil {
		return fmt.Errorf("creating events table: %w", err)
	}
	return nil
}
