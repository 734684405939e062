// Package store is the persistence layer: a single SQLite database holding
// the structural header index, the row ledger, and per-section table
// configuration.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS ledger (
	row_id    TEXT PRIMARY KEY,
	h2        TEXT,
	text      TEXT,
	src       TEXT,
	type      TEXT,
	file      TEXT,
	line_no   INTEGER,
	status    TEXT DEFAULT 'clean',
	ingest_ts TEXT
);

CREATE TABLE IF NOT EXISTS table_config (
	file_name  TEXT,
	h2         TEXT,
	col_count  INTEGER,
	line_start INTEGER,
	line_end   INTEGER,
	PRIMARY KEY (file_name, h2)
);

CREATE TABLE IF NOT EXISTS header_index (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	file        TEXT NOT NULL,
	header_text TEXT NOT NULL,
	level       INTEGER NOT NULL,
	line_start  INTEGER NOT NULL,
	line_end    INTEGER NOT NULL,
	parent_id   INTEGER,
	indexed_ts  TEXT NOT NULL,
	file_mtime  INTEGER,
	UNIQUE (file, line_start)
);

CREATE INDEX IF NOT EXISTS idx_header_search ON header_index(header_text);
CREATE INDEX IF NOT EXISTS idx_header_file ON header_index(file);
`

// Open opens (creating if necessary) the database at path, ensures the
// schema exists, and migrates indexes written before mtimes were tracked.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// migrate adds the file_mtime column to header_index tables created before
// mtime tracking. Migrated rows carry a NULL mtime and read as stale, so the
// first structural touch reindexes them.
func migrate(db *sql.DB) error {
	rows, err := db.Query(`PRAGMA table_info(header_index)`)
	if err != nil {
		return fmt.Errorf("inspect header_index: %w", err)
	}

	hasMtime := false
	for rows.Next() {
		var (
			cid, notnull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			rows.Close()
			return fmt.Errorf("scan column info: %w", err)
		}
		if name == "file_mtime" {
			hasMtime = true
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("inspect header_index: %w", err)
	}
	rows.Close()

	if hasMtime {
		return nil
	}
	if _, err := db.Exec(`ALTER TABLE header_index ADD COLUMN file_mtime INTEGER`); err != nil {
		return fmt.Errorf("add file_mtime column: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Timestamps are stored as RFC3339Nano text so they order lexicographically;
// file mtimes as integer unix nanoseconds.

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
