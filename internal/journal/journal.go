// Package journal persists an append-only audit trail of dispatched events
// in sqlite. It is strictly an audit surface: nothing is ever read back to
// restore state, and the daemon runs fine with the journal disabled.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"convertd/internal/event"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp_ns  INTEGER NOT NULL,
    kind          TEXT NOT NULL,
    detail        TEXT,
    watcher       TEXT,
    reason        TEXT,
    error         TEXT
);

CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp_ns);
CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind, timestamp_ns);
`

// Entry is one journaled event.
type Entry struct {
	ID      int64
	Time    time.Time
	Kind    event.Kind
	Detail  string
	Watcher string
	Reason  string
	Error   string
}

// Journal is a sqlite-backed event log.
type Journal struct {
	db *sql.DB
}

// Open creates or opens the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}
	// One writer (the dispatcher), occasional readers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Append records one event.
func (j *Journal) Append(ev event.Event) error {
	var errText string
	if ev.Err != nil {
		errText = ev.Err.Error()
	}
	_, err := j.db.Exec(
		`INSERT INTO events (timestamp_ns, kind, detail, watcher, reason, error)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.Time.UnixNano(), string(ev.Kind), ev.Detail(), ev.Watcher, string(ev.Reason), errText,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT id, timestamp_ns, kind, detail, watcher, reason, error
		 FROM events ORDER BY timestamp_ns DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ns int64
		var kind string
		if err := rows.Scan(&e.ID, &ns, &kind, &e.Detail, &e.Watcher, &e.Reason, &e.Error); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		e.Time = time.Unix(0, ns)
		e.Kind = event.Kind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the total number of journaled events.
func (j *Journal) Count() (int64, error) {
	var n int64
	err := j.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
