// Copyright © 2025 Wsmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: store/recorder.go
// Summary: SQLite-backed log of mirror events and state snapshots.
// Usage: Enabled by wsmirror-watch's -record flag; inspect with the sqlite3 CLI.
// Notes: The log is a debugging aid, not a system of record. A schema version
// mismatch resets it instead of migrating row by row.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wsmirror/wsmirror/internal/logging"

	_ "modernc.org/sqlite"
)

// Record is one persisted event row, payload stored as JSON.
type Record struct {
	ID         int64
	RecordedAt time.Time
	Kind       string
	Payload    string
}

// Snapshot is one persisted projection of the full mirrored state.
type Snapshot struct {
	ID         int64
	RecordedAt time.Time
	Workspaces string
	Toplevels  string
}

// Recorder appends events and snapshots to a SQLite database.
// It expects a single writer; the watch loop is the only caller.
type Recorder struct {
	db  *sql.DB
	log *logrus.Entry
}

// Increment when the table layout changes. Old databases are reset, not migrated.
const recorderSchemaVersion = 1

const recorderSchema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    recorded_at INTEGER NOT NULL,     -- UnixNano
    kind TEXT NOT NULL,
    payload TEXT NOT NULL             -- JSON
);

CREATE INDEX IF NOT EXISTS idx_events_recorded ON events(recorded_at);

CREATE TABLE IF NOT EXISTS snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    recorded_at INTEGER NOT NULL,     -- UnixNano
    workspaces TEXT NOT NULL,         -- JSON
    toplevels TEXT NOT NULL           -- JSON
);
`

// Open creates or reopens the event log at path, creating parent
// directories as needed.
func Open(path string) (*Recorder, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// WAL keeps readers (sqlite3 CLI) from blocking the recording loop.
	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	r := &Recorder{db: db, log: logging.NewLogger("store")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// migrate brings the database to the current schema version. Any other
// version drops the recorded data and starts over.
func (r *Recorder) migrate() error {
	if _, err := r.db.Exec(recorderSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Current version, 0 if the table is empty.
	var current int
	err := r.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&current)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to check schema version: %w", err)
	}

	if current != 0 && current != recorderSchemaVersion {
		r.log.WithFields(logrus.Fields{
			"found": current,
			"want":  recorderSchemaVersion,
		}).Warn("Event log schema changed, resetting")

		resets := []string{
			"DROP TABLE IF EXISTS events",
			"DROP TABLE IF EXISTS snapshots",
			"DELETE FROM schema_version",
		}
		for _, stmt := range resets {
			if _, err := r.db.Exec(stmt); err != nil {
				return fmt.Errorf("reset failed on '%s': %w", stmt, err)
			}
		}
		if _, err := r.db.Exec(recorderSchema); err != nil {
			return fmt.Errorf("failed to recreate schema: %w", err)
		}
	}

	_, err = r.db.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", recorderSchemaVersion)
	if err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}
	return nil
}

// RecordEvent appends one event. The payload is marshalled to JSON so the
// log stays greppable without special tooling.
func (r *Recorder) RecordEvent(kind string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	_, err = r.db.Exec(
		"INSERT INTO events (recorded_at, kind, payload) VALUES (?, ?, ?)",
		time.Now().UnixNano(), kind, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// RecordSnapshot appends one full-state projection. Both arguments are
// marshalled to JSON.
func (r *Recorder) RecordSnapshot(workspaces, toplevels any) error {
	ws, err := json.Marshal(workspaces)
	if err != nil {
		return fmt.Errorf("failed to encode workspaces: %w", err)
	}
	tl, err := json.Marshal(toplevels)
	if err != nil {
		return fmt.Errorf("failed to encode toplevels: %w", err)
	}

	_, err = r.db.Exec(
		"INSERT INTO snapshots (recorded_at, workspaces, toplevels) VALUES (?, ?, ?)",
		time.Now().UnixNano(), string(ws), string(tl),
	)
	if err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}
	return nil
}

// Tail returns up to limit events, newest first.
func (r *Recorder) Tail(limit int) ([]Record, error) {
	rows, err := r.db.Query(`
		SELECT id, recorded_at, kind, payload
		FROM events
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("tail failed: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var tsNano int64
		if err := rows.Scan(&rec.ID, &tsNano, &rec.Kind, &rec.Payload); err != nil {
			continue // Skip malformed rows
		}
		rec.RecordedAt = time.Unix(0, tsNano)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LastSnapshot returns the most recent snapshot, or ok=false when none
// has been recorded yet.
func (r *Recorder) LastSnapshot() (Snapshot, bool, error) {
	var snap Snapshot
	var tsNano int64
	err := r.db.QueryRow(`
		SELECT id, recorded_at, workspaces, toplevels
		FROM snapshots
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&snap.ID, &tsNano, &snap.Workspaces, &snap.Toplevels)
	if err == sql.ErrNoRows {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	snap.RecordedAt = time.Unix(0, tsNano)
	return snap, true, nil
}

// Close flushes and closes the database.
func (r *Recorder) Close() error {
	return r.db.Close()
}
