package persistence

import (
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// AuditStore is a sqlite-backed log of session lifecycle events (join,
// leave) plus per-canvas snapshots taken on save, kept alongside the primary document for operators who
// want a durable history independent of the dirty-driven save loop.
// Nothing in §4 depends on it; session handlers call it best-effort.
type AuditStore struct {
	db *sql.DB
}

// OpenAuditStore opens (creating if needed) the sqlite database at path.
func OpenAuditStore(path string) (*AuditStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if err := createAuditSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("🌸 audit store opened at %s", path)
	return &AuditStore{db: db}, nil
}

func createAuditSchema(db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS session_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		canvas_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_session_events_session ON session_events(session_id);
	CREATE INDEX IF NOT EXISTS idx_session_events_canvas ON session_events(canvas_id);

	CREATE TABLE IF NOT EXISTS canvas_snapshots (
		canvas_id INTEGER PRIMARY KEY,
		document_blob BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// RecordEvent implements session.AuditSink. Failures are logged and
// otherwise ignored: auditing must never disrupt a live session.
func (a *AuditStore) RecordEvent(sessionID, kind, detail string, canvasID int) {
	_, err := a.db.Exec(
		"INSERT INTO session_events (event_id, session_id, canvas_id, kind, detail) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), sessionID, canvasID, kind, detail,
	)
	if err != nil {
		log.Printf("⚠️ audit write failed: %v", err)
	}
}

// RecentEvents returns the most recent events across all sessions, newest
// first, for a future diagnostics surface.
func (a *AuditStore) RecentEvents(limit int) ([]SessionEvent, error) {
	rows, err := a.db.Query(
		"SELECT session_id, canvas_id, kind, detail, created_at FROM session_events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []SessionEvent
	for rows.Next() {
		var e SessionEvent
		if err := rows.Scan(&e.SessionID, &e.CanvasID, &e.Kind, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// SessionEvent is one row of the audit log.
type SessionEvent struct {
	SessionID string
	CanvasID  int
	Kind      string
	Detail    string
	CreatedAt time.Time
}

// SaveCanvasSnapshot stores the most recently persisted JSON blob for one
// canvas, independent of the primary document file on disk: a crash
// between a partial document write and its rename leaves this copy intact
// (spec.md does not mandate this; it is additional redundancy).
func (a *AuditStore) SaveCanvasSnapshot(canvasID int, blob []byte) error {
	_, err := a.db.Exec(`
		INSERT INTO canvas_snapshots (canvas_id, document_blob, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(canvas_id) DO UPDATE SET
			document_blob = excluded.document_blob,
			updated_at = CURRENT_TIMESTAMP
	`, canvasID, blob)
	return err
}

// LatestCanvasSnapshot returns the most recently stored blob for a canvas,
// or nil if none has been saved yet.
func (a *AuditStore) LatestCanvasSnapshot(canvasID int) ([]byte, error) {
	var blob []byte
	err := a.db.QueryRow("SELECT document_blob FROM canvas_snapshots WHERE canvas_id = ?", canvasID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return blob, err
}

// DistinctCanvasIDs returns every canvas id with at least one recorded
// event, for the retention service's sweep.
func (a *AuditStore) DistinctCanvasIDs() ([]int, error) {
	rows, err := a.db.Query("SELECT DISTINCT canvas_id FROM session_events")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// EventCount returns the number of recorded events for a canvas.
func (a *AuditStore) EventCount(canvasID int) (int, error) {
	var count int
	err := a.db.QueryRow("SELECT COUNT(*) FROM session_events WHERE canvas_id = ?", canvasID).Scan(&count)
	return count, err
}

// TrimOldEvents deletes every event for canvasID except the keep most
// recent ones.
func (a *AuditStore) TrimOldEvents(canvasID, keep int) error {
	_, err := a.db.Exec(`
		DELETE FROM session_events
		WHERE canvas_id = ? AND id NOT IN (
			SELECT id FROM session_events
			WHERE canvas_id = ?
			ORDER BY id DESC
			LIMIT ?
		)
	`, canvasID, canvasID, keep)
	return err
}

// Close closes the underlying database handle.
func (a *AuditStore) Close() error {
	return a.db.Close()
}
