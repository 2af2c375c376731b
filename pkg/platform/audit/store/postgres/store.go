// Package postgres keeps scan audit events in a queryable table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "cardscan/pkg/domain"
	audit "cardscan/pkg/platform/audit"
)

// Schema creates the audit table and its session index. Each statement is
// safe to run on every start.
var Schema = []string{`
CREATE TABLE IF NOT EXISTS scan_audit_events (
	id              UUID PRIMARY KEY,
	category        TEXT NOT NULL,
	timestamp       TIMESTAMPTZ NOT NULL,
	session_id      UUID NOT NULL,
	action          TEXT NOT NULL,
	side            TEXT NOT NULL DEFAULT '',
	reason          TEXT NOT NULL DEFAULT '',
	state           TEXT NOT NULL DEFAULT '',
	platform        TEXT NOT NULL DEFAULT '',
	subject         TEXT NOT NULL DEFAULT '',
	request_id      TEXT NOT NULL DEFAULT '',
	subject_id_hash TEXT NOT NULL DEFAULT ''
)`,
	`CREATE INDEX IF NOT EXISTS scan_audit_events_session_idx ON scan_audit_events (session_id, timestamp)`,
}

const selectColumns = `
	SELECT category, timestamp, session_id, action, side, reason,
		   state, platform, subject, request_id, subject_id_hash
	FROM scan_audit_events`

// Store implements audit.Store and audit.Reader over scan_audit_events.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema applies Schema.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range Schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure scan_audit_events schema: %w", err)
		}
	}
	return nil
}

// Append inserts an event under a fresh ID.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	return s.AppendWithID(ctx, uuid.New(), event)
}

// AppendWithID inserts an event with a caller-chosen ID. Used by the Kafka
// consumer to materialize events; duplicate deliveries are ignored.
func (s *Store) AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error {
	// The action is the source of truth for the category.
	category := audit.AuditEvent(event.Action).Category()

	query := `
		INSERT INTO scan_audit_events (
			id, category, timestamp, session_id, action, side, reason,
			state, platform, subject, request_id, subject_id_hash
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		eventID,
		string(category),
		event.Timestamp,
		uuid.UUID(event.SessionID),
		event.Action,
		event.Side,
		event.Reason,
		event.State,
		event.Platform,
		event.Subject,
		event.RequestID,
		event.SubjectIDHash,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListBySession returns the events of one scan, oldest first.
func (s *Store) ListBySession(ctx context.Context, sessionID id.ScanSessionID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		WHERE session_id = $1
		ORDER BY timestamp ASC`, uuid.UUID(sessionID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		ORDER BY timestamp DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			e         audit.Event
			category  string
			sessionID uuid.UUID
		)
		if err := rows.Scan(
			&category, &e.Timestamp, &sessionID, &e.Action, &e.Side, &e.Reason,
			&e.State, &e.Platform, &e.Subject, &e.RequestID, &e.SubjectIDHash,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = audit.EventCategory(category)
		e.SessionID = id.ScanSessionID(sessionID)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
