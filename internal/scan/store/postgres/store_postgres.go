// Package postgres persists completed scan results.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"cardscan/internal/scan/models"
	id "cardscan/pkg/domain"
	"cardscan/pkg/platform/sentinel"
)

// Schema creates the results table. It is safe to run on every start.
const Schema = `
CREATE TABLE IF NOT EXISTS scan_results (
	session_id   UUID PRIMARY KEY,
	fields       JSONB NOT NULL,
	mrz_lines    TEXT[] NOT NULL DEFAULT '{}',
	platform     TEXT NOT NULL DEFAULT 'other',
	completed_at TIMESTAMPTZ NOT NULL
)`

// ResultStore is pure I/O over the scan_results table.
type ResultStore struct {
	db *sql.DB
}

func NewResultStore(db *sql.DB) *ResultStore {
	return &ResultStore{db: db}
}

// EnsureSchema applies Schema.
func (s *ResultStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure scan_results schema: %w", err)
	}
	return nil
}

// SaveResult upserts a completed scan. Finalizing twice overwrites the row.
func (s *ResultStore) SaveResult(ctx context.Context, result *models.ScanResult) error {
	if result == nil {
		return fmt.Errorf("scan result is required")
	}
	fields, err := json.Marshal(result.Fields)
	if err != nil {
		return fmt.Errorf("encode scan fields: %w", err)
	}
	mrzLines := result.MRZLines
	if mrzLines == nil {
		mrzLines = []string{}
	}
	query := `
		INSERT INTO scan_results (session_id, fields, mrz_lines, platform, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id) DO UPDATE SET
			fields = EXCLUDED.fields,
			mrz_lines = EXCLUDED.mrz_lines,
			platform = EXCLUDED.platform,
			completed_at = EXCLUDED.completed_at
	`
	_, err = s.db.ExecContext(ctx, query,
		result.SessionID.String(),
		string(fields),
		pq.Array(mrzLines),
		string(result.Platform),
		result.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("save scan result: %w", err)
	}
	return nil
}

func (s *ResultStore) FindResult(ctx context.Context, sessionID id.ScanSessionID) (*models.ScanResult, error) {
	query := `
		SELECT session_id, fields, mrz_lines, platform, completed_at
		FROM scan_results
		WHERE session_id = $1
	`
	var (
		rawID    string
		fields   []byte
		mrzLines []string
		platform string
		result   models.ScanResult
	)
	err := s.db.QueryRowContext(ctx, query, sessionID.String()).
		Scan(&rawID, &fields, pq.Array(&mrzLines), &platform, &result.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find scan result: %w", err)
	}
	parsed, err := id.ParseScanSessionID(rawID)
	if err != nil {
		return nil, fmt.Errorf("decode scan result id: %w", err)
	}
	if err := json.Unmarshal(fields, &result.Fields); err != nil {
		return nil, fmt.Errorf("decode scan fields: %w", err)
	}
	result.SessionID = parsed
	result.MRZLines = mrzLines
	if result.MRZLines == nil {
		result.MRZLines = []string{}
	}
	result.Platform = models.Platform(platform)
	return &result, nil
}

// Ping checks database connectivity.
func (s *ResultStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
