package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "github.com/mattn/go-sqlite3"
)

const SchemaVersion = 1

// Run kinds recorded in the history store.
const (
	KindConsistency   = "consistency"
	KindHallucination = "hallucination"
	KindRedTeam       = "redteam"
)

// RunRecord is one persisted check run. Payload holds the full result
// object as JSON for later inspection and report regeneration.
type RunRecord struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Subject   string          `json:"subject"`
	Score     float64         `json:"score"`
	Passed    bool            `json:"passed"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Store persists check runs to SQLite so score trends survive across
// invocations.
type Store struct {
	conn *sql.DB
}

// Open opens (creating if needed) the history database at path and applies
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=10000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	store := &Store{conn: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.conn.Close()
}

// migrate applies schema migrations incrementally, tracked via
// PRAGMA user_version.
func (s *Store) migrate() error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var version int
	if err := tx.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}

	for version < SchemaVersion {
		version++
		switch version {
		case 1:
			if err := applySchemaV1(tx); err != nil {
				return fmt.Errorf("failed to apply schema v%d: %w", version, err)
			}
		default:
			return fmt.Errorf("unknown schema version: %d", version)
		}
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func applySchemaV1(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id         TEXT PRIMARY KEY,
			kind       TEXT NOT NULL,
			subject    TEXT NOT NULL,
			score      REAL NOT NULL,
			passed     INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			payload    TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind, created_at);
		CREATE INDEX IF NOT EXISTS idx_runs_subject ON runs(subject, created_at);
	`)
	return err
}

// Record persists one check run. The result is marshalled to JSON as the
// payload; a generated uuid identifies the run.
func (s *Store) Record(kind, subject string, score float64, passed bool, result interface{}) (string, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal run payload: %w", err)
	}

	id := uuid.NewString()
	_, err = s.conn.Exec(
		`INSERT INTO runs (id, kind, subject, score, passed, created_at, payload) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, kind, subject, score, boolToInt(passed), time.Now().UTC(), string(payload),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	return id, nil
}

// Recent returns the most recent runs, newest first, optionally filtered by
// kind (empty kind means all).
func (s *Store) Recent(kind string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, kind, subject, score, passed, created_at, payload FROM runs`
	args := []interface{}{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRuns(rows)
}

// Trend returns the score history for one subject and kind, oldest first.
func (s *Store) Trend(kind, subject string) ([]RunRecord, error) {
	rows, err := s.conn.Query(
		`SELECT id, kind, subject, score, passed, created_at, payload
		 FROM runs WHERE kind = ? AND subject = ? ORDER BY created_at ASC`,
		kind, subject,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]RunRecord, error) {
	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var passed int
		var payload sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.Subject, &rec.Score, &passed, &rec.CreatedAt, &payload); err != nil {
			return nil, err
		}
		rec.Passed = passed != 0
		if payload.Valid {
			rec.Payload = json.RawMessage(payload.String)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
