// Package history persists extraction and evaluation runs in a local SQLite
// database. The store is the service's only owned state; the extraction core
// itself persists nothing.
package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/circuitgrid/tasklens/core"
)

// ErrNotFound is returned when a run id has no row.
var ErrNotFound = errors.New("history: run not found")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	filename    TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	status      TEXT NOT NULL,
	extract     TEXT NOT NULL,
	evaluation  TEXT
);
CREATE INDEX IF NOT EXISTS runs_created_at ON runs(created_at);
`

// Run is one processed task.
type Run struct {
	ID         string            `json:"id"`
	Filename   string            `json:"filename"`
	CreatedAt  time.Time         `json:"created_at"`
	Status     string            `json:"status"`
	Extract    *core.TaskExtract `json:"extract,omitempty"`
	Evaluation json.RawMessage   `json:"evaluation,omitempty"`
}

// Store wraps the database handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database with WAL journaling
// and a busy timeout, and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// SaveExtract records a fresh extraction and returns the new run id.
func (s *Store) SaveExtract(filename string, extract *core.TaskExtract) (string, error) {
	blob, err := json.Marshal(extract)
	if err != nil {
		return "", fmt.Errorf("marshaling extract: %w", err)
	}
	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO runs (id, filename, created_at, status, extract) VALUES (?, ?, ?, ?, ?)`,
		id, filename, time.Now().UTC().Format(time.RFC3339), "extracted", string(blob),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	return id, nil
}

// AttachEvaluation stores an evaluation result against a run and marks it
// complete.
func (s *Store) AttachEvaluation(runID string, evaluation any) error {
	blob, err := json.Marshal(evaluation)
	if err != nil {
		return fmt.Errorf("marshaling evaluation: %w", err)
	}
	res, err := s.db.Exec(
		`UPDATE runs SET evaluation = ?, status = 'evaluated' WHERE id = ?`,
		string(blob), runID,
	)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus updates a run's status (e.g. "error").
func (s *Store) SetStatus(runID, status string) error {
	res, err := s.db.Exec(`UPDATE runs SET status = ? WHERE id = ?`, status, runID)
	if err != nil {
		return fmt.Errorf("updating run status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns runs newest-first, up to limit (0 = all).
func (s *Store) List(limit int) ([]Run, error) {
	query := `SELECT id, filename, created_at, status, extract, evaluation FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Get fetches one run by id.
func (s *Store) Get(id string) (*Run, error) {
	row := s.db.QueryRow(
		`SELECT id, filename, created_at, status, extract, evaluation FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Latest returns the most recent run, or ErrNotFound on an empty store.
func (s *Store) Latest() (*Run, error) {
	row := s.db.QueryRow(
		`SELECT id, filename, created_at, status, extract, evaluation FROM runs ORDER BY created_at DESC, id LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ClearKeepLatest deletes everything but the most recent run and returns how
// many rows remain.
func (s *Store) ClearKeepLatest() (int, error) {
	_, err := s.db.Exec(`DELETE FROM runs WHERE id NOT IN (SELECT id FROM runs ORDER BY created_at DESC, id LIMIT 1)`)
	if err != nil {
		return 0, fmt.Errorf("clearing history: %w", err)
	}
	var remaining int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&remaining); err != nil {
		return 0, fmt.Errorf("counting runs: %w", err)
	}
	return remaining, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var createdAt, extractBlob string
	var evalBlob sql.NullString

	if err := row.Scan(&run.ID, &run.Filename, &createdAt, &run.Status, &extractBlob, &evalBlob); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("parsing run timestamp: %w", err)
	}
	run.CreatedAt = t

	if err := json.Unmarshal([]byte(extractBlob), &run.Extract); err != nil {
		return Run{}, fmt.Errorf("unmarshaling extract: %w", err)
	}
	if evalBlob.Valid && evalBlob.String != "" {
		run.Evaluation = json.RawMessage(evalBlob.String)
	}
	return run, nil
}
