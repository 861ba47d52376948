// Package store keeps the history of pipeline runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"compass/logging"
)

// ErrRunNotFound is returned by Get for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Run statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Run is one row of run history.
type Run struct {
	RunID            string    `json:"run_id"`
	Date             string    `json:"date"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	SignalsIn        int       `json:"signals_in"`
	SignalsOut       int       `json:"signals_out"`
	DroppedURL       int       `json:"dropped_url"`
	DroppedTitle     int       `json:"dropped_title"`
	DroppedTitleBody int       `json:"dropped_title_body"`
	Composite        float64   `json:"composite"`
	Level            string    `json:"level"`
	Status           string    `json:"status"`
	Error            string    `json:"error,omitempty"`
}

// RunStore handles persistence of pipeline runs
type RunStore struct {
	db *sql.DB
}

// Open creates or opens the run database at path. ":memory:" gives a
// private in-memory database.
func Open(path string) (*RunStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	// one connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	s := &RunStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate run store: %w", err)
	}

	logging.Debug("run store initialized", "path", path)
	return s, nil
}

func (s *RunStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		signals_in INTEGER NOT NULL DEFAULT 0,
		signals_out INTEGER NOT NULL DEFAULT 0,
		dropped_url INTEGER NOT NULL DEFAULT 0,
		dropped_title INTEGER NOT NULL DEFAULT 0,
		dropped_title_body INTEGER NOT NULL DEFAULT 0,
		composite REAL NOT NULL DEFAULT 0,
		level TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_date ON runs(date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the database.
func (s *RunStore) Close() error {
	return s.db.Close()
}

// Record inserts a run, replacing any row with the same id.
func (s *RunStore) Record(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, date, started_at, finished_at, signals_in, signals_out,
			dropped_url, dropped_title, dropped_title_body, composite, level, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			finished_at = excluded.finished_at,
			signals_in = excluded.signals_in,
			signals_out = excluded.signals_out,
			dropped_url = excluded.dropped_url,
			dropped_title = excluded.dropped_title,
			dropped_title_body = excluded.dropped_title_body,
			composite = excluded.composite,
			level = excluded.level,
			status = excluded.status,
			error = excluded.error
	`,
		r.RunID, r.Date, formatTime(r.StartedAt), formatTime(r.FinishedAt),
		r.SignalsIn, r.SignalsOut, r.DroppedURL, r.DroppedTitle, r.DroppedTitleBody,
		r.Composite, r.Level, r.Status, r.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", r.RunID, err)
	}
	return nil
}

const selectRuns = `
	SELECT run_id, date, started_at, finished_at, signals_in, signals_out,
		dropped_url, dropped_title, dropped_title_body, composite, level, status, error
	FROM runs`

// Recent returns up to limit runs, newest first.
func (s *RunStore) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectRuns+` ORDER BY started_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return runs, nil
}

// Get returns one run by id.
func (s *RunStore) Get(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var r Run
	var started, finished string
	err := sc.Scan(&r.RunID, &r.Date, &started, &finished, &r.SignalsIn, &r.SignalsOut,
		&r.DroppedURL, &r.DroppedTitle, &r.DroppedTitleBody, &r.Composite, &r.Level, &r.Status, &r.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return r, err
	}
	if err != nil {
		return r, fmt.Errorf("failed to scan run: %w", err)
	}
	if r.StartedAt, err = parseTime(started); err != nil {
		return r, err
	}
	if r.FinishedAt, err = parseTime(finished); err != nil {
		return r, err
	}
	return r, nil
}

// timeLayout is fixed width so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse run time %q: %w", s, err)
	}
	return t, nil
}
