// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a SQLite ledger of lookup runs and the attempts
// made in each, so blocked and resumed runs can be audited later.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/publish-or-not/pkg/types"
)

// Status is the terminal state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusBlocked   Status = "blocked"
	StatusFailed    Status = "failed"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrUnknownRun is returned for a run id the ledger does not hold.
var ErrUnknownRun = errors.New("unknown run")

// Run is one row of the runs table.
type Run struct {
	ID         string    `json:"id" yaml:"id"`
	Venue      string    `json:"venue" yaml:"venue"`
	NamesPath  string    `json:"names_path" yaml:"names_path"`
	Years      string    `json:"years" yaml:"years"`
	Total      int       `json:"total" yaml:"total"`
	Status     Status    `json:"status" yaml:"status"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

// Store manages the run history database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the ledger at path and creates the schema if it
// does not exist.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			venue TEXT NOT NULL,
			names_path TEXT,
			years TEXT,
			total INTEGER NOT NULL,
			status TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS attempts (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			name TEXT NOT NULL,
			outcome TEXT NOT NULL,
			count INTEGER NOT NULL,
			proxy TEXT,
			user_agent TEXT,
			duration_ms INTEGER,
			at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_run_id ON attempts(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// StartRun records a new running run and returns its id.
func (s *Store) StartRun(ctx context.Context, cfg types.RunConfig) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, venue, names_path, years, total, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, cfg.Venue, cfg.NamesPath, cfg.YearRange(), len(cfg.Names),
		string(StatusRunning), s.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	return id, nil
}

// Record appends one attempt to a run.
func (s *Store) Record(ctx context.Context, runID string, a types.AttemptResult) error {
	at := a.At
	if at.IsZero() {
		at = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (run_id, name, outcome, count, proxy, user_agent, duration_ms, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, a.Name, a.Outcome.String(), a.Count, a.Proxy, a.UserAgent,
		a.Duration.Milliseconds(), at.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting attempt for %s: %w", a.Name, err)
	}
	return nil
}

// FinishRun sets the final status of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, status Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`,
		string(status), s.now().UTC().Format(timeLayout), runID,
	)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	return nil
}

// Runs returns the most recent runs first. limit <= 0 returns all runs.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, venue, names_path, years, total, status, started_at, COALESCE(finished_at, '')
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns one run by id.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, venue, names_path, years, total, status, started_at, COALESCE(finished_at, '')
		 FROM runs WHERE id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r                 Run
		status            string
		started, finished string
	)
	if err := sc.Scan(&r.ID, &r.Venue, &r.NamesPath, &r.Years, &r.Total, &status, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scanning run: %w", err)
	}
	r.Status = Status(status)
	r.StartedAt, _ = time.Parse(timeLayout, started)
	if finished != "" {
		r.FinishedAt, _ = time.Parse(timeLayout, finished)
	}
	return r, nil
}

// Attempts returns the attempts of a run in the order they were made.
func (s *Store) Attempts(ctx context.Context, runID string) ([]types.AttemptResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, outcome, count, COALESCE(proxy, ''), COALESCE(user_agent, ''), duration_ms, at
		 FROM attempts WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying attempts: %w", err)
	}
	defer rows.Close()

	var out []types.AttemptResult
	for rows.Next() {
		var (
			a       types.AttemptResult
			outcome string
			ms      int64
			at      string
		)
		if err := rows.Scan(&a.Name, &outcome, &a.Count, &a.Proxy, &a.UserAgent, &ms, &at); err != nil {
			return nil, fmt.Errorf("scanning attempt: %w", err)
		}
		o, err := types.ParseOutcome(outcome)
		if err != nil {
			return nil, fmt.Errorf("attempt %s: %w", a.Name, err)
		}
		a.Outcome = o
		a.Duration = time.Duration(ms) * time.Millisecond
		a.At, _ = time.Parse(timeLayout, at)
		out = append(out, a)
	}
	return out, rows.Err()
}
