// Package history records successful runs in a SQLite database so earlier
// shopping lists can be listed and shown again.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

// DBFile is the database file name inside the data directory.
const DBFile = "history.db"

// Sentinel errors.
var (
	ErrClosed       = errors.New("history store is closed")
	ErrRunNotFound  = errors.New("run not found")
	ErrAmbiguousRun = errors.New("run id prefix is ambiguous")
	ErrInvalidID    = errors.New("invalid run id")
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    plan_path TEXT NOT NULL,
    start_date TEXT NOT NULL,
    dialect TEXT NOT NULL,
    servings INTEGER NOT NULL,
    output TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS run_entries (
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    contributions TEXT NOT NULL,
    PRIMARY KEY (run_id, position),
    FOREIGN KEY (run_id) REFERENCES runs(run_id)
);`

// Run is one recorded pipeline run. Entries is only populated by Show.
type Run struct {
	ID        string                  `json:"id"`
	CreatedAt time.Time               `json:"created_at"`
	PlanPath  string                  `json:"plan_path"`
	Start     time.Time               `json:"start"`
	Dialect   string                  `json:"dialect"`
	Servings  int                     `json:"servings"`
	Output    string                  `json:"output"`
	Entries   []types.AggregatedEntry `json:"entries,omitempty"`
}

// Store is a SQLite-backed run history.
type Store struct {
	mu  sync.RWMutex
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the history database in dataDir.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dataDir, DBFile))
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Record stores a run and returns its generated UUID v7.
func (s *Store) Record(ctx context.Context, run Run) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return "", ErrClosed
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating UUID v7: %w", err)
	}
	run.ID = id.String()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (run_id, created_at, plan_path, start_date, dialect, servings, output) VALUES (?, ?, ?, ?, ?, ?, ?)",
		run.ID, run.CreatedAt.UTC().Format(time.RFC3339Nano), run.PlanPath,
		run.Start.Format(time.DateOnly), run.Dialect, run.Servings, run.Output,
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	for i, e := range run.Entries {
		contribs, err := json.Marshal(e.Contributions)
		if err != nil {
			return "", fmt.Errorf("marshal contributions of %s: %w", e.Name, err)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO run_entries (run_id, position, name, contributions) VALUES (?, ?, ?, ?)",
			run.ID, i, e.Name, string(contribs),
		)
		if err != nil {
			return "", fmt.Errorf("inserting entry %s: %w", e.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return run.ID, nil
}

// List returns recorded runs, newest first, without their entries. A limit
// of zero or less returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	query := "SELECT run_id, created_at, plan_path, start_date, dialect, servings, output FROM runs ORDER BY run_id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := hydrateRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Show returns one run with its entries. id may be a unique prefix of the
// full run id.
func (s *Store) Show(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	if id == "" || strings.ContainsAny(id, "%_") {
		return nil, ErrInvalidID
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, created_at, plan_path, start_date, dialect, servings, output FROM runs WHERE run_id LIKE ? ORDER BY run_id LIMIT 2",
		id+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", id, err)
	}
	var matches []Run
	for rows.Next() {
		run, err := hydrateRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		matches = append(matches, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 2:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousRun, id)
	}

	run := matches[0]
	entries, err := s.entries(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	run.Entries = entries
	return &run, nil
}

func (s *Store) entries(ctx context.Context, runID string) ([]types.AggregatedEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, contributions FROM run_entries WHERE run_id = ? ORDER BY position",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying entries of %s: %w", runID, err)
	}
	defer rows.Close()

	var out []types.AggregatedEntry
	for rows.Next() {
		var (
			e        types.AggregatedEntry
			contribs string
		)
		if err := rows.Scan(&e.Name, &contribs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(contribs), &e.Contributions); err != nil {
			return nil, fmt.Errorf("decoding contributions of %s: %w", e.Name, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func hydrateRun(rows *sql.Rows) (Run, error) {
	var (
		r                  Run
		createdAt, started string
	)
	if err := rows.Scan(&r.ID, &createdAt, &r.PlanPath, &started, &r.Dialect, &r.Servings, &r.Output); err != nil {
		return Run{}, err
	}
	var err error
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Run{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if r.Start, err = time.Parse(time.DateOnly, started); err != nil {
		return Run{}, fmt.Errorf("parsing start_date: %w", err)
	}
	return r, nil
}
