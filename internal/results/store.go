package results

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store is the durable results log. Uses SQLite with WAL mode so the
// trace command can read while a run is still writing.
type Store struct {
	db *sql.DB
}

// OpenStore creates or opens the results database at path. Pragmas and
// schema are applied automatically; calling it twice on the same path is
// safe.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY between the run loop and its own reads.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Run is one recorded harness run.
type Run struct {
	ID        string
	Suite     string
	StartedAt time.Time
	Seed      int64
}

// BeginRun records the start of a run and returns its row.
func (s *Store) BeginRun(ctx context.Context, id, suite string, seed int64) (*Run, error) {
	started := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, suite, started_at, seed) VALUES (?, ?, ?, ?)`,
		id, suite, started.Format(time.RFC3339), seed,
	)
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	return &Run{ID: id, Suite: suite, StartedAt: started, Seed: seed}, nil
}

// WriteOutcome appends one outcome to a run. seq is the zero-based
// position of the scenario within the run; (run_id, seq) is unique.
func (s *Store) WriteOutcome(ctx context.Context, runID string, seq int, o Outcome) error {
	var latency any
	if o.LatencyNs != nil {
		latency = *o.LatencyNs
	}
	var qual any
	if o.Quality != nil {
		qual = *o.Quality
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outcomes
		(run_id, seq, scenario, passed, error_observed, latency_ns, quality, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, seq, o.Scenario, o.Passed, o.ErrorObserved, latency, qual, o.Detail)
	if err != nil {
		return fmt.Errorf("write outcome: %w", err)
	}
	return nil
}

// GetRun looks up one run by ID. Returns sql.ErrNoRows when absent.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	var r Run
	var started string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, suite, started_at, seed FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.Suite, &started, &r.Seed)
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	if t, perr := time.Parse(time.RFC3339, started); perr == nil {
		r.StartedAt = t
	}
	return r, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, suite, started_at, seed FROM runs ORDER BY started_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &r.Suite, &started, &r.Seed); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		if t, perr := time.Parse(time.RFC3339, started); perr == nil {
			r.StartedAt = t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ReadOutcomes returns the outcomes of one run in recording order.
func (s *Store) ReadOutcomes(ctx context.Context, runID string) ([]Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scenario, passed, error_observed, latency_ns, quality, detail
		FROM outcomes WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []Outcome
	for rows.Next() {
		var o Outcome
		var latency sql.NullInt64
		var qual sql.NullFloat64
		if err := rows.Scan(&o.Scenario, &o.Passed, &o.ErrorObserved, &latency, &qual, &o.Detail); err != nil {
			return nil, fmt.Errorf("read outcomes: %w", err)
		}
		if latency.Valid {
			v := latency.Int64
			o.LatencyNs = &v
		}
		if qual.Valid {
			v := qual.Float64
			o.Quality = &v
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}
