// Package sqlite keeps a cross-run ledger of run reports in a SQLite
// database, so spend can be tracked over many runs.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/blueprint"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	model         TEXT NOT NULL,
	input_rate    REAL NOT NULL,
	output_rate   REAL NOT NULL,
	started_at    TEXT NOT NULL,
	elapsed_ns    INTEGER NOT NULL,
	duration_ns   INTEGER NOT NULL,
	input_tokens  INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	total_tokens  INTEGER NOT NULL,
	cost          REAL NOT NULL,
	error         TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS steps (
	run_id        TEXT NOT NULL,
	position      INTEGER NOT NULL,
	stage         TEXT NOT NULL,
	name          TEXT NOT NULL,
	duration_ns   INTEGER NOT NULL,
	input_tokens  INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	total_tokens  INTEGER NOT NULL,
	cost          REAL NOT NULL,
	PRIMARY KEY (run_id, position),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

// ErrDuplicateRun is returned when a report with the same run ID was already
// saved.
var ErrDuplicateRun = errors.New("sqlite: run already recorded")

// Ledger stores run reports.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: set WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Save records r and its steps in a single transaction.
func (l *Ledger) Save(ctx context.Context, r blueprint.Report) error {
	var exists int
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE run_id = ?`, r.RunID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateRun, r.RunID)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, model, input_rate, output_rate, started_at, elapsed_ns,
			duration_ns, input_tokens, output_tokens, total_tokens, cost, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Model, r.Pricing.InputPerMillion, r.Pricing.OutputPerMillion,
		r.StartedAt.UTC().Format(time.RFC3339Nano), int64(r.Elapsed),
		int64(r.Totals.Duration), r.Totals.InputTokens, r.Totals.OutputTokens,
		r.Totals.TotalTokens, r.Totals.Cost, r.Err,
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert run: %w", err)
	}

	for i, s := range r.Steps {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO steps (run_id, position, stage, name, duration_ns,
				input_tokens, output_tokens, total_tokens, cost)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RunID, i, string(s.Stage), s.Name, int64(s.Duration),
			s.InputTokens, s.OutputTokens, s.TotalTokens, s.Cost,
		)
		if err != nil {
			return fmt.Errorf("sqlite: insert step %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// Runs returns up to limit most recent reports, newest first, with their
// steps in recorded order. A limit of zero or less returns every run.
func (l *Ledger) Runs(ctx context.Context, limit int) ([]blueprint.Report, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT run_id, model, input_rate, output_rate, started_at, elapsed_ns,
			duration_ns, input_tokens, output_tokens, total_tokens, cost, error
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query runs: %w", err)
	}
	defer rows.Close()

	var reports []blueprint.Report
	for rows.Next() {
		var (
			r         blueprint.Report
			startedAt string
			elapsed   int64
			duration  int64
		)
		if err := rows.Scan(
			&r.RunID, &r.Model, &r.Pricing.InputPerMillion, &r.Pricing.OutputPerMillion,
			&startedAt, &elapsed, &duration, &r.Totals.InputTokens, &r.Totals.OutputTokens,
			&r.Totals.TotalTokens, &r.Totals.Cost, &r.Err,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scan run: %w", err)
		}
		r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("sqlite: run %s: parse started_at: %w", r.RunID, err)
		}
		r.Elapsed = time.Duration(elapsed)
		r.Totals.Duration = time.Duration(duration)
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	rows.Close()

	for i := range reports {
		steps, err := l.steps(ctx, reports[i].RunID)
		if err != nil {
			return nil, err
		}
		reports[i].Steps = steps
	}
	return reports, nil
}

func (l *Ledger) steps(ctx context.Context, runID string) ([]blueprint.Step, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT stage, name, duration_ns, input_tokens, output_tokens, total_tokens, cost
		FROM steps
		WHERE run_id = ?
		ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query steps: %w", err)
	}
	defer rows.Close()

	var steps []blueprint.Step
	for rows.Next() {
		var (
			s        blueprint.Step
			stage    string
			duration int64
		)
		if err := rows.Scan(&stage, &s.Name, &duration, &s.InputTokens, &s.OutputTokens, &s.TotalTokens, &s.Cost); err != nil {
			return nil, fmt.Errorf("sqlite: scan step: %w", err)
		}
		s.Stage = blueprint.StageID(stage)
		s.Duration = time.Duration(duration)
		steps = append(steps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	return steps, nil
}

// Spend sums the totals of every recorded run.
func (l *Ledger) Spend(ctx context.Context) (blueprint.Totals, error) {
	var (
		t        blueprint.Totals
		duration int64
	)
	err := l.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(duration_ns), 0), COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0), COALESCE(SUM(total_tokens), 0),
			COALESCE(SUM(cost), 0.0)
		FROM runs`).Scan(&duration, &t.InputTokens, &t.OutputTokens, &t.TotalTokens, &t.Cost)
	if err != nil {
		return blueprint.Totals{}, fmt.Errorf("sqlite: sum runs: %w", err)
	}
	t.Duration = time.Duration(duration)
	return t, nil
}
