package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrRunNotFound is returned by GetRun for an unknown ID.
var ErrRunNotFound = errors.New("run not found")

// ListRuns returns the most recent runs, oldest first. A non-empty
// scenario keeps only runs of that scenario. A limit of zero or less
// returns every run. Steps are not loaded.
func (s *Store) ListRuns(ctx context.Context, scenario string, limit int) ([]Run, error) {
	query := `
		SELECT id, seq, scenario, code, outcome, message, joined, entries, fields, notifications
		FROM (
			SELECT * FROM runs
			WHERE ?1 = '' OR scenario = ?1
			ORDER BY seq DESC, id COLLATE BINARY DESC
			LIMIT ?2
		)
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, query, scenario, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run with its steps in seq order.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, scenario, code, outcome, message, joined, entries, fields, notifications
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}

	steps, err := s.readSteps(ctx, id)
	if err != nil {
		return Run{}, err
	}
	run.Steps = steps
	return run, nil
}

func (s *Store) readSteps(ctx context.Context, runID string) ([]Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, op, status
		FROM run_steps
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	steps := []Step{}
	for rows.Next() {
		var step Step
		if err := rows.Scan(&step.Seq, &step.Op, &step.Status); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (Run, error) {
	var run Run
	var fieldsJSON string
	err := r.Scan(
		&run.ID,
		&run.Seq,
		&run.Scenario,
		&run.Code,
		&run.Outcome,
		&run.Message,
		&run.Joined,
		&run.Entries,
		&fieldsJSON,
		&run.Notifications,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	run.Fields = map[string]string{}
	if err := json.Unmarshal([]byte(fieldsJSON), &run.Fields); err != nil {
		return Run{}, fmt.Errorf("unmarshal fields of run %s: %w", run.ID, err)
	}
	return run, nil
}
