package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/popframe/internal/trace"
)

// WriteRun journals run and its steps in one transaction and returns the
// stored ID. An empty run.ID is filled from the store's IDGenerator. The
// journal seq is always assigned here.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: writing a run whose ID
// already exists leaves the journal unchanged.
func (s *Store) WriteRun(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = s.ids.Generate()
	}
	if run.Fields == nil {
		run.Fields = map[string]string{}
	}
	fieldsJSON, err := trace.MarshalCanonical(run.Fields)
	if err != nil {
		return "", fmt.Errorf("write run: marshal fields: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return "", fmt.Errorf("write run: next seq: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, scenario, code, outcome, message, joined, entries, fields, notifications)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		seq,
		run.Scenario,
		run.Code,
		run.Outcome,
		run.Message,
		run.Joined,
		run.Entries,
		string(fieldsJSON),
		run.Notifications,
	)
	if err != nil {
		return "", fmt.Errorf("write run: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return "", fmt.Errorf("write run: %w", err)
	} else if n == 0 {
		return run.ID, nil
	}

	if err := writeSteps(ctx, tx, run.ID, run.Steps); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write run: commit: %w", err)
	}
	return run.ID, nil
}

func writeSteps(ctx context.Context, tx *sql.Tx, runID string, steps []Step) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_steps (run_id, seq, op, status)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write steps: %w", err)
	}
	defer stmt.Close()

	for _, step := range steps {
		if _, err := stmt.ExecContext(ctx, runID, step.Seq, step.Op, step.Status); err != nil {
			return fmt.Errorf("write step %d: %w", step.Seq, err)
		}
	}
	return nil
}
