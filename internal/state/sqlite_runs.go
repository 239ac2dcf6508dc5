package state

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// RecordRun stores a preview run and its step outcomes in one transaction.
// A missing ID or CreatedAt is filled in. The session row is created if it
// does not exist yet.
func (s *SQLiteStore) RecordRun(ctx context.Context, run *Run) error {
	if s.db == nil {
		return errNotOpened
	}
	if run.ID == "" {
		run.ID = generateID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	s.logger.Debug("recording run",
		slog.String("id", run.ID),
		slog.String("session", run.SessionID),
		slog.Int("steps", run.StepCount),
		slog.Int("skipped", run.Skipped))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)`,
		run.SessionID, run.CreatedAt, run.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to ensure session: %w", err)
	}

	var errMsg *string
	if run.Error != "" {
		errMsg = &run.Error
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO preview_runs
		   (id, session_id, step_count, applied, skipped, row_count, column_count, duration_ms, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SessionID, run.StepCount, run.Applied, run.Skipped,
		run.Rows, run.Columns, run.DurationMS, errMsg, run.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, st := range run.Steps {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO preview_steps (run_id, position, step_id, operation, column_name, status, reason)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, st.Position, st.StepID, st.Operation, st.Column, st.Status, st.Reason,
		); err != nil {
			return fmt.Errorf("failed to insert step %d: %w", st.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs of a session, newest first, with
// their step outcomes. A limit of zero or less returns every run.
func (s *SQLiteStore) ListRuns(ctx context.Context, sessionID string, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, step_count, applied, skipped, row_count, column_count, duration_ms, error, created_at
		 FROM preview_runs WHERE session_id = ? ORDER BY created_at DESC, id LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	byID := make(map[string]*Run)
	for rows.Next() {
		run := &Run{}
		var errMsg sql.NullString
		if err := rows.Scan(&run.ID, &run.SessionID, &run.StepCount, &run.Applied, &run.Skipped,
			&run.Rows, &run.Columns, &run.DurationMS, &errMsg, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Error = errMsg.String
		runs = append(runs, run)
		byID[run.ID] = run
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		return runs, nil
	}

	if err := s.attachSteps(ctx, sessionID, byID); err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *SQLiteStore) attachSteps(ctx context.Context, sessionID string, byID map[string]*Run) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ps.run_id, ps.position, ps.step_id, ps.operation, ps.column_name, ps.status, ps.reason
		 FROM preview_steps ps
		 JOIN preview_runs pr ON pr.id = ps.run_id
		 WHERE pr.session_id = ?
		 ORDER BY ps.run_id, ps.position`,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to list run steps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var runID string
		var st StepOutcome
		if err := rows.Scan(&runID, &st.Position, &st.StepID, &st.Operation, &st.Column, &st.Status, &st.Reason); err != nil {
			return fmt.Errorf("failed to scan run step: %w", err)
		}
		if run, ok := byID[runID]; ok {
			run.Steps = append(run.Steps, st)
		}
	}
	return rows.Err()
}
