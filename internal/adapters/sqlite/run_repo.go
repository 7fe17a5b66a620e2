// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/dotscaffold/internal/ports/secondary"
)

// RunRepository implements secondary.RunJournal with SQLite.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new SQLite run journal.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

var _ secondary.RunJournal = (*RunRepository)(nil)

const runColumns = "id, project_name, target_path, state, modes, skip_restore, skip_git, started_at, finished_at"

// CreateRun persists a new run in the running state.
func (r *RunRepository) CreateRun(ctx context.Context, run *secondary.RunRecord) (int64, error) {
	var modes sql.NullString
	if run.Modes != "" {
		modes = sql.NullString{String: run.Modes, Valid: true}
	}
	startedAt := run.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO runs (project_name, target_path, state, modes, skip_restore, skip_git, started_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		run.ProjectName, run.TargetPath, secondary.RunStateRunning, modes, run.SkipRestore, run.SkipGit, startedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}
	return id, nil
}

// RecordStep appends a step event.
func (r *RunRepository) RecordStep(ctx context.Context, step *secondary.StepRecord) error {
	var message, errorKind sql.NullString
	if step.Message != "" {
		message = sql.NullString{String: step.Message, Valid: true}
	}
	if step.ErrorKind != "" {
		errorKind = sql.NullString{String: step.ErrorKind, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO steps (run_id, phase, step_id, status, message, error_kind, duration_ms) VALUES (?, ?, ?, ?, ?, ?, ?)",
		step.RunID, step.Phase, step.StepID, step.Status, message, errorKind, step.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record step %s: %w", step.StepID, err)
	}
	return nil
}

// FinishRun moves a run to a final state.
func (r *RunRepository) FinishRun(ctx context.Context, runID int64, state string, finishedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE runs SET state = ?, finished_at = ? WHERE id = ?",
		state, finishedAt.UTC(), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %d not found", runID)
	}
	return nil
}

// FindActiveRun returns the newest running run for targetPath, or nil, nil.
func (r *RunRepository) FindActiveRun(ctx context.Context, targetPath string) (*secondary.RunRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE target_path = ? AND state = ? ORDER BY id DESC LIMIT 1",
		targetPath, secondary.RunStateRunning,
	)
	record, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil // Return nil, nil for "not found" to distinguish from errors
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active run: %w", err)
	}
	return record, nil
}

// ListRuns returns the newest runs first.
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]*secondary.RunRecord, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*secondary.RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, record)
	}
	return runs, rows.Err()
}

// ListSteps returns the step events of a run in recording order.
func (r *RunRepository) ListSteps(ctx context.Context, runID int64) ([]*secondary.StepRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT run_id, phase, step_id, status, message, error_kind, duration_ms FROM steps WHERE run_id = ? ORDER BY id ASC",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	defer rows.Close()

	var steps []*secondary.StepRecord
	for rows.Next() {
		var (
			message    sql.NullString
			errorKind  sql.NullString
			durationMS int64
		)
		record := &secondary.StepRecord{}
		if err := rows.Scan(&record.RunID, &record.Phase, &record.StepID, &record.Status, &message, &errorKind, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		record.Message = message.String
		record.ErrorKind = errorKind.String
		record.Duration = time.Duration(durationMS) * time.Millisecond
		steps = append(steps, record)
	}
	return steps, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*secondary.RunRecord, error) {
	var (
		modes      sql.NullString
		finishedAt sql.NullTime
	)
	record := &secondary.RunRecord{}
	err := row.Scan(&record.ID, &record.ProjectName, &record.TargetPath, &record.State, &modes,
		&record.SkipRestore, &record.SkipGit, &record.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	record.Modes = modes.String
	if finishedAt.Valid {
		record.FinishedAt = finishedAt.Time
	}
	return record, nil
}
