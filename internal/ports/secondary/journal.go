package secondary

import (
	"context"
	"time"
)

// Run states as stored in the journal.
const (
	RunStateRunning            = "running"
	RunStateDone               = "done"
	RunStatePartiallyCompleted = "partially_completed"
)

// RunRecord is one journaled scaffold run.
type RunRecord struct {
	ID          int64
	ProjectName string
	TargetPath  string
	State       string
	Modes       string // "phase=mode" pairs, empty for all best-effort
	SkipRestore bool
	SkipGit     bool
	StartedAt   time.Time
	FinishedAt  time.Time // zero while running
}

// StepRecord is one step event of a run.
type StepRecord struct {
	RunID     int64
	Phase     string
	StepID    string
	Status    string // ok, failed, skipped
	Message   string // Empty string means null
	ErrorKind string // Empty string means null
	Duration  time.Duration
}

// RunJournal records scaffold runs and their step events.
type RunJournal interface {
	// CreateRun persists a new run in the running state and returns its ID.
	CreateRun(ctx context.Context, run *RunRecord) (int64, error)

	// RecordStep appends a step event to a run.
	RecordStep(ctx context.Context, step *StepRecord) error

	// FinishRun moves a run to a final state.
	FinishRun(ctx context.Context, runID int64, state string, finishedAt time.Time) error

	// FindActiveRun returns the newest running run for targetPath, or nil.
	FindActiveRun(ctx context.Context, targetPath string) (*RunRecord, error)

	// ListRuns returns the newest runs first, at most limit (0 = all).
	ListRuns(ctx context.Context, limit int) ([]*RunRecord, error)

	// ListSteps returns the step events of a run in recording order.
	ListSteps(ctx context.Context, runID int64) ([]*StepRecord, error)
}
