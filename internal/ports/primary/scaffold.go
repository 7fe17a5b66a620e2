package primary

import (
	"context"

	"github.com/example/dotscaffold/internal/core/scaffold"
	"github.com/example/dotscaffold/internal/orchestrator"
)

// ScaffoldService defines the primary port for scaffold runs.
type ScaffoldService interface {
	// Scaffold validates req, then builds the project tree. A returned report
	// is always non-nil; the error is nil only when every step succeeded.
	Scaffold(ctx context.Context, req ScaffoldRequest, opts ScaffoldOptions) (*ScaffoldReport, error)

	// History lists past runs, newest first.
	History(ctx context.Context, limit int) ([]*RunSummary, error)

	// RunSteps lists the step events of one run.
	RunSteps(ctx context.Context, runID int64) ([]*StepSummary, error)
}

// ScaffoldRequest is the fully populated operator input.
type ScaffoldRequest struct {
	ProjectName string
	DBUser      string
	DBPassword  string
	RootPath    string
}

// ScaffoldOptions tune one run.
type ScaffoldOptions struct {
	SkipRestore bool
	SkipGit     bool
	Force       bool
	Modes       scaffold.Modes
}

// State is a stage of the scaffold driver.
type State string

const (
	StateValidatingInput    State = "ValidatingInput"
	StateBuildingSkeleton   State = "BuildingSkeleton"
	StateRunningToolchain   State = "RunningToolchain"
	StateWritingTemplates   State = "WritingTemplates"
	StateCommittingRepo     State = "CommittingRepo"
	StateDone               State = "Done"
	StateAborted            State = "Aborted"
	StatePartiallyCompleted State = "PartiallyCompleted"
)

// ScaffoldReport is the outcome of a run.
type ScaffoldReport struct {
	RunID      int64 // 0 when the run was never journaled
	State      State
	OutputPath string
	Events     []orchestrator.StepEvent
}

// Failed returns the failed events.
func (r *ScaffoldReport) Failed() []orchestrator.StepEvent {
	var out []orchestrator.StepEvent
	for _, ev := range r.Events {
		if ev.Status == orchestrator.StatusFailed {
			out = append(out, ev)
		}
	}
	return out
}

// RunSummary is a journaled run at the port boundary.
type RunSummary struct {
	ID          int64
	ProjectName string
	TargetPath  string
	State       string
	Modes       string
	StartedAt   string
	FinishedAt  string
	Failed      int
	Skipped     int
}

// StepSummary is a journaled step at the port boundary.
type StepSummary struct {
	Phase     string
	StepID    string
	Status    string
	Message   string
	ErrorKind string
	Duration  string
}
