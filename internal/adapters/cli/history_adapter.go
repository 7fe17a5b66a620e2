package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/example/dotscaffold/internal/ports/primary"
	"github.com/example/dotscaffold/internal/ports/secondary"
)

// HistoryAdapter is a thin adapter that translates CLI operations to
// ScaffoldService journal queries.
type HistoryAdapter struct {
	service primary.ScaffoldService
	out     io.Writer
}

// NewHistoryAdapter creates a new HistoryAdapter with the given service.
func NewHistoryAdapter(service primary.ScaffoldService, out io.Writer) *HistoryAdapter {
	return &HistoryAdapter{
		service: service,
		out:     out,
	}
}

// List prints the newest runs first, at most limit (0 = all).
func (a *HistoryAdapter) List(ctx context.Context, limit int) ([]*primary.RunSummary, error) {
	runs, err := a.service.History(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(a.out, "No scaffold runs recorded.")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Scaffold your first project:")
		fmt.Fprintln(a.out, "  dotscaffold new --name Shop --path ~/src")
		return runs, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tPROJECT\tSTATE\tFAILED\tSKIPPED\tSTARTED\tPATH")
	fmt.Fprintln(w, "--\t-------\t-----\t------\t-------\t-------\t----")

	for _, run := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\t%s\n",
			run.ID,
			run.ProjectName,
			colorState(run.State),
			run.Failed,
			run.Skipped,
			run.StartedAt,
			run.TargetPath,
		)
	}

	w.Flush()
	return runs, nil
}

// Show prints every step of one run. With failedOnly, successful steps are
// left out.
func (a *HistoryAdapter) Show(ctx context.Context, runID int64, failedOnly bool) ([]*primary.StepSummary, error) {
	steps, err := a.service.RunSteps(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run %d: %w", runID, err)
	}
	if len(steps) == 0 {
		fmt.Fprintf(a.out, "Run %d has no recorded steps.\n", runID)
		return steps, nil
	}

	fmt.Fprintf(a.out, "\nRun %d\n\n", runID)
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PHASE\tSTEP\tSTATUS\tDURATION\tMESSAGE")
	for _, s := range steps {
		if failedOnly && s.Status == "ok" {
			continue
		}
		msg := s.Message
		if s.ErrorKind != "" {
			msg = s.ErrorKind + " " + msg
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.Phase, s.StepID, colorStatus(s.Status), s.Duration, msg)
	}
	w.Flush()
	fmt.Fprintln(a.out)

	return steps, nil
}

func colorState(state string) string {
	switch state {
	case secondary.RunStateDone:
		return color.New(color.FgGreen).Sprint(state)
	case secondary.RunStatePartiallyCompleted:
		return color.New(color.FgYellow).Sprint(state)
	case secondary.RunStateRunning:
		return color.New(color.FgCyan).Sprint(state)
	default:
		return state
	}
}

func colorStatus(status string) string {
	switch status {
	case "ok":
		return color.New(color.FgGreen).Sprint(status)
	case "failed":
		return color.New(color.FgRed).Sprint(status)
	case "skipped":
		return color.New(color.FgYellow).Sprint(status)
	default:
		return status
	}
}
