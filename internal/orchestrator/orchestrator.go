// Package orchestrator drives the build toolchain through the ordered
// create / register / reference / package phases of a scaffold.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/dotscaffold/internal/core/effects"
	"github.com/example/dotscaffold/internal/core/layout"
	"github.com/example/dotscaffold/internal/core/scaffold"
	serrors "github.com/example/dotscaffold/internal/errors"
	"github.com/example/dotscaffold/internal/toolchain"
)

// Executor performs effects in sequence. A command that exits non-zero must
// come back as an error.
type Executor interface {
	Execute(ctx context.Context, effs []effects.Effect) error
}

// Status is the outcome of one step.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// StepEvent records what happened to one planned step.
type StepEvent struct {
	Phase       scaffold.Phase
	StepID      string
	Description string
	Status      Status
	Err         error
	Duration    time.Duration
}

// Observer is notified as steps start and finish.
type Observer interface {
	StepStarted(step scaffold.Step)
	StepFinished(ev StepEvent)
}

// Report summarizes a Run.
type Report struct {
	Events    []StepEvent
	Stopped   bool           // a fail-fast phase stopped the run
	StoppedAt scaffold.Phase // phase that stopped the run
}

// Count returns the number of events with status s.
func (r Report) Count(s Status) int {
	n := 0
	for _, ev := range r.Events {
		if ev.Status == s {
			n++
		}
	}
	return n
}

// OK reports whether every step succeeded.
func (r Report) OK() bool {
	return r.Count(StatusOK) == len(r.Events)
}

// Orchestrator binds a toolchain to an executor.
type Orchestrator struct {
	toolchain *toolchain.Toolchain
	executor  Executor
	now       func() time.Time
}

// New creates an Orchestrator.
func New(tc *toolchain.Toolchain, executor Executor) *Orchestrator {
	return &Orchestrator{toolchain: tc, executor: executor, now: time.Now}
}

// Toolchain returns the bound toolchain.
func (o *Orchestrator) Toolchain() *toolchain.Toolchain {
	return o.toolchain
}

// CreateSolution creates the solution container inside dir.
func (o *Orchestrator) CreateSolution(ctx context.Context, name, dir string) error {
	cmd, err := o.toolchain.CreateSolution(name, dir)
	if err != nil {
		return serrors.Wrap(serrors.EInternal, "failed to build create-solution command", err)
	}
	return o.invoke(ctx, cmd)
}

// CreateModule creates one module from its project template.
func (o *Orchestrator) CreateModule(ctx context.Context, m layout.Module, skipRestore bool) error {
	cmd, err := o.toolchain.CreateModule(m.Template, m.Name, m.Dir, skipRestore)
	if err != nil {
		return serrors.Wrap(serrors.EInternal, "failed to build create-module command", err)
	}
	return o.invoke(ctx, cmd)
}

// AddModuleToSolution registers a module file with the solution file.
func (o *Orchestrator) AddModuleToSolution(ctx context.Context, solutionFile, moduleFile string) error {
	cmd, err := o.toolchain.AddModuleToSolution(solutionFile, moduleFile)
	if err != nil {
		return serrors.Wrap(serrors.EInternal, "failed to build add-module-to-solution command", err)
	}
	return o.invoke(ctx, cmd)
}

// AddReference declares that fromModuleFile depends on toModuleFile.
func (o *Orchestrator) AddReference(ctx context.Context, fromModuleFile, toModuleFile string) error {
	cmd, err := o.toolchain.AddReference(fromModuleFile, toModuleFile)
	if err != nil {
		return serrors.Wrap(serrors.EInternal, "failed to build add-reference command", err)
	}
	return o.invoke(ctx, cmd)
}

// AddPackage adds a package pinned to version.
func (o *Orchestrator) AddPackage(ctx context.Context, moduleFile, pkg, version string) error {
	cmd, err := o.toolchain.AddPackage(moduleFile, pkg, version)
	if err != nil {
		return serrors.Wrap(serrors.EInternal, "failed to build add-package command", err)
	}
	return o.invoke(ctx, cmd)
}

func (o *Orchestrator) invoke(ctx context.Context, e effects.Effect) error {
	return asToolError(o.executor.Execute(ctx, []effects.Effect{e}))
}

// PlanOptions tune the generated toolchain plan.
type PlanOptions struct {
	SkipRestore bool
	Modes       scaffold.Modes
}

// Plan returns the five ordered toolchain phases for l.
func (o *Orchestrator) Plan(l layout.Layout, opts PlanOptions) (scaffold.ToolchainPlan, error) {
	return scaffold.GenerateToolchainPlan(scaffold.ToolchainPlanInput{
		Layout:      l,
		Toolchain:   o.toolchain,
		SkipRestore: opts.SkipRestore,
		Modes:       opts.Modes,
	})
}

// Run executes plan phase by phase, each step in declaration order.
// A step whose needed artifact failed or was skipped is skipped without
// running. A failure in a fail-fast phase stops the run; remaining steps are
// reported as skipped. obs may be nil.
func (o *Orchestrator) Run(ctx context.Context, plan scaffold.ToolchainPlan, obs Observer) Report {
	var report Report
	unavailable := make(map[string]string) // artifact -> step that did not provide it

	for _, phase := range plan.Phases {
		for _, step := range phase.Steps {
			if report.Stopped {
				report.Events = append(report.Events, o.finish(obs, step, StatusSkipped,
					fmt.Errorf("run stopped after %s phase failure", report.StoppedAt), 0))
				continue
			}

			if missing := missingNeeds(step, unavailable); len(missing) > 0 {
				if step.Provides != "" {
					unavailable[step.Provides] = step.ID
				}
				report.Events = append(report.Events, o.finish(obs, step, StatusSkipped,
					fmt.Errorf("needs %s", strings.Join(missing, ", ")), 0))
				continue
			}

			if obs != nil {
				obs.StepStarted(step)
			}
			start := o.now()
			err := asToolError(o.executor.Execute(ctx, []effects.Effect{step.Effect}))
			elapsed := o.now().Sub(start)

			if err != nil {
				if step.Provides != "" {
					unavailable[step.Provides] = step.ID
				}
				report.Events = append(report.Events, o.finish(obs, step, StatusFailed, err, elapsed))
				if phase.Mode == scaffold.FailFast || step.MustSucceed {
					report.Stopped = true
					report.StoppedAt = phase.Phase
				}
				continue
			}
			report.Events = append(report.Events, o.finish(obs, step, StatusOK, nil, elapsed))
		}
	}
	return report
}

func (o *Orchestrator) finish(obs Observer, step scaffold.Step, status Status, err error, d time.Duration) StepEvent {
	ev := StepEvent{
		Phase:       step.Phase,
		StepID:      step.ID,
		Description: step.Description,
		Status:      status,
		Err:         err,
		Duration:    d,
	}
	if obs != nil {
		obs.StepFinished(ev)
	}
	return ev
}

// missingNeeds returns the needs of step whose providing step did not succeed.
func missingNeeds(step scaffold.Step, unavailable map[string]string) []string {
	var missing []string
	for _, need := range step.Needs {
		if by, ok := unavailable[need]; ok {
			missing = append(missing, fmt.Sprintf("%s (from %s)", need, by))
		}
	}
	return missing
}

// asToolError classifies unclassified executor failures as tool invocation
// errors.
func asToolError(err error) error {
	if err == nil {
		return nil
	}
	var se *serrors.ScaffoldError
	if errors.As(err, &se) {
		return err
	}
	return serrors.Wrap(serrors.EToolInvocation, "toolchain step failed", err)
}
