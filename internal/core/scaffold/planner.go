// This file contains the pure planner that turns a layout into the ordered
// toolchain command sequence.
package scaffold

import (
	"fmt"
	"path/filepath"

	"github.com/example/dotscaffold/internal/core/effects"
	"github.com/example/dotscaffold/internal/core/layout"
	"github.com/example/dotscaffold/internal/toolchain"
)

// ArtifactSolution is provided by the create-solution step.
const ArtifactSolution = "solution"

// ModuleArtifact names the artifact a create-module step provides.
func ModuleArtifact(kind layout.Kind) string {
	return "module:" + string(kind)
}

// Step is one planned toolchain invocation.
type Step struct {
	ID          string
	Phase       Phase
	Description string
	Needs       []string // artifacts that must exist before the step runs
	Provides    string   // artifact the step creates, if any
	MustSucceed bool
	Effect      effects.Effect
}

// PhasePlan is the ordered list of steps in one phase.
type PhasePlan struct {
	Phase Phase
	Mode  ErrorMode
	Steps []Step
}

// ToolchainPlan is the full command sequence, phase by phase.
type ToolchainPlan struct {
	Phases []PhasePlan
}

// StepCount returns the total number of steps.
func (p ToolchainPlan) StepCount() int {
	n := 0
	for _, ph := range p.Phases {
		n += len(ph.Steps)
	}
	return n
}

// ToolchainPlanInput contains everything the planner needs.
// All values are pre-computed by the caller - no I/O in the planner.
type ToolchainPlanInput struct {
	Layout      layout.Layout
	Toolchain   *toolchain.Toolchain
	SkipRestore bool
	Modes       Modes
	Edges       []layout.Edge
	Packages    []layout.PackageRef
}

// GenerateToolchainPlan creates the five toolchain phases: solution,
// modules, register, references, packages.
// Edges and Packages default to the fixed layout tables when nil.
func GenerateToolchainPlan(input ToolchainPlanInput) (ToolchainPlan, error) {
	edges := input.Edges
	if edges == nil {
		edges = layout.Edges
	}
	packages := input.Packages
	if packages == nil {
		packages = layout.Packages
	}
	if err := layout.ValidateAcyclic(edges); err != nil {
		return ToolchainPlan{}, err
	}

	tc := input.Toolchain
	l := input.Layout
	b := &planBuilder{modes: input.Modes}

	// 1. Solution container
	b.begin(PhaseSolution)
	cmd, err := tc.CreateSolution(l.ProjectName, l.Root)
	if err != nil {
		return ToolchainPlan{}, err
	}
	b.add(Step{
		ID:          "solution",
		Description: fmt.Sprintf("create solution %s", filepath.Base(l.SolutionFile)),
		Provides:    ArtifactSolution,
		Effect:      cmd,
	})

	// 2. Modules. Classlib templates drop a default class; removing it is a
	// separate step so a failed cleanup leaves the module usable.
	b.begin(PhaseModules)
	for _, m := range l.Modules {
		cmd, err := tc.CreateModule(m.Template, m.Name, m.Dir, input.SkipRestore)
		if err != nil {
			return ToolchainPlan{}, err
		}
		b.add(Step{
			ID:          "create:" + m.Name,
			Description: fmt.Sprintf("create %s module %s", m.Template, m.Name),
			Provides:    ModuleArtifact(m.Kind),
			Effect:      cmd,
		})
		if m.Template == layout.TemplateClassLib {
			b.add(Step{
				ID:          "cleanup:" + m.Name,
				Description: fmt.Sprintf("remove %s from %s", layout.DefaultClassFile, m.Name),
				Needs:       []string{ModuleArtifact(m.Kind)},
				Effect: effects.FileEffect{
					Operation: "remove_if_exists",
					Path:      filepath.Join(m.Dir, layout.DefaultClassFile),
				},
			})
		}
	}

	// 3. Register with the solution
	b.begin(PhaseRegister)
	for _, m := range l.Modules {
		cmd, err := tc.AddModuleToSolution(l.SolutionFile, m.File)
		if err != nil {
			return ToolchainPlan{}, err
		}
		b.add(Step{
			ID:          "register:" + m.Name,
			Description: fmt.Sprintf("add %s to solution", m.Name),
			Needs:       []string{ArtifactSolution, ModuleArtifact(m.Kind)},
			Effect:      cmd,
		})
	}

	// 4. Reference edges
	b.begin(PhaseReferences)
	for _, e := range edges {
		from, ok := l.Module(e.From)
		if !ok {
			return ToolchainPlan{}, fmt.Errorf("reference %s: unknown module %s", e, e.From)
		}
		to, ok := l.Module(e.To)
		if !ok {
			return ToolchainPlan{}, fmt.Errorf("reference %s: unknown module %s", e, e.To)
		}
		cmd, err := tc.AddReference(from.File, to.File)
		if err != nil {
			return ToolchainPlan{}, err
		}
		b.add(Step{
			ID:          "reference:" + e.String(),
			Description: fmt.Sprintf("reference %s from %s", to.Name, from.Name),
			Needs:       []string{ModuleArtifact(e.From), ModuleArtifact(e.To)},
			Effect:      cmd,
		})
	}

	// 5. Pinned packages
	b.begin(PhasePackages)
	for _, p := range packages {
		m, ok := l.Module(p.Module)
		if !ok {
			return ToolchainPlan{}, fmt.Errorf("package %s: unknown module %s", p.Name, p.Module)
		}
		cmd, err := tc.AddPackage(m.File, p.Name, p.Version)
		if err != nil {
			return ToolchainPlan{}, err
		}
		b.add(Step{
			ID:          fmt.Sprintf("package:%s/%s", p.Module, p.Name),
			Description: fmt.Sprintf("add package %s %s to %s", p.Name, p.Version, m.Name),
			Needs:       []string{ModuleArtifact(p.Module)},
			Effect:      cmd,
		})
	}

	return b.plan, nil
}

// planBuilder appends steps to the current phase and stamps the phase's
// error mode onto every step and command.
type planBuilder struct {
	modes Modes
	plan  ToolchainPlan
}

func (b *planBuilder) begin(p Phase) {
	b.plan.Phases = append(b.plan.Phases, PhasePlan{Phase: p, Mode: b.modes.For(p)})
}

func (b *planBuilder) add(s Step) {
	cur := &b.plan.Phases[len(b.plan.Phases)-1]
	s.Phase = cur.Phase
	s.MustSucceed = cur.Mode == FailFast
	s.Effect = markMustSucceed(s.Effect, s.MustSucceed)
	cur.Steps = append(cur.Steps, s)
}

func markMustSucceed(e effects.Effect, must bool) effects.Effect {
	switch eff := e.(type) {
	case effects.CommandEffect:
		eff.MustSucceed = must
		return eff
	case effects.CompositeEffect:
		out := make([]effects.Effect, len(eff.Effects))
		for i, inner := range eff.Effects {
			out[i] = markMustSucceed(inner, must)
		}
		return effects.CompositeEffect{Effects: out}
	default:
		return e
	}
}
