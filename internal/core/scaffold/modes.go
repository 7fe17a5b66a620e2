package scaffold

import (
	"fmt"
	"sort"
	"strings"
)

// Phase names a unit of work that carries its own error mode.
type Phase string

const (
	PhaseSkeleton   Phase = "skeleton"
	PhaseSolution   Phase = "solution"
	PhaseModules    Phase = "modules"
	PhaseRegister   Phase = "register"
	PhaseReferences Phase = "references"
	PhasePackages   Phase = "packages"
	PhaseTemplates  Phase = "templates"
	PhaseGit        Phase = "git"
)

// ToolchainPhases lists the orchestrated toolchain phases in execution order.
var ToolchainPhases = []Phase{PhaseSolution, PhaseModules, PhaseRegister, PhaseReferences, PhasePackages}

// AllPhases lists every phase in the order a scaffold runs them.
var AllPhases = []Phase{PhaseSkeleton, PhaseSolution, PhaseModules, PhaseRegister, PhaseReferences, PhasePackages, PhaseTemplates, PhaseGit}

// ErrorMode decides what a failure inside a phase does to the run.
type ErrorMode string

const (
	// BestEffort logs the failure and continues.
	BestEffort ErrorMode = "best-effort"
	// FailFast stops the run after the phase's first failure.
	FailFast ErrorMode = "fail-fast"
)

// Modes maps phases to error modes. Unset phases are best-effort.
type Modes map[Phase]ErrorMode

// For returns the error mode configured for p.
func (m Modes) For(p Phase) ErrorMode {
	if mode, ok := m[p]; ok {
		return mode
	}
	return BestEffort
}

// ParseMode parses an error mode name.
func ParseMode(s string) (ErrorMode, error) {
	switch ErrorMode(strings.ToLower(strings.TrimSpace(s))) {
	case BestEffort:
		return BestEffort, nil
	case FailFast:
		return FailFast, nil
	default:
		return "", fmt.Errorf("unknown error mode %q (want %s or %s)", s, BestEffort, FailFast)
	}
}

// ParsePhase parses a phase name.
func ParsePhase(s string) (Phase, error) {
	p := Phase(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllPhases {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown phase %q", s)
}

// ParseModes parses "phase=mode" assignments on top of base.
// The phase "all" sets every phase.
func ParseModes(base Modes, assignments []string) (Modes, error) {
	out := make(Modes, len(base))
	for p, m := range base {
		out[p] = m
	}
	for _, a := range assignments {
		name, value, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("invalid mode %q: want phase=mode", a)
		}
		mode, err := ParseMode(value)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(name) == "all" {
			for _, p := range AllPhases {
				out[p] = mode
			}
			continue
		}
		phase, err := ParsePhase(name)
		if err != nil {
			return nil, err
		}
		out[phase] = mode
	}
	return out, nil
}

// String renders the non-default modes as sorted "phase=mode" pairs.
func (m Modes) String() string {
	var parts []string
	for p, mode := range m {
		if mode != BestEffort {
			parts = append(parts, fmt.Sprintf("%s=%s", p, mode))
		}
	}
	sort.Strings(parts)
	if len(parts) == 0 {
		return string(BestEffort)
	}
	return strings.Join(parts, ",")
}
