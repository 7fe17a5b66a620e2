// Package effects defines effect types as data structures representing I/O operations.
// Planners in internal/core build effects; internal/app executes them.
// Effects are pure data - they describe what should happen, not how.
package effects

import "strings"

// Effect is the base interface for all effects.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// FileEffect represents a file system operation.
type FileEffect struct {
	Operation string // "mkdir", "write", "remove_if_exists"
	Path      string
	Content   []byte // For write operations
	Mode      uint32 // File permissions
}

func (e FileEffect) EffectType() string { return "file" }

// CommandEffect represents one invocation of an external tool.
type CommandEffect struct {
	Operation   string   // toolchain operation, e.g. "create-module"
	Tool        string   // executable name or path
	Args        []string // argv after the tool, already rendered
	Dir         string   // working directory (optional)
	MustSucceed bool     // a failure stops the run instead of being logged
}

func (e CommandEffect) EffectType() string { return "command" }

// String renders the command line for logs.
func (e CommandEffect) String() string {
	parts := make([]string, 0, len(e.Args)+1)
	parts = append(parts, e.Tool)
	for _, a := range e.Args {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = `"` + strings.ReplaceAll(a, `"`, `\"`) + `"`
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// CompositeEffect holds multiple effects to be executed in sequence.
type CompositeEffect struct {
	Effects []Effect
}

func (e CompositeEffect) EffectType() string { return "composite" }
