// Package scaffold contains the pure business logic of a scaffold run.
// This is part of the Functional Core - no I/O, only pure functions.
package scaffold

import (
	"fmt"
	"strings"
)

// RequestContext provides the pre-fetched facts needed to decide whether a
// scaffold may start. The caller stats the filesystem and queries the
// journal; the guard only evaluates.
type RequestContext struct {
	ProjectName string
	DBUser      string
	DBPassword  string
	RootPath    string

	RootExists bool
	RootIsDir  bool

	TargetPath    string
	TargetEntries int   // entries already in {RootPath}/{ProjectName}
	ActiveRunID   int64 // journaled run still marked running for TargetPath, 0 if none
	Force         bool
}

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string // Human-readable reason (populated when not allowed)
}

// Error returns the guard result as an error if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// CanScaffold evaluates whether a scaffold request may proceed.
// Rules, checked in order:
//   - project name, db user, db password and root path are non-blank
//   - project name is a single path segment
//   - root path exists and is a directory
//   - the project directory is empty or absent, unless forced
//   - no journaled run is active for the project directory, unless forced
func CanScaffold(ctx RequestContext) GuardResult {
	var missing []string
	if strings.TrimSpace(ctx.ProjectName) == "" {
		missing = append(missing, "project name")
	}
	if strings.TrimSpace(ctx.DBUser) == "" {
		missing = append(missing, "db user")
	}
	if strings.TrimSpace(ctx.DBPassword) == "" {
		missing = append(missing, "db password")
	}
	if strings.TrimSpace(ctx.RootPath) == "" {
		missing = append(missing, "target directory")
	}
	if len(missing) > 0 {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("missing required input: %s", strings.Join(missing, ", ")),
		}
	}

	if reason := checkProjectName(ctx.ProjectName); reason != "" {
		return GuardResult{Allowed: false, Reason: reason}
	}

	if !ctx.RootExists {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("target directory %s does not exist", ctx.RootPath),
		}
	}
	if !ctx.RootIsDir {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("target directory %s is not a directory", ctx.RootPath),
		}
	}

	if ctx.TargetEntries > 0 && !ctx.Force {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("%s is not empty (%d entries). Use --force to scaffold into it anyway", ctx.TargetPath, ctx.TargetEntries),
		}
	}

	if ctx.ActiveRunID != 0 && !ctx.Force {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("run %d is still active for %s. Use --force if it was interrupted", ctx.ActiveRunID, ctx.TargetPath),
		}
	}

	return GuardResult{Allowed: true}
}

// checkProjectName rejects names that would escape the root or nest.
func checkProjectName(name string) string {
	if name != strings.TrimSpace(name) {
		return fmt.Sprintf("project name %q has leading or trailing whitespace", name)
	}
	if name == "." || name == ".." {
		return fmt.Sprintf("project name %q is not allowed", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Sprintf("project name %q must not contain path separators", name)
	}
	return ""
}
