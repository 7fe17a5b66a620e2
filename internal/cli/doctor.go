package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/dotscaffold/internal/config"
	"github.com/example/dotscaffold/internal/db"
	"github.com/example/dotscaffold/internal/exec"
	"github.com/example/dotscaffold/internal/wire"
)

// Check statuses.
const (
	statusOK   = "✓"
	statusWarn = "⚠"
	statusFail = "✗"
)

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // Only shown if Status != "✓"
}

// lookPath resolves executables; replaced in tests.
var lookPath = exec.LookPath

// DoctorCmd returns the doctor command for environment validation
func DoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Validate the dotscaffold environment",
		Long: `Check that everything a scaffold run needs is in place.

Validates:
- Build toolchain binary on PATH (dotnet)
- git binary on PATH
- Configuration file
- Run journal

Examples:
  dotscaffold doctor              # Run full health check
  dotscaffold doctor --quiet      # Exit code only (0=healthy, 1=issues)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := wire.ConfigDir()
			if err != nil {
				return err
			}

			quiet, _ := cmd.Flags().GetBool("quiet")
			results := runChecks(dir)
			hasErrors := false
			for _, r := range results {
				if r.Status == statusFail {
					hasErrors = true
					break
				}
			}

			if !quiet {
				printResults(cmd.OutOrStdout(), results, hasErrors)
			}

			if hasErrors {
				return fmt.Errorf("environment validation failed")
			}
			return nil
		},
	}
}

// runChecks runs every check against the configuration in dir.
func runChecks(dir string) []CheckResult {
	cfg, cfgResult := checkConfig(dir)
	return []CheckResult{
		cfgResult,
		checkBinary("Toolchain", cfg.Toolchain.Binary, statusFail),
		checkGit(cfg),
		checkJournal(cfg.JournalPath(dir)),
	}
}

func printResults(w io.Writer, results []CheckResult, hasErrors bool) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check              Status")
	fmt.Fprintln(w, "─────────────────────────")
	for _, r := range results {
		fmt.Fprintf(w, "%-18s %s\n", r.Name, colorStatus(r.Status))
	}
	fmt.Fprintln(w)

	hasDetails := false
	for _, r := range results {
		if r.Status != statusOK && r.Details != "" {
			if !hasDetails {
				fmt.Fprintln(w, "Details:")
				hasDetails = true
			}
			fmt.Fprintf(w, "\n%s:\n%s\n", r.Name, r.Details)
		}
	}

	if hasErrors {
		fmt.Fprintln(w, "\n⚠ Issues found. Scaffold runs will report failed steps.")
	} else {
		fmt.Fprintln(w, "All checks passed.")
	}
}

func colorStatus(s string) string {
	switch s {
	case statusOK:
		return color.GreenString(s)
	case statusWarn:
		return color.YellowString(s)
	default:
		return color.RedString(s)
	}
}

// checkConfig loads the configuration. A missing file is fine; an
// unreadable one falls back to defaults so the remaining checks still run.
func checkConfig(dir string) (*config.Config, CheckResult) {
	path := config.Path(dir)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return config.Default(), CheckResult{
			Name:    "Config",
			Status:  statusWarn,
			Details: fmt.Sprintf("  %s not found, using defaults\n  Run: dotscaffold config init", path),
		}
	}

	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return config.Default(), CheckResult{Name: "Config", Status: statusFail, Details: "  " + err.Error()}
	}
	return cfg, CheckResult{Name: "Config", Status: statusOK}
}

// checkBinary reports whether name resolves on PATH, using failStatus when
// it does not.
func checkBinary(label, name, failStatus string) CheckResult {
	if _, err := lookPath(name); err != nil {
		return CheckResult{
			Name:    label,
			Status:  failStatus,
			Details: fmt.Sprintf("  %s not found in PATH", name),
		}
	}
	return CheckResult{Name: label, Status: statusOK}
}

// checkGit only warns: runs can skip repository initialization.
func checkGit(cfg *config.Config) CheckResult {
	if cfg.Git.Skip {
		return CheckResult{Name: "Git", Status: statusOK}
	}
	r := checkBinary("Git", cfg.Git.Binary, statusWarn)
	if r.Status != statusOK {
		r.Details += "\n  Install git or scaffold with --skip-git"
	}
	return r
}

// checkJournal opens the journal, creating it when absent. The journal is
// optional so a failure is a warning.
func checkJournal(path string) CheckResult {
	database, err := db.Open(path)
	if err != nil {
		return CheckResult{
			Name:    "Journal",
			Status:  statusWarn,
			Details: fmt.Sprintf("  %s: %v\n  Runs will not be recorded", path, err),
		}
	}
	database.Close()
	return CheckResult{Name: "Journal", Status: statusOK}
}
