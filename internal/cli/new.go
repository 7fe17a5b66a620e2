package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/dotscaffold/internal/config"
	"github.com/example/dotscaffold/internal/core/scaffold"
	serrors "github.com/example/dotscaffold/internal/errors"
	"github.com/example/dotscaffold/internal/ports/primary"
	"github.com/example/dotscaffold/internal/wire"
)

// newFlags holds the values given on the command line for `new`.
type newFlags struct {
	name        string
	dbUser      string
	dbPassword  string
	path        string
	force       bool
	skipRestore bool
	skipGit     bool
	modes       []string
}

// NewCmd returns the new command
func NewCmd() *cobra.Command {
	var f newFlags

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Scaffold a layered .NET solution",
		Long: `Generate a six-module .NET solution (API, Aplicacao, Dominio, Infra,
Comunicacao, Exception) with its folder skeleton, project references,
pinned packages, appsettings.json and an initial git commit.

Values not given as flags are prompted for in order: project name,
database user, database password, target directory.

Each phase runs best-effort unless configured otherwise. Phases:
  skeleton solution modules register references packages templates git

Examples:
  dotscaffold new
  dotscaffold new --name Shop --db-user root --db-password pw123 --path ~/src
  dotscaffold new --name Shop --path . --mode modules=fail-fast --skip-restore
  dotscaffold new --name Shop --path . --mode all=fail-fast`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := wire.Config()
			if err != nil {
				return err
			}

			opts, err := scaffoldOptions(cfg, f)
			if err != nil {
				return err
			}

			p := NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			req, err := collectRequest(p, f)
			if err != nil {
				return err
			}

			svc, err := wire.ScaffoldService()
			if err != nil {
				return err
			}

			_, err = svc.Scaffold(cmd.Context(), req, opts)
			return err
		},
	}

	cmd.Flags().StringVarP(&f.name, "name", "n", "", "Project name (prompted if omitted)")
	cmd.Flags().StringVar(&f.dbUser, "db-user", "", "Database user for the connection string")
	cmd.Flags().StringVar(&f.dbPassword, "db-password", "", "Database password for the connection string")
	cmd.Flags().StringVarP(&f.path, "path", "p", "", "Directory the project folder is created in")
	cmd.Flags().BoolVarP(&f.force, "force", "f", false, "Scaffold into a non-empty or interrupted project folder")
	cmd.Flags().BoolVar(&f.skipRestore, "skip-restore", false, "Pass --no-restore when creating modules")
	cmd.Flags().BoolVar(&f.skipGit, "skip-git", false, "Do not initialize a git repository")
	cmd.Flags().StringArrayVarP(&f.modes, "mode", "m", nil, "Error mode per phase as phase=mode (repeatable)")

	return cmd
}

// scaffoldOptions merges command-line flags over the configuration.
func scaffoldOptions(cfg *config.Config, f newFlags) (primary.ScaffoldOptions, error) {
	base, err := cfg.ErrorModes()
	if err != nil {
		return primary.ScaffoldOptions{}, serrors.Wrap(serrors.EInputValidation, "invalid error modes in config", err)
	}
	modes, err := scaffold.ParseModes(base, f.modes)
	if err != nil {
		return primary.ScaffoldOptions{}, serrors.Wrap(serrors.EInputValidation, "invalid --mode", err)
	}
	return primary.ScaffoldOptions{
		SkipRestore: f.skipRestore || cfg.Toolchain.SkipRestore,
		SkipGit:     f.skipGit || cfg.Git.Skip,
		Force:       f.force,
		Modes:       modes,
	}, nil
}

// collectRequest fills every field missing from f by prompting, in the
// fixed order name, user, password, directory.
func collectRequest(p *Prompter, f newFlags) (primary.ScaffoldRequest, error) {
	req := primary.ScaffoldRequest{
		ProjectName: normalize(f.name),
		DBUser:      normalize(f.dbUser),
		DBPassword:  f.dbPassword,
		RootPath:    normalize(f.path),
	}

	var err error
	if req.ProjectName == "" {
		if req.ProjectName, err = p.Ask("Project name"); err != nil {
			return req, err
		}
	}
	if req.DBUser == "" {
		if req.DBUser, err = p.Ask("Database user"); err != nil {
			return req, err
		}
	}
	if req.DBPassword == "" {
		if req.DBPassword, err = p.AskSecret("Database password"); err != nil {
			return req, err
		}
	}
	if req.RootPath == "" {
		if req.RootPath, err = p.Ask("Target directory"); err != nil {
			return req, err
		}
	}

	if req.RootPath != "" {
		abs, err := filepath.Abs(expandHome(req.RootPath))
		if err != nil {
			return req, serrors.Wrap(serrors.EInputValidation, fmt.Sprintf("cannot resolve %s", req.RootPath), err)
		}
		req.RootPath = abs
	}
	return req, nil
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
