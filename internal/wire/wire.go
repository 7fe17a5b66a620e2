// Package wire provides dependency injection for dotscaffold.
// It creates singleton services with lazy initialization.
package wire

import (
	"database/sql"
	"io"
	"sync"

	cliadapter "github.com/example/dotscaffold/internal/adapters/cli"
	"github.com/example/dotscaffold/internal/adapters/sqlite"
	"github.com/example/dotscaffold/internal/app"
	"github.com/example/dotscaffold/internal/config"
	"github.com/example/dotscaffold/internal/db"
	"github.com/example/dotscaffold/internal/exec"
	"github.com/example/dotscaffold/internal/gitrepo"
	"github.com/example/dotscaffold/internal/logging"
	"github.com/example/dotscaffold/internal/orchestrator"
	"github.com/example/dotscaffold/internal/ports/primary"
	"github.com/example/dotscaffold/internal/ports/secondary"
	"github.com/example/dotscaffold/internal/toolchain"
)

// Options are the process-wide settings taken from global flags.
// They must be set with Configure before the first service is requested.
type Options struct {
	ConfigDir string // defaults to config.DefaultDir()
	Verbose   bool
	Quiet     bool
	Console   io.Writer // defaults to os.Stdout
}

var (
	opts Options

	cfg             *config.Config
	cfgDir          string
	logger          *logging.Logger
	database        *sql.DB
	scaffoldService primary.ScaffoldService
	initErr         error
	once            sync.Once
)

// Configure sets the options used when services are first created.
func Configure(o Options) {
	opts = o
}

// ConfigDir returns the configured dotscaffold home without creating any
// service.
func ConfigDir() (string, error) {
	if opts.ConfigDir != "" {
		return opts.ConfigDir, nil
	}
	return config.DefaultDir()
}

// ScaffoldService returns the singleton ScaffoldService instance.
func ScaffoldService() (primary.ScaffoldService, error) {
	once.Do(initServices)
	return scaffoldService, initErr
}

// Config returns the loaded configuration and the directory it came from.
func Config() (*config.Config, string, error) {
	once.Do(initServices)
	return cfg, cfgDir, initErr
}

// HistoryAdapterWithOutput returns a new HistoryAdapter writing to the given output.
func HistoryAdapterWithOutput(out io.Writer) (*cliadapter.HistoryAdapter, error) {
	svc, err := ScaffoldService()
	if err != nil {
		return nil, err
	}
	return cliadapter.NewHistoryAdapter(svc, out), nil
}

// Close releases the journal and the log file.
func Close() {
	if database != nil {
		database.Close()
	}
	if logger != nil {
		logger.Close()
	}
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	cfgDir, initErr = ConfigDir()
	if initErr != nil {
		return
	}

	cfg, initErr = config.LoadConfig(cfgDir)
	if initErr != nil {
		return
	}

	logger = logging.New(logging.Options{
		Console:  opts.Console,
		FilePath: cfg.LogPath(cfgDir),
		Verbose:  opts.Verbose,
		Quiet:    opts.Quiet,
	})

	// The journal is optional: a scaffold must not fail because it is unavailable.
	var journal secondary.RunJournal
	d, err := db.Open(cfg.JournalPath(cfgDir))
	if err != nil {
		logger.Warn("Run journal unavailable: %v", err)
	} else {
		database = d
		journal = sqlite.NewRunRepository(database)
	}

	runner := exec.NewRealRunner()
	executor := app.NewEffectExecutor(runner, logger)
	orch := orchestrator.New(toolchain.Dotnet(cfg.Toolchain.Binary), executor)
	repo := gitrepo.NewInitializer(runner, logger, gitrepo.Options{
		Git:         cfg.Git.Binary,
		Message:     cfg.Git.CommitMessage,
		AuthorName:  cfg.Git.AuthorName,
		AuthorEmail: cfg.Git.AuthorEmail,
	})

	scaffoldService = app.NewScaffoldService(orch, repo, journal, logger)
}
