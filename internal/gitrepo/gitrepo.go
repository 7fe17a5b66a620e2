// Package gitrepo initializes the version-control repository of a
// generated project: init, stage everything, commit once.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	serrors "github.com/example/dotscaffold/internal/errors"
	"github.com/example/dotscaffold/internal/exec"
)

// Defaults for the single initial commit.
const (
	DefaultMessage     = "Initial commit"
	DefaultAuthorName  = "Author"
	DefaultAuthorEmail = "author@example.com"
)

// Options configures the initial commit.
type Options struct {
	Git         string // git executable, defaults to "git"
	Message     string
	AuthorName  string
	AuthorEmail string
	Now         func() time.Time
}

// Result describes a successful initialization.
type Result struct {
	Staged int    // files staged in the initial commit
	Commit string // commit hash, when it could be read back
}

// Initializer creates the repository through the process runner so that
// git output reaches the operator like any other tool output.
type Initializer struct {
	runner exec.CommandRunner
	sink   exec.OutputSink
	opts   Options
}

// NewInitializer creates an Initializer, filling unset options with defaults.
func NewInitializer(runner exec.CommandRunner, sink exec.OutputSink, opts Options) *Initializer {
	if opts.Git == "" {
		opts.Git = "git"
	}
	if opts.Message == "" {
		opts.Message = DefaultMessage
	}
	if opts.AuthorName == "" {
		opts.AuthorName = DefaultAuthorName
	}
	if opts.AuthorEmail == "" {
		opts.AuthorEmail = DefaultAuthorEmail
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Initializer{runner: runner, sink: sink, opts: opts}
}

// Init initializes a repository at root, stages the whole tree and creates
// one commit. It refuses a root that already holds a repository. Nothing is
// rolled back on failure.
func (i *Initializer) Init(ctx context.Context, root string) (*Result, error) {
	if _, err := os.Stat(filepath.Join(root, ".git")); err == nil {
		return nil, serrors.Newf(serrors.ERepositoryInit, "repository already initialized at %s", root)
	}

	if err := i.runGit(ctx, root, nil, "init"); err != nil {
		return nil, err
	}

	stageable, err := StageablePaths(root)
	if err != nil {
		return nil, serrors.Wrap(serrors.ERepositoryInit, "failed to list files to stage", err)
	}
	if len(stageable) == 0 {
		return nil, serrors.Newf(serrors.ERepositoryInit, "nothing to stage in %s", root)
	}

	if err := i.runGit(ctx, root, nil, "add", "-A"); err != nil {
		return nil, err
	}

	if err := i.runGit(ctx, root, i.identityEnv(), "-c", "commit.gpgsign=false", "commit", "-m", i.opts.Message); err != nil {
		return nil, err
	}

	result := &Result{Staged: len(stageable)}
	if hash, err := i.runGitOutput(ctx, root, "rev-parse", "HEAD"); err == nil {
		result.Commit = strings.TrimSpace(hash)
	}
	return result, nil
}

// identityEnv pins author, committer and timestamp of the commit.
func (i *Initializer) identityEnv() map[string]string {
	when := i.opts.Now().Format(time.RFC3339)
	return map[string]string{
		"GIT_AUTHOR_NAME":     i.opts.AuthorName,
		"GIT_AUTHOR_EMAIL":    i.opts.AuthorEmail,
		"GIT_AUTHOR_DATE":     when,
		"GIT_COMMITTER_NAME":  i.opts.AuthorName,
		"GIT_COMMITTER_EMAIL": i.opts.AuthorEmail,
		"GIT_COMMITTER_DATE":  when,
	}
}

// runGit executes a git command and returns an error if it fails.
func (i *Initializer) runGit(ctx context.Context, root string, env map[string]string, args ...string) error {
	code, err := i.runner.Run(ctx, i.opts.Git, args, exec.RunOpts{Dir: root, Env: env, Sink: i.sink})
	if err != nil {
		return serrors.Wrap(serrors.ERepositoryInit, fmt.Sprintf("git %s could not be started", subcommand(args)), err)
	}
	if code != 0 {
		return serrors.WrapWithDetails(serrors.ERepositoryInit,
			fmt.Sprintf("git %s exited with code %d", strings.Join(args, " "), code), nil,
			map[string]string{"exit_code": fmt.Sprint(code)})
	}
	return nil
}

// subcommand returns the git subcommand in args, skipping "-c key=value"
// pairs.
func subcommand(args []string) string {
	for i := 0; i < len(args); i++ {
		if args[i] == "-c" {
			i++
			continue
		}
		return args[i]
	}
	return ""
}

// runGitOutput executes a git command and returns its stdout.
func (i *Initializer) runGitOutput(ctx context.Context, root string, args ...string) (string, error) {
	var out strings.Builder
	sink := exec.SinkFunc(func(stream exec.Stream, text string) {
		if stream == exec.Stdout {
			out.WriteString(text)
			out.WriteString("\n")
		}
	})
	code, err := i.runner.Run(ctx, i.opts.Git, args, exec.RunOpts{Dir: root, Sink: sink})
	if err != nil {
		return "", err
	}
	if code != 0 {
		return "", fmt.Errorf("git %s exited with code %d", strings.Join(args, " "), code)
	}
	return out.String(), nil
}

// StageablePaths lists the files under root that `git add -A` would stage,
// honoring the root .gitignore. Paths are slash-separated and relative.
func StageablePaths(root string) ([]string, error) {
	var matcher *ignore.GitIgnore
	gitignorePath := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		matcher, err = ignore.CompileIgnoreFile(gitignorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to parse .gitignore: %w", err)
		}
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return nil
			}
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			if matcher != nil && matcher.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
