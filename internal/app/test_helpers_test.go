package app

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/dotscaffold/internal/adapters/sqlite"
	"github.com/example/dotscaffold/internal/db"
	"github.com/example/dotscaffold/internal/exec"
	"github.com/example/dotscaffold/internal/gitrepo"
)

// fakeDotnet simulates the dotnet CLI on disk: solutions and project files
// are created, everything else succeeds. Commands whose argv contains one
// of failOn exit with code 1. Other tools are delegated to next.
type fakeDotnet struct {
	failOn []string
	calls  []string
	next   exec.CommandRunner
}

func (f *fakeDotnet) Run(ctx context.Context, name string, args []string, opts exec.RunOpts) (int, error) {
	if name != "dotnet" {
		if f.next == nil {
			return -1, os.ErrNotExist
		}
		return f.next.Run(ctx, name, args, opts)
	}

	line := strings.Join(args, " ")
	f.calls = append(f.calls, line)
	if opts.Sink != nil {
		opts.Sink.Line(exec.Stdout, "dotnet "+line)
	}
	for _, s := range f.failOn {
		if strings.Contains(line, s) {
			if opts.Sink != nil {
				opts.Sink.Line(exec.Stderr, "error: simulated failure")
			}
			return 1, nil
		}
	}

	if len(args) >= 4 && args[0] == "new" && args[1] == "sln" {
		return 0, os.WriteFile(filepath.Join(opts.Dir, args[3]+".sln"), []byte("Microsoft Visual Studio Solution File\n"), 0644)
	}
	if len(args) >= 6 && args[0] == "new" {
		name, dir := args[3], args[5]
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 1, nil
		}
		if err := os.WriteFile(filepath.Join(dir, name+".csproj"), []byte("<Project />\n"), 0644); err != nil {
			return 1, nil
		}
		if args[1] == "classlib" {
			if err := os.WriteFile(filepath.Join(dir, "Class1.cs"), []byte("class Class1 {}\n"), 0644); err != nil {
				return 1, nil
			}
		}
	}
	return 0, nil
}

// fakeRepo records Init calls.
type fakeRepo struct {
	roots []string
	err   error
}

func (f *fakeRepo) Init(_ context.Context, root string) (*gitrepo.Result, error) {
	f.roots = append(f.roots, root)
	if f.err != nil {
		return nil, f.err
	}
	return &gitrepo.Result{Staged: 1, Commit: "0123456789abcdef"}, nil
}

// setupJournal opens an in-memory journal with the real schema.
func setupJournal(t *testing.T) (*sql.DB, *sqlite.RunRepository) {
	t.Helper()
	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database, sqlite.NewRunRepository(database)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%s): %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
