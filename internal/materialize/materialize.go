// Package materialize renders file templates and writes them into a
// project tree.
package materialize

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sergi/go-diff/diffmatchpatch"

	serrors "github.com/example/dotscaffold/internal/errors"
	scaffoldtmpl "github.com/example/dotscaffold/internal/templates/scaffold"
)

// Outcome is what happened to one destination file.
type Outcome string

const (
	Created   Outcome = "created"
	Updated   Outcome = "updated"
	Unchanged Outcome = "unchanged"
	Failed    Outcome = "failed"
)

// FileResult reports one materialized template.
type FileResult struct {
	Name     string
	Path     string // absolute destination
	Outcome  Outcome
	Inserted int // characters added, for Updated
	Deleted  int // characters removed, for Updated
	Err      error
}

// Materialize renders each template with bindings and writes it under root.
// Writes are whole-file and atomic; parent directories are created as
// needed. A failure on one file is recorded and the rest are still written.
func Materialize(root string, templates []scaffoldtmpl.FileTemplate, bindings map[string]string) []FileResult {
	results := make([]FileResult, 0, len(templates))
	for _, ft := range templates {
		results = append(results, materializeOne(root, ft, bindings))
	}
	return results
}

func materializeOne(root string, ft scaffoldtmpl.FileTemplate, bindings map[string]string) FileResult {
	path := filepath.Join(root, ft.Path(bindings))
	res := FileResult{Name: ft.Name, Path: path, Outcome: Failed}

	content, err := ft.Content(bindings)
	if err != nil {
		res.Err = serrors.Wrap(serrors.EInternal, fmt.Sprintf("failed to render %s", ft.Name), err)
		return res
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		res.Err = serrors.Wrap(serrors.EFilesystem, fmt.Sprintf("failed to create directory for %s", path), err)
		return res
	}

	previous, err := os.ReadFile(path)
	existed := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		res.Err = serrors.Wrap(serrors.EFilesystem, fmt.Sprintf("failed to read %s", path), err)
		return res
	}

	if existed && bytes.Equal(previous, content) {
		res.Outcome = Unchanged
		return res
	}

	if err := writeFileAtomic(path, content, 0644); err != nil {
		res.Err = serrors.Wrap(serrors.EFilesystem, fmt.Sprintf("failed to write %s", path), err)
		return res
	}

	if !existed {
		res.Outcome = Created
		return res
	}
	res.Outcome = Updated
	res.Inserted, res.Deleted = diffStats(string(previous), string(content))
	return res
}

// diffStats counts inserted and deleted characters between two texts.
func diffStats(before, after string) (inserted, deleted int) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	for _, d := range diffs {
		n := len([]rune(d.Text))
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			inserted += n
		case diffmatchpatch.DiffDelete:
			deleted += n
		}
	}
	return inserted, deleted
}
