// Package skeleton creates placeholder-marked directory trees.
package skeleton

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	serrors "github.com/example/dotscaffold/internal/errors"
)

// MarkerName is the file dropped in every skeleton directory so that git
// keeps it while it is still empty.
const MarkerName = ".keep"

// Result describes what happened to one skeleton path.
type Result struct {
	Path          string // absolute directory path
	Created       bool   // the directory did not exist before
	MarkerWritten bool   // the marker was written by this call
	Err           error  // set when the path could not be ensured
}

// EnsureSkeleton creates each path under root (with intermediates) and
// drops a marker in it. Existing directories and markers are left as they
// are. A failure on one path is recorded in its Result and the remaining
// paths are still processed.
func EnsureSkeleton(root string, paths []string) []Result {
	results := make([]Result, 0, len(paths))
	for _, rel := range paths {
		results = append(results, ensureOne(filepath.Join(root, rel)))
	}
	return results
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

func ensureOne(dir string) Result {
	res := Result{Path: dir}

	info, err := os.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		res.Err = serrors.Newf(serrors.EFilesystem, "%s exists and is not a directory", dir)
		return res
	case err == nil:
		// already present
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(dir, 0755); err != nil {
			res.Err = serrors.Wrap(serrors.EFilesystem, fmt.Sprintf("failed to create directory %s", dir), err)
			return res
		}
		res.Created = true
	default:
		res.Err = serrors.Wrap(serrors.EFilesystem, fmt.Sprintf("failed to stat %s", dir), err)
		return res
	}

	written, err := writeMarker(filepath.Join(dir, MarkerName))
	if err != nil {
		res.Err = serrors.Wrap(serrors.EFilesystem, fmt.Sprintf("failed to write marker in %s", dir), err)
		return res
	}
	res.MarkerWritten = written
	return res
}

// writeMarker creates an empty marker unless one exists already.
// An existing marker is never truncated.
func writeMarker(path string) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, err
	}
	return true, f.Close()
}
