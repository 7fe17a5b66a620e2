package materialize

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	serrors "github.com/example/dotscaffold/internal/errors"
	scaffoldtmpl "github.com/example/dotscaffold/internal/templates/scaffold"
)

func TestMaterialize_WritesRenderedFiles(t *testing.T) {
	root := t.TempDir()
	templates := []scaffoldtmpl.FileTemplate{
		{Name: "a", Destination: "src/{{projectName}}.API/a.txt", Body: "namespace {{projectName}}.API"},
		{Name: "b", Destination: "b.txt", Body: "user={{dbUser}}"},
	}
	bindings := scaffoldtmpl.Bindings("Shop", "root", "pw123")

	results := Materialize(root, templates, bindings)

	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	for _, r := range results {
		if r.Err != nil || r.Outcome != Created {
			t.Errorf("%s: outcome=%s err=%v", r.Name, r.Outcome, r.Err)
		}
	}

	data, err := os.ReadFile(filepath.Join(root, "src", "Shop.API", "a.txt"))
	if err != nil {
		t.Fatalf("a.txt not written: %v", err)
	}
	if string(data) != "namespace Shop.API" {
		t.Errorf("a.txt = %q", data)
	}
}

func TestMaterialize_RerunIsIdempotent(t *testing.T) {
	root := t.TempDir()
	templates, err := scaffoldtmpl.Files()
	if err != nil {
		t.Fatal(err)
	}
	bindings := scaffoldtmpl.Bindings("Demo", "u", "p")

	first := Materialize(root, templates, bindings)
	snapshot := readTree(t, root)

	second := Materialize(root, templates, bindings)
	for i, r := range second {
		if r.Err != nil {
			t.Fatalf("%s: %v", r.Name, r.Err)
		}
		if first[i].Outcome != Created {
			t.Errorf("%s: first outcome = %s", r.Name, first[i].Outcome)
		}
		if r.Outcome != Unchanged {
			t.Errorf("%s: second outcome = %s, want unchanged", r.Name, r.Outcome)
		}
	}

	after := readTree(t, root)
	if len(after) != len(snapshot) {
		t.Fatalf("file count changed: %d -> %d", len(snapshot), len(after))
	}
	for path, content := range snapshot {
		if after[path] != content {
			t.Errorf("%s changed on rerun", path)
		}
	}
}

func TestMaterialize_OverwritesWholeFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "cfg.txt")
	if err := os.WriteFile(path, []byte("old content that is much longer than the new one"), 0644); err != nil {
		t.Fatal(err)
	}

	results := Materialize(root, []scaffoldtmpl.FileTemplate{
		{Name: "cfg", Destination: "cfg.txt", Body: "new {{projectName}}"},
	}, scaffoldtmpl.Bindings("Shop", "u", "p"))

	r := results[0]
	if r.Outcome != Updated {
		t.Fatalf("outcome = %s, want updated (err=%v)", r.Outcome, r.Err)
	}
	if r.Inserted == 0 || r.Deleted == 0 {
		t.Errorf("diff stats = +%d/-%d", r.Inserted, r.Deleted)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "new Shop" {
		t.Errorf("content = %q, want whole-file overwrite", data)
	}
}

func TestMaterialize_AppSettingsConnectionDescriptor(t *testing.T) {
	root := t.TempDir()
	templates, err := scaffoldtmpl.Files()
	if err != nil {
		t.Fatal(err)
	}

	Materialize(root, templates, scaffoldtmpl.Bindings("Shop", "root", "pw123"))

	data, err := os.ReadFile(filepath.Join(root, "src", "Shop.API", "appsettings.json"))
	if err != nil {
		t.Fatalf("appsettings.json missing: %v", err)
	}
	if !strings.Contains(string(data), "Database=Shop;User=root;Password=pw123") {
		t.Errorf("connection descriptor not found:\n%s", data)
	}
}

func TestMaterialize_ContinuesAfterFailure(t *testing.T) {
	root := t.TempDir()
	// A file blocks the directory the first template needs.
	if err := os.WriteFile(filepath.Join(root, "blocked"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	results := Materialize(root, []scaffoldtmpl.FileTemplate{
		{Name: "bad", Destination: "blocked/inner.txt", Body: "x"},
		{Name: "encode", Destination: "enc.txt", Encode: func(map[string]string) ([]byte, error) {
			return nil, errors.New("encoder broke")
		}},
		{Name: "good", Destination: "good.txt", Body: "ok"},
	}, nil)

	if results[0].Outcome != Failed || !serrors.Is(results[0].Err, serrors.EFilesystem) {
		t.Errorf("bad: outcome=%s err=%v", results[0].Outcome, results[0].Err)
	}
	if results[1].Outcome != Failed || results[1].Err == nil {
		t.Errorf("encode: outcome=%s err=%v", results[1].Outcome, results[1].Err)
	}
	if results[2].Outcome != Created {
		t.Errorf("good: outcome=%s err=%v", results[2].Outcome, results[2].Err)
	}
}

func TestWriteFileAtomic_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := writeFileAtomic(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || entries[0].Name() != "out.txt" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("dir entries = %v", names)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("perm = %v", info.Mode().Perm())
	}
}

func TestDiffStats(t *testing.T) {
	ins, del := diffStats("abc", "abXc")
	if ins != 1 || del != 0 {
		t.Errorf("diffStats = +%d/-%d, want +1/-0", ins, del)
	}
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	files := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[path] = string(data)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return files
}
