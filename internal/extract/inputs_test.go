package extract

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	jabierrors "jabi/internal/errors"
)

func writeInputJar(t *testing.T, entries []struct {
	name string
	data []byte
}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.jar")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating input jar: %v", err)
	}
	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("adding entry %s: %v", e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			t.Fatalf("writing entry %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing input jar: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing input jar file: %v", err)
	}
	return path
}

func TestCollectDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string][]byte{
		"a/A.class":       []byte("one"),
		"a/b/B.class":     []byte("two"),
		"top.class":       []byte("three"),
		"a/notes.txt":     []byte("skip me"),
		"a/b/c/README.md": []byte("skip me too"),
	}
	for name, data := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
		if err := os.WriteFile(p, data, 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	inputs, err := collectInputs(dir)
	if err != nil {
		t.Fatalf("collectInputs failed: %v", err)
	}
	if len(inputs) != 3 {
		t.Fatalf("collected %d inputs, want 3: %+v", len(inputs), inputs)
	}

	byName := make(map[string][]byte)
	for _, in := range inputs {
		byName[in.name] = in.data
	}
	for _, name := range []string{"a/A.class", "a/b/B.class", "top.class"} {
		if string(byName[name]) != string(files[name]) {
			t.Errorf("input %s = %q, want %q", name, byName[name], files[name])
		}
	}
}

func TestCollectArchive(t *testing.T) {
	path := writeInputJar(t, []struct {
		name string
		data []byte
	}{
		{"b/B.class", []byte("b1")},
		{"meta/MANIFEST.MF", []byte("skip")},
		{"a/A.class", []byte("a1")},
		{"a/A.class", []byte("a2")},
	})

	inputs, err := collectInputs(path)
	if err != nil {
		t.Fatalf("collectInputs failed: %v", err)
	}
	if len(inputs) != 2 {
		t.Fatalf("collected %d inputs, want 2: %+v", len(inputs), inputs)
	}

	byName := make(map[string][]byte)
	for _, in := range inputs {
		byName[in.name] = in.data
	}
	if string(byName["b/B.class"]) != "b1" {
		t.Errorf("b/B.class = %q", byName["b/B.class"])
	}
	// The first occurrence of a duplicated name wins.
	if string(byName["a/A.class"]) != "a1" {
		t.Errorf("a/A.class = %q, want the first occurrence", byName["a/A.class"])
	}
}

func TestCollectArchiveRejectsTraversal(t *testing.T) {
	path := writeInputJar(t, []struct {
		name string
		data []byte
	}{
		{"ok/Fine.class", []byte("x")},
		{"../Evil.class", []byte("y")},
	})

	_, err := collectInputs(path)
	var jerr *jabierrors.JabiError
	if !errors.As(err, &jerr) || jerr.Code != jabierrors.InputMalformed {
		t.Fatalf("traversal entry should fail with INPUT_MALFORMED, got %v", err)
	}
}

func TestCollectMissingPath(t *testing.T) {
	_, err := collectInputs(filepath.Join(t.TempDir(), "missing"))
	var jerr *jabierrors.JabiError
	if !errors.As(err, &jerr) || jerr.Code != jabierrors.InputUnreadable {
		t.Fatalf("missing input should fail with INPUT_UNREADABLE, got %v", err)
	}
}

func TestCollectNonArchiveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.jar")
	if err := os.WriteFile(path, []byte("not a zip"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	_, err := collectInputs(path)
	var jerr *jabierrors.JabiError
	if !errors.As(err, &jerr) || jerr.Code != jabierrors.InputMalformed {
		t.Fatalf("non-archive input should fail with INPUT_MALFORMED, got %v", err)
	}
}
