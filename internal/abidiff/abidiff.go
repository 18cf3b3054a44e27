// Package abidiff compares two extracted archives entry by entry. Because
// archives are deterministic, equal content keys mean equal surfaces; the
// interesting output is which classes appeared, vanished, or changed.
package abidiff

import (
	"archive/zip"
	"fmt"
	"io"

	difflib "github.com/pmezard/go-difflib/difflib"

	"jabi/internal/classfile"
	"jabi/internal/dump"
	"jabi/internal/fingerprint"
	"jabi/internal/mirror"
)

// EntryChange records one entry present in both archives with different
// content keys.
type EntryChange struct {
	Name   string
	OldKey string
	NewKey string
}

// EntryDiff is the unified text diff of one changed entry's structural dump.
type EntryDiff struct {
	Name string
	Diff string
}

// Report is the entry-level comparison of two archives.
type Report struct {
	OldPath   string
	NewPath   string
	OldKey    string
	NewKey    string
	Added     []string
	Removed   []string
	Changed   []EntryChange
	Unchanged int
}

// Same reports whether both archives expose identical entries.
func (r *Report) Same() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Changed) == 0
}

// Compare keys both archives and reports their entry-level differences.
// EntryKeys returns entries sorted by name, so the report lists come out
// ordered without further sorting.
func Compare(oldPath, newPath string) (*Report, error) {
	oldKey, err := fingerprint.ArchiveKey(oldPath)
	if err != nil {
		return nil, err
	}
	newKey, err := fingerprint.ArchiveKey(newPath)
	if err != nil {
		return nil, err
	}
	oldEntries, err := fingerprint.EntryKeys(oldPath)
	if err != nil {
		return nil, err
	}
	newEntries, err := fingerprint.EntryKeys(newPath)
	if err != nil {
		return nil, err
	}

	oldByName := make(map[string]fingerprint.Entry, len(oldEntries))
	for _, e := range oldEntries {
		oldByName[e.Name] = e
	}
	newByName := make(map[string]fingerprint.Entry, len(newEntries))
	for _, e := range newEntries {
		newByName[e.Name] = e
	}

	r := &Report{
		OldPath: oldPath,
		NewPath: newPath,
		OldKey:  oldKey,
		NewKey:  newKey,
	}
	for _, e := range newEntries {
		old, ok := oldByName[e.Name]
		if !ok {
			r.Added = append(r.Added, e.Name)
			continue
		}
		if old.Key != e.Key {
			r.Changed = append(r.Changed, EntryChange{Name: e.Name, OldKey: old.Key, NewKey: e.Key})
		} else {
			r.Unchanged++
		}
	}
	for _, e := range oldEntries {
		if _, ok := newByName[e.Name]; !ok {
			r.Removed = append(r.Removed, e.Name)
		}
	}
	return r, nil
}

// UnifiedDiffs renders a unified text diff of the structural dump for every
// changed entry, in report order. The entries must be decodable by the named
// codec.
func (r *Report) UnifiedDiffs(codecName string) ([]EntryDiff, error) {
	if len(r.Changed) == 0 {
		return nil, nil
	}
	codec, err := classfile.Lookup(codecName)
	if err != nil {
		return nil, err
	}

	changed := make(map[string]bool, len(r.Changed))
	for _, ch := range r.Changed {
		changed[ch.Name] = true
	}
	oldData, err := readEntries(r.OldPath, changed)
	if err != nil {
		return nil, err
	}
	newData, err := readEntries(r.NewPath, changed)
	if err != nil {
		return nil, err
	}

	diffs := make([]EntryDiff, 0, len(r.Changed))
	for _, ch := range r.Changed {
		oldText, err := entryDump(codec, ch.Name, oldData[ch.Name])
		if err != nil {
			return nil, err
		}
		newText, err := entryDump(codec, ch.Name, newData[ch.Name])
		if err != nil {
			return nil, err
		}

		text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(oldText),
			B:        difflib.SplitLines(newText),
			FromFile: "old/" + ch.Name,
			ToFile:   "new/" + ch.Name,
			Context:  3,
		})
		if err != nil {
			return nil, fmt.Errorf("diffing %s: %w", ch.Name, err)
		}
		diffs = append(diffs, EntryDiff{Name: ch.Name, Diff: text})
	}
	return diffs, nil
}

func entryDump(codec classfile.Codec, name string, data []byte) (string, error) {
	m := mirror.NewClassMirror(name)
	if err := codec.Decode(data, m); err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	p := dump.NewPrinter()
	m.Replay(p)
	return p.String(), nil
}

func readEntries(path string, names map[string]bool) (map[string][]byte, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer r.Close()

	out := make(map[string][]byte, len(names))
	for _, f := range r.File {
		if !names[f.Name] {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
		}
		out[f.Name] = data
	}
	return out, nil
}
