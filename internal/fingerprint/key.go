// Package fingerprint derives stable content keys for extracted archives
// and records extraction runs in a local SQLite database, so consecutive
// runs over the same output path can be compared without keeping old
// archives around.
package fingerprint

import (
	"archive/zip"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// Entry is one archive member identified by the key of its uncompressed
// content.
type Entry struct {
	Name string `json:"name"`
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// KeyOf returns the hex BLAKE2b-256 digest of data.
func KeyOf(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// KeyOfReader returns the hex BLAKE2b-256 digest of everything read from r.
func KeyOfReader(r io.Reader) (string, error) {
	h, _ := blake2b.New256(nil)
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ArchiveKey returns the hex BLAKE2b-256 digest of the file at path. Because
// archives are written deterministically, equal ABI surfaces yield equal
// archive keys.
func ArchiveKey(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	key, err := KeyOfReader(f)
	if err != nil {
		return "", fmt.Errorf("hash archive %s: %w", path, err)
	}
	return key, nil
}

// EntryKeys keys every file entry in the archive at path by its uncompressed
// content. Entries come back sorted by name so foreign archives compare the
// same way as ones written here.
func EntryKeys(path string) ([]Entry, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer r.Close()

	var entries []Entry
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
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
		entries = append(entries, Entry{
			Name: f.Name,
			Key:  KeyOf(data),
			Size: int64(len(data)),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}
