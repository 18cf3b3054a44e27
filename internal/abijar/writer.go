// Package abijar writes deflate-compressed class archives whose bytes
// depend only on the entries written. Entry names must arrive in ascending
// byte order, and every entry carries the same fixed timestamp and mode, so
// equal inputs always produce byte-identical archives.
package abijar

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/flate"
)

// FixedModTime is stamped on every archive entry. It is the ZIP format's
// epoch, 1980-01-01T00:00:00Z, the earliest instant the format can store.
var FixedModTime = time.Unix(315532800, 0).UTC()

// ErrOutOfOrder reports an entry whose name does not sort strictly after
// the previous entry's name.
var ErrOutOfOrder = errors.New("entry name not in ascending order")

const entryMode = 0o644

// Writer produces a deterministic archive. Entries must be written in
// ascending name order; the first failed write poisons the writer and every
// later call, including Close, reports that error.
type Writer struct {
	mu       sync.Mutex
	zw       *zip.Writer
	f        *os.File
	path     string
	tmpPath  string
	lastName string
	count    int
	err      error
	closed   bool
}

// Create opens a Writer that atomically replaces path on Close. The archive
// is staged in a temporary file next to path and renamed only after a
// successful flush, so a failed run never leaves a partial archive behind.
func Create(path string) (*Writer, error) {
	return CreateLevel(path, flate.DefaultCompression)
}

// CreateLevel is Create with an explicit deflate compression level.
func CreateLevel(path string, level int) (*Writer, error) {
	if err := checkLevel(level); err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return nil, fmt.Errorf("create archive staging file: %w", err)
	}
	w := newWriter(f, level)
	w.f = f
	w.path = path
	w.tmpPath = f.Name()
	return w, nil
}

// NewWriter returns a Writer that streams the archive to w. The caller owns
// w; nothing is flushed to it after a failed entry.
func NewWriter(w io.Writer) *Writer {
	zw, _ := NewWriterLevel(w, flate.DefaultCompression)
	return zw
}

// NewWriterLevel is NewWriter with an explicit deflate compression level.
func NewWriterLevel(w io.Writer, level int) (*Writer, error) {
	if err := checkLevel(level); err != nil {
		return nil, err
	}
	return newWriter(w, level), nil
}

func checkLevel(level int) error {
	if level < flate.ConstantCompression || level > flate.BestCompression {
		return fmt.Errorf("invalid compression level %d", level)
	}
	return nil
}

func newWriter(out io.Writer, level int) *Writer {
	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})
	return &Writer{zw: zw}
}

// WriteEntry appends one entry. The name must sort strictly after the
// previous entry's name; equal names are rejected too, duplicates must be
// collapsed before writing.
func (w *Writer) WriteEntry(name string, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.New("archive writer is closed")
	}
	if w.err != nil {
		return w.err
	}
	if name == "" {
		return w.fail(errors.New("empty entry name"))
	}
	if w.lastName != "" && name <= w.lastName {
		return w.fail(fmt.Errorf("%w: %q after %q", ErrOutOfOrder, name, w.lastName))
	}

	hdr := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: FixedModTime,
	}
	hdr.SetMode(entryMode)

	ew, err := w.zw.CreateHeader(hdr)
	if err != nil {
		return w.fail(fmt.Errorf("create entry %s: %w", name, err))
	}
	if _, err := ew.Write(data); err != nil {
		return w.fail(fmt.Errorf("write entry %s: %w", name, err))
	}

	w.lastName = name
	w.count++
	return nil
}

// fail records the first error; the writer stays poisoned from then on.
func (w *Writer) fail(err error) error {
	w.err = err
	return err
}

// Count reports how many entries have been written so far.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close flushes the archive. For file-backed writers the staged file is
// fsynced and renamed over the target path; if any entry failed, the staged
// file is removed instead and the target is left untouched.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.New("archive writer is closed")
	}
	w.closed = true

	if w.err == nil {
		if err := w.zw.Close(); err != nil {
			w.err = fmt.Errorf("finalize archive: %w", err)
		}
	}

	if w.f == nil {
		return w.err
	}

	if w.err != nil {
		w.f.Close()
		os.Remove(w.tmpPath)
		return w.err
	}

	if err := w.f.Sync(); err != nil {
		w.f.Close()
		os.Remove(w.tmpPath)
		w.err = fmt.Errorf("sync archive: %w", err)
		return w.err
	}
	if err := w.f.Close(); err != nil {
		os.Remove(w.tmpPath)
		w.err = fmt.Errorf("close archive: %w", err)
		return w.err
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		os.Remove(w.tmpPath)
		w.err = fmt.Errorf("publish archive: %w", err)
		return w.err
	}
	return nil
}

// Abort discards the archive without publishing it. Safe to call after
// Close, in which case it does nothing.
func (w *Writer) Abort() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.f != nil {
		w.f.Close()
		if err := os.Remove(w.tmpPath); err != nil {
			return fmt.Errorf("remove staging file: %w", err)
		}
	}
	return nil
}
