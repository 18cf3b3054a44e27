// Package extract runs the extraction pipeline: collect class files,
// populate one mirror per class through the configured codec, then replay
// the mirrors in canonical order into a deterministic archive.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"jabi/internal/abijar"
	"jabi/internal/classfile"
	jabierrors "jabi/internal/errors"
	"jabi/internal/fingerprint"
	"jabi/internal/logging"
	"jabi/internal/mirror"
	"jabi/internal/stubcodec"
)

// Options configures one extraction run.
type Options struct {
	// Input is a directory tree or a zip archive of class files.
	Input string
	// Output is the archive path to write.
	Output string
	// Codec is the registered codec name; empty selects the stub codec.
	Codec string
	// Workers bounds mirror population concurrency; 0 uses all CPUs.
	Workers int
	// Level is the deflate level passed to the archive writer. Zero stores
	// entries uncompressed; -1 selects the default level.
	Level int
	// Store, when set, records the finished run and its entry keys.
	Store *fingerprint.Store
	// Logger receives progress output; nil discards it.
	Logger *logging.Logger
}

// Result describes a finished extraction.
type Result struct {
	Output     string
	Classes    int
	ArchiveKey string
	RunID      string
	Elapsed    time.Duration
}

// Extract runs the pipeline described by opts. The first failure cancels
// outstanding work, aborts the archive, and is returned as a coded error;
// a cancelled ctx aborts the same way and returns the context error.
func Extract(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger(logging.Config{
			Format: logging.HumanFormat,
			Level:  logging.ErrorLevel,
			Output: io.Discard,
		})
	}

	if opts.Input == "" {
		return nil, jabierrors.NewJabiError(jabierrors.InputUnreadable, "no input path given", nil)
	}
	if opts.Output == "" {
		return nil, jabierrors.NewJabiError(jabierrors.ArchiveWriteFailed, "no output path given", nil)
	}

	codecName := opts.Codec
	if codecName == "" {
		codecName = stubcodec.Name
	}
	codec, err := classfile.Lookup(codecName)
	if err != nil {
		return nil, jabierrors.NewJabiError(jabierrors.CodecUnknown,
			fmt.Sprintf("unknown codec %q", codecName), err).
			WithDetails(map[string]interface{}{"registered": classfile.Names()})
	}

	start := time.Now()

	inputs, err := collectInputs(opts.Input)
	if err != nil {
		return nil, err
	}
	logger.Debug("Collected class inputs", map[string]interface{}{
		"input":   opts.Input,
		"classes": len(inputs),
	})
	if len(inputs) == 0 {
		logger.Warn("No class files found", map[string]interface{}{
			"input": opts.Input,
		})
	}

	mirrors, err := populate(ctx, codec, inputs, opts.Workers)
	if err != nil {
		return nil, err
	}

	mirror.SortClasses(mirrors)

	w, err := abijar.CreateLevel(opts.Output, opts.Level)
	if err != nil {
		return nil, jabierrors.NewJabiError(jabierrors.ArchiveWriteFailed,
			fmt.Sprintf("cannot create archive %s", opts.Output), err)
	}
	for _, m := range mirrors {
		if err := ctx.Err(); err != nil {
			w.Abort()
			return nil, err
		}
		if err := m.WriteTo(w, codec); err != nil {
			w.Abort()
			if errors.Is(err, abijar.ErrOutOfOrder) {
				return nil, jabierrors.NewJabiError(jabierrors.OrderViolation,
					fmt.Sprintf("entry %s arrived out of order", m.EntryName()), err)
			}
			return nil, jabierrors.NewJabiError(jabierrors.ArchiveWriteFailed,
				fmt.Sprintf("writing entry %s", m.EntryName()), err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, jabierrors.NewJabiError(jabierrors.ArchiveWriteFailed,
			fmt.Sprintf("finalizing archive %s", opts.Output), err)
	}

	key, err := fingerprint.ArchiveKey(opts.Output)
	if err != nil {
		return nil, jabierrors.NewJabiError(jabierrors.InternalError,
			fmt.Sprintf("fingerprinting archive %s", opts.Output), err)
	}

	result := &Result{
		Output:     opts.Output,
		Classes:    len(mirrors),
		ArchiveKey: key,
		Elapsed:    time.Since(start),
	}

	if opts.Store != nil {
		entries, err := fingerprint.EntryKeys(opts.Output)
		if err != nil {
			return nil, jabierrors.NewJabiError(jabierrors.InternalError,
				fmt.Sprintf("keying archive entries of %s", opts.Output), err)
		}
		run := &fingerprint.Run{
			Output:     opts.Output,
			ArchiveKey: key,
			ClassCount: len(mirrors),
		}
		if err := opts.Store.RecordRun(run, entries); err != nil {
			return nil, jabierrors.NewJabiError(jabierrors.StoreUnavailable,
				"recording extraction run", err)
		}
		result.RunID = run.ID
	}

	logger.Info("Extraction complete", map[string]interface{}{
		"output":   result.Output,
		"classes":  result.Classes,
		"key":      result.ArchiveKey,
		"duration": result.Elapsed.String(),
	})

	return result, nil
}

// populate decodes every input into its own mirror. Distinct classes decode
// in parallel; each single mirror only ever sees one goroutine.
func populate(ctx context.Context, codec classfile.Codec, inputs []input, workers int) ([]*mirror.ClassMirror, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}

	mirrors := make([]*mirror.ClassMirror, len(inputs))
	if len(inputs) == 0 {
		return mirrors, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	jobs := make(chan int)
	go func() {
		defer close(jobs)
		for i := range inputs {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					return
				}
				in := inputs[idx]
				m := mirror.NewClassMirror(in.name)
				if err := codec.Decode(in.data, m); err != nil {
					fail(jabierrors.NewJabiError(jabierrors.InputMalformed,
						fmt.Sprintf("decoding %s", in.name), err).
						WithDetails(map[string]interface{}{"entry": in.name}))
					return
				}
				mirrors[idx] = m
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return mirrors, nil
}
