package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"jabi/internal/config"
	jabierrors "jabi/internal/errors"
	"jabi/internal/extract"
	"jabi/internal/fingerprint"
	"jabi/internal/logging"
	"jabi/internal/target"
)

var (
	extractIn      string
	extractOut     string
	extractCodec   string
	extractWorkers int
	extractRecord  bool
	extractTargets string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract an ABI archive from compiled classes",
	Long: `Extract reads a directory or archive of compiled classes, keeps each class's
publicly visible surface, and writes the surfaces as a deterministic ABI archive.

Examples:
  jabi extract --in build/classes --out out/abi.jar
  jabi extract --in libs/core.jar --out out/core-abi.jar --workers 4
  jabi extract --in build/classes --out out/abi.jar --record
  jabi extract --targets jabi.toml`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractIn, "in", "", "Class directory or archive to read")
	extractCmd.Flags().StringVar(&extractOut, "out", "", "ABI archive path to write")
	extractCmd.Flags().StringVar(&extractCodec, "codec", "", "Class codec (default from config)")
	extractCmd.Flags().IntVar(&extractWorkers, "workers", 0, "Decode workers, 0 for one per CPU")
	extractCmd.Flags().BoolVar(&extractRecord, "record", false, "Record the run in the workspace database")
	extractCmd.Flags().StringVar(&extractTargets, "targets", "", "Run every target declared in the given jabi.toml")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	root, err := workRoot()
	if err != nil {
		return jabierrors.NewJabiError(jabierrors.InternalError, "Failed to resolve workspace root", err)
	}
	cfg, err := loadWorkConfig(root)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	workers, err := resolveWorkers(extractWorkers, cfg)
	if err != nil {
		return err
	}
	codec := resolveCodec(extractCodec, cfg)

	var store *fingerprint.Store
	if extractRecord {
		store, err = openRunStore(root, cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	ctx, cancel := newSignalContext()
	defer cancel()

	if extractTargets != "" {
		return runDeclaredTargets(ctx, cfg, store, logger, codec, workers)
	}

	if extractIn == "" || extractOut == "" {
		return fmt.Errorf("either --targets or both --in and --out must be given")
	}

	return runOneExtraction(ctx, store, "", extract.Options{
		Input:   extractIn,
		Output:  extractOut,
		Codec:   codec,
		Workers: workers,
		Level:   cfg.CompressionLevel,
		Store:   store,
		Logger:  logger,
	})
}

// runDeclaredTargets runs every extraction declared in the targets file.
// Relative target paths resolve against the file's directory.
func runDeclaredTargets(ctx context.Context, cfg *config.Config, store *fingerprint.Store, logger *logging.Logger, codec string, workers int) error {
	decls, err := target.ParseFile(extractTargets)
	if err != nil {
		return jabierrors.NewJabiError(jabierrors.TargetsInvalid, "Invalid target declarations", err)
	}
	if len(decls.Targets) == 0 {
		fmt.Printf("No targets declared in %s\n", extractTargets)
		return nil
	}

	base := filepath.Dir(extractTargets)
	for _, t := range decls.Targets {
		targetCodec := t.Codec
		if targetCodec == "" {
			targetCodec = codec
		}
		err := runOneExtraction(ctx, store, t.Name, extract.Options{
			Input:   resolveTargetPath(base, t.Input),
			Output:  resolveTargetPath(base, t.Output),
			Codec:   targetCodec,
			Workers: workers,
			Level:   cfg.CompressionLevel,
			Store:   store,
			Logger:  logger,
		})
		if err != nil {
			return fmt.Errorf("target %q: %w", t.Name, err)
		}
	}

	fmt.Printf("Completed %d targets.\n", len(decls.Targets))
	return nil
}

func resolveTargetPath(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// runOneExtraction extracts one input and reports whether the recorded
// surface moved since the previous run for the same output.
func runOneExtraction(ctx context.Context, store *fingerprint.Store, name string, opts extract.Options) error {
	var prev *fingerprint.Run
	if store != nil {
		var err error
		prev, err = store.LastRunFor(opts.Output)
		if err != nil {
			return jabierrors.NewJabiError(jabierrors.StoreUnavailable, "Failed to look up the previous run", err)
		}
	}

	res, err := extract.Extract(ctx, opts)
	if err != nil {
		return err
	}

	prefix := ""
	if name != "" {
		prefix = name + ": "
	}
	fmt.Printf("%sExtracted %d classes to %s\n", prefix, res.Classes, res.Output)
	fmt.Printf("%sArchive key: %s\n", prefix, res.ArchiveKey)

	if store != nil {
		switch {
		case prev == nil:
			fmt.Printf("%sRecorded first run for this output.\n", prefix)
		case prev.ArchiveKey == res.ArchiveKey:
			fmt.Printf("%sABI unchanged since last recorded run.\n", prefix)
		default:
			fmt.Printf("%sABI changed since last recorded run (was %s).\n", prefix, shortKey(prev.ArchiveKey))
		}
	}
	return nil
}
