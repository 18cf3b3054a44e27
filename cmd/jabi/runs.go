package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	jabierrors "jabi/internal/errors"
	"jabi/internal/fingerprint"
)

var (
	runsLimit int
	runsOut   string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded extraction runs",
	Long: `Runs lists extractions recorded with 'jabi extract --record', newest
first. Each line shows when the run happened, its id, how many classes it
covered, the archive key, and the output path.

Examples:
  jabi runs
  jabi runs --limit 5
  jabi runs --out out/abi.jar`,
	Args: cobra.NoArgs,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list")
	runsCmd.Flags().StringVar(&runsOut, "out", "", "Only list runs for this output path")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	root, err := workRoot()
	if err != nil {
		return jabierrors.NewJabiError(jabierrors.InternalError, "Failed to resolve workspace root", err)
	}
	cfg, err := loadWorkConfig(root)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	dbPath := filepath.Join(storeDir(root, cfg), "jabi.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No run database found.")
		fmt.Println("Run 'jabi extract --record' to start recording runs.")
		return nil
	}

	store, err := openRunStore(root, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var runs []fingerprint.Run
	if runsOut != "" {
		runs, err = store.HistoryFor(runsOut, runsLimit)
	} else {
		runs, err = store.History(runsLimit)
	}
	if err != nil {
		return jabierrors.NewJabiError(jabierrors.StoreUnavailable, "Failed to read run history", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Printf("%-20s  %-8s  %7s  %-12s  %s\n", "CREATED", "ID", "CLASSES", "KEY", "OUTPUT")
	for _, run := range runs {
		fmt.Printf("%-20s  %-8s  %7d  %-12s  %s\n",
			run.CreatedAt.UTC().Format(time.RFC3339),
			shortID(run.ID),
			run.ClassCount,
			shortKey(run.ArchiveKey),
			run.Output)
	}
	return nil
}
