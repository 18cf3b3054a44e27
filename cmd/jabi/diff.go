package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jabi/internal/abidiff"
	"jabi/internal/classfile"
	jabierrors "jabi/internal/errors"
)

var (
	diffUnified bool
	diffCodec   string
)

var diffCmd = &cobra.Command{
	Use:   "diff <old.jar> <new.jar>",
	Short: "Compare two ABI archives entry by entry",
	Long: `Diff keys both archives and reports which class entries were added,
removed, or changed between them.

With --unified, changed entries are also rendered as unified text diffs of
their decoded surfaces.

Examples:
  jabi diff out/abi-v1.jar out/abi-v2.jar
  jabi diff out/abi-v1.jar out/abi-v2.jar --unified`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().BoolVar(&diffUnified, "unified", false, "Render unified diffs of changed entries")
	diffCmd.Flags().StringVar(&diffCodec, "codec", "", "Class codec (default from config)")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	root, err := workRoot()
	if err != nil {
		return jabierrors.NewJabiError(jabierrors.InternalError, "Failed to resolve workspace root", err)
	}
	cfg, err := loadWorkConfig(root)
	if err != nil {
		return err
	}

	rep, err := abidiff.Compare(args[0], args[1])
	if err != nil {
		return jabierrors.NewJabiError(jabierrors.InputUnreadable, "Failed to compare archives", err)
	}

	fmt.Printf("old: %s (%s)\n", rep.OldPath, shortKey(rep.OldKey))
	fmt.Printf("new: %s (%s)\n", rep.NewPath, shortKey(rep.NewKey))

	if rep.Same() {
		fmt.Println("ABI surfaces are identical.")
		return nil
	}

	fmt.Println()
	for _, name := range rep.Removed {
		fmt.Printf("D %s\n", name)
	}
	for _, ch := range rep.Changed {
		fmt.Printf("M %s\n", ch.Name)
	}
	for _, name := range rep.Added {
		fmt.Printf("A %s\n", name)
	}
	fmt.Printf("\n%d added, %d removed, %d changed, %d unchanged\n",
		len(rep.Added), len(rep.Removed), len(rep.Changed), rep.Unchanged)

	if diffUnified && len(rep.Changed) > 0 {
		codecName := resolveCodec(diffCodec, cfg)
		if _, err := classfile.Lookup(codecName); err != nil {
			return jabierrors.NewJabiError(jabierrors.CodecUnknown,
				fmt.Sprintf("Unknown codec %q", codecName), err).
				WithDetails(map[string]interface{}{"registered": classfile.Names()})
		}
		diffs, err := rep.UnifiedDiffs(codecName)
		if err != nil {
			return jabierrors.NewJabiError(jabierrors.InputMalformed, "Failed to render entry diffs", err)
		}
		for _, d := range diffs {
			fmt.Println()
			fmt.Print(d.Diff)
		}
	}
	return nil
}
