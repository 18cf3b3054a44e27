package main

import (
	"fmt"

	"github.com/spf13/cobra"

	jabierrors "jabi/internal/errors"
	"jabi/internal/fingerprint"
)

var keyEntries bool

var keyCmd = &cobra.Command{
	Use:   "key <abi.jar>",
	Short: "Print the content key of an archive",
	Long: `Key prints the BLAKE2b-256 content key of an extracted archive. Because
archives are byte-reproducible, equal keys mean equal ABI surfaces.

With --entries, every class entry is keyed individually instead.

Examples:
  jabi key out/abi.jar
  jabi key out/abi.jar --entries`,
	Args: cobra.ExactArgs(1),
	RunE: runKey,
}

func init() {
	keyCmd.Flags().BoolVar(&keyEntries, "entries", false, "Key each archive entry instead of the whole file")
	rootCmd.AddCommand(keyCmd)
}

func runKey(cmd *cobra.Command, args []string) error {
	path := args[0]

	if keyEntries {
		entries, err := fingerprint.EntryKeys(path)
		if err != nil {
			return jabierrors.NewJabiError(jabierrors.InputUnreadable,
				fmt.Sprintf("Cannot key entries of %s", path), err)
		}
		for _, e := range entries {
			fmt.Printf("%s  %s\n", e.Key, e.Name)
		}
		return nil
	}

	key, err := fingerprint.ArchiveKey(path)
	if err != nil {
		return jabierrors.NewJabiError(jabierrors.InputUnreadable,
			fmt.Sprintf("Cannot key %s", path), err)
	}
	fmt.Printf("%s  %s\n", key, path)
	return nil
}
