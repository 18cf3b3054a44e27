package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"jabi/internal/config"
	"jabi/internal/version"
)

var (
	// configFlag is the CLI --config flag value
	configFlag string
)

var rootCmd = &cobra.Command{
	Use:   "jabi",
	Short: "jabi - deterministic ABI extraction for JVM classes",
	Long: `jabi reads compiled JVM class files, keeps only the publicly visible surface
of each class, and re-serializes the result into a byte-reproducible ABI archive.
Equal surfaces produce equal archives, so build caches can key on content
instead of timestamps.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("jabi version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "",
		"Workspace root holding the .jabi directory (default: current directory)")
}

// resolveCodec determines the effective codec name from CLI flag, env var, and config.
// Precedence: CLI flag > JABI_CODEC env var > config codec > stub
func resolveCodec(flag string, cfg *config.Config) string {
	// 1. CLI flag (highest priority)
	if flag != "" {
		return flag
	}

	// 2. Environment variable
	if env := os.Getenv("JABI_CODEC"); env != "" {
		return env
	}

	// 3. Config file default
	if cfg != nil && cfg.Codec != "" {
		return cfg.Codec
	}

	return "stub"
}

// resolveWorkers determines the worker count from CLI flag, env var, and config.
// Precedence: CLI flag > JABI_WORKERS env var > config workers > auto
// Zero means one worker per CPU.
func resolveWorkers(flag int, cfg *config.Config) (int, error) {
	// 1. CLI flag (highest priority)
	if flag > 0 {
		return flag, nil
	}

	// 2. Environment variable
	if env := os.Getenv("JABI_WORKERS"); env != "" {
		n, err := strconv.Atoi(env)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid JABI_WORKERS value %q", env)
		}
		return n, nil
	}

	// 3. Config file default
	if cfg != nil && cfg.Workers > 0 {
		return cfg.Workers, nil
	}

	// 4. One worker per CPU (default)
	return 0, nil
}
