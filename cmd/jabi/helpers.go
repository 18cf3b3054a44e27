package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"jabi/internal/config"
	jabierrors "jabi/internal/errors"
	"jabi/internal/fingerprint"
	"jabi/internal/logging"
)

// workRoot returns the workspace root: the --config override when given,
// the current directory otherwise.
func workRoot() (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	return os.Getwd()
}

// loadWorkConfig loads and validates the workspace configuration. A missing
// or unreadable config file falls back to defaults with a warning; an
// invalid one is an error the user has to fix.
func loadWorkConfig(root string) (*config.Config, error) {
	cfg, err := config.LoadConfig(root)
	if err != nil {
		bootstrapLogger().Warn("Failed to load config, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bootstrapLogger is the logger used before configuration is available.
func bootstrapLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.InfoLevel,
		Output: os.Stderr,
	})
}

// newLogger creates a logger from the configured format and level. Log
// output goes to stderr so command output on stdout stays clean.
func newLogger(cfg *config.Config) *logging.Logger {
	format, _ := logging.ParseFormat(cfg.Logging.Format)
	level, _ := logging.ParseLevel(cfg.Logging.Level)
	return logging.NewLogger(logging.Config{
		Format: format,
		Level:  level,
		Output: os.Stderr,
	})
}

// newSignalContext returns a context cancelled on SIGINT or SIGTERM.
func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// storeDir resolves the configured store directory against the workspace root.
func storeDir(root string, cfg *config.Config) string {
	dir := cfg.Store.Path
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return dir
}

// openRunStore opens the workspace run database.
func openRunStore(root string, cfg *config.Config, logger *logging.Logger) (*fingerprint.Store, error) {
	if !cfg.Store.Enabled {
		return nil, jabierrors.NewJabiError(jabierrors.StoreUnavailable,
			"Run recording is disabled in the workspace config", nil)
	}
	store, err := fingerprint.OpenStore(storeDir(root, cfg), logger)
	if err != nil {
		return nil, jabierrors.NewJabiError(jabierrors.StoreUnavailable,
			"Failed to open the run database", err)
	}
	return store, nil
}

// shortKey truncates a content key for display.
func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}

// shortID truncates a run identifier for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
