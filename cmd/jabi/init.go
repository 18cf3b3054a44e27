package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"jabi/internal/config"
	jabierrors "jabi/internal/errors"
	"jabi/internal/logging"
)

var (
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize jabi configuration",
	Long:  "Creates a .jabi/ directory with default configuration in the workspace root",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Force reinitialization (removes existing .jabi directory)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	logger := logging.NewLogger(logging.Config{
		Format: "human",
		Level:  "info",
	})

	root, err := workRoot()
	if err != nil {
		return jabierrors.NewJabiError(jabierrors.InternalError, "Failed to resolve workspace root", err)
	}

	// Check if .jabi already exists
	jabiDir := filepath.Join(root, ".jabi")
	if _, statErr := os.Stat(jabiDir); statErr == nil {
		if !initForce {
			// Idempotent behavior: already initialized is success (CI-friendly)
			fmt.Println("jabi already initialized.")
			fmt.Printf("Configuration at: %s\n", filepath.Join(jabiDir, "config.json"))
			fmt.Println("\nRun 'jabi init --force' to reinitialize.")
			return nil
		}
		// Remove existing directory
		if removeErr := os.RemoveAll(jabiDir); removeErr != nil {
			return jabierrors.NewJabiError(jabierrors.InternalError, "Failed to remove existing .jabi directory", removeErr)
		}
		logger.Info("Removed existing .jabi directory", nil)
	}

	// Create .jabi directory
	if mkdirErr := os.MkdirAll(jabiDir, 0755); mkdirErr != nil {
		return jabierrors.NewJabiError(jabierrors.InternalError, "Failed to create .jabi directory", mkdirErr)
	}

	// Write default config
	cfg := config.DefaultConfig()
	configPath := filepath.Join(jabiDir, "config.json")
	if saveErr := cfg.Save(root); saveErr != nil {
		return jabierrors.NewJabiError(jabierrors.InternalError, "Failed to write config file", saveErr)
	}

	logger.Info("jabi initialized successfully", map[string]interface{}{
		"config_path": configPath,
	})

	fmt.Println("jabi initialized successfully!")
	fmt.Printf("Configuration written to: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Run 'jabi extract --in <classes> --out <abi.jar>' to extract an ABI archive")
	fmt.Println("  2. Run 'jabi runs' to review recorded extractions")

	return nil
}
