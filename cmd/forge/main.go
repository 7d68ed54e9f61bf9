// Package main implements the forge CLI - a deterministic coding-agent
// orchestrator.
//
// This file is the entry point and command registration hub; the actual
// run subcommand lives in cmd_run.go, grounded on the teacher's split
// between main.go (global flags, rootCmd, init()) and its per-command
// cmd_*.go files (cmd/nerd/main.go, cmd_instruction.go).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"forge/internal/logging"
)

var (
	verbose      bool
	workspace    string
	timeout      time.Duration
	configPath   string
	maxModules   int
	parallelism  int
	maxRepairs   int
	successFiles []string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "forge - deterministic coding-agent orchestrator",
	Long: `forge decomposes a natural-language build intent into a verifiable
module plan, drives each module through a worker/verifier repair loop, and
enforces goal alignment with a drift detector at every step.

Logic determines success; the model only proposes.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ws := workspace
		if ws == "" {
			ws, _ = os.Getwd()
		}
		if err := logging.Initialize(ws, verbose); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize file logging: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Session timeout")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to .forge/config.yaml (default: workspace/.forge/config.yaml)")

	runCmd.Flags().IntVar(&maxModules, "max-modules", 0, "Override max module count (0 = config default)")
	runCmd.Flags().IntVar(&parallelism, "parallelism", 0, "Override per-level parallelism (0 = config default)")
	runCmd.Flags().IntVar(&maxRepairs, "max-repair-attempts", 0, "Override max repair attempts per module (0 = config default)")
	runCmd.Flags().StringArrayVar(&successFiles, "require-file", nil, "Path (relative to workspace) that must exist for the session to pass; repeatable")

	rootCmd.AddCommand(runCmd, storeCmd)
	storeCmd.AddCommand(storeInspectCmd)
}

func resolveWorkspace() (string, error) {
	ws := workspace
	if ws == "" {
		var err error
		ws, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}
	abs, err := filepath.Abs(ws)
	if err != nil {
		return "", err
	}
	return abs, nil
}

func resolveConfigPath(ws string) string {
	if configPath != "" {
		return configPath
	}
	return filepath.Join(ws, ".forge", "config.yaml")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
