package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/schedsim/internal/config"
	"github.com/nvandessel/schedsim/internal/logging"
	"github.com/nvandessel/schedsim/internal/store"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "schedsim",
		Short: "AADRR CPU scheduling simulator",
		Long: `schedsim simulates the Adaptive Advanced Dynamic Round Robin (AADRR)
CPU scheduler over a workload of processes and compares it with FCFS and
fixed-quantum round robin.

Workloads are read from .json, .yaml or .csv files. Without a file the
project's process_data.json is used, or a built-in six-process workload.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("root", ".", "Project root directory")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.schedsim/config.yaml)")
	rootCmd.PersistentFlags().String("lang", "", "Report language: en or es (overrides config)")

	rootCmd.AddCommand(
		newRunCmd(),
		newCompareCmd(),
		newChartCmd(),
		newServeCmd(),
		newHistoryCmd(),
		newBackupCmd(),
		newConfigCmd(),
		newVersionCmd(),
		newMCPServerCmd(),
	)

	return rootCmd
}

// loadSettings loads the config named by --config and applies --lang.
func loadSettings(cmd *cobra.Command) (*config.SchedsimConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if lang, _ := cmd.Flags().GetString("lang"); lang != "" {
		cfg.Output.Language = lang
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newLogger returns the operational logger. It writes to stderr so that
// --json output stays parseable.
func newLogger(cmd *cobra.Command, cfg *config.SchedsimConfig) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}

// wantJSON reports whether output should be JSON, via --json or output.format.
func wantJSON(cmd *cobra.Command, cfg *config.SchedsimConfig) bool {
	jsonOut, _ := cmd.Flags().GetBool("json")
	return jsonOut || cfg.Output.Format == "json"
}

// openRunStore opens the run history database for root.
func openRunStore(cfg *config.SchedsimConfig, root string) (*store.SQLiteRunStore, error) {
	if !cfg.Store.Enabled {
		return nil, fmt.Errorf("run history is disabled (store.enabled is false)")
	}
	rs, err := store.NewSQLiteRunStore(cfg.StorePath(root))
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	return rs, nil
}

// intFlag returns the flag value when it was set on the command line, else def.
func intFlag(cmd *cobra.Command, name string, def int) int {
	if !cmd.Flags().Changed(name) {
		return def
	}
	v, _ := cmd.Flags().GetInt(name)
	return v
}
