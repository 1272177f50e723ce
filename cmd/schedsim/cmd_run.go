package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/schedsim/internal/aadrr"
	"github.com/nvandessel/schedsim/internal/config"
	"github.com/nvandessel/schedsim/internal/loader"
	"github.com/nvandessel/schedsim/internal/logging"
	"github.com/nvandessel/schedsim/internal/metrics"
	"github.com/nvandessel/schedsim/internal/models"
	"github.com/nvandessel/schedsim/internal/report"
	"github.com/nvandessel/schedsim/internal/store"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Simulate AADRR over a workload",
		Long: `Run the AADRR scheduler and print the execution timeline, the process
completion table, the dynamic quantum log, the scheduling decision log and
the average metrics.

Each run is recorded in the project history (.schedsim/schedsim.db) unless
--no-save is given or the store is disabled. At debug log level every
scheduling cycle is also appended to .schedsim/decisions.jsonl.

Examples:
  schedsim run                         # process_data.json or the built-in workload
  schedsim run jobs.csv
  schedsim run jobs.yaml --burst-weight 1 --priority-weight 1
  schedsim run --json --no-save`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			noSave, _ := cmd.Flags().GetBool("no-save")

			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, settings)

			var file string
			if len(args) == 1 {
				file = args[0]
			}
			procs, source, err := loader.LoadOrDefault(root, file)
			if err != nil {
				return err
			}
			logger.Debug("workload loaded", "source", source, "processes", len(procs))

			cfg := aadrr.Config{
				BurstWeight:    intFlag(cmd, "burst-weight", settings.Engine.BurstWeight),
				PriorityWeight: intFlag(cmd, "priority-weight", settings.Engine.PriorityWeight),
				Logger:         logger,
			}
			eng, err := aadrr.NewEngine(procs, cfg)
			if err != nil {
				return err
			}
			res, err := eng.Run()
			if err != nil {
				return err
			}
			summary, err := metrics.Compute(procs, res.Schedule())
			if err != nil {
				return err
			}

			var runID string
			if settings.Store.Enabled && !noSave {
				runID, err = saveRun(cmd, settings, root, procs, summary, res, source, cfg)
				if err != nil {
					return err
				}
			}

			decisions := logging.NewDecisionLogger(store.LocalPath(root), settings.Logging.Level)
			defer decisions.Close()
			decisions.LogDecisions(runID, aadrr.AlgorithmName, res.DecisionLog)

			if wantJSON(cmd, settings) {
				return report.WriteJSON(cmd.OutOrStdout(), map[string]any{
					"run_id":  runID,
					"source":  source,
					"result":  res,
					"summary": summary,
				})
			}

			r, err := report.NewRenderer(cmd.OutOrStdout(), settings.Output.Language)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Workload: %s (%d processes)\n", source, len(procs))
			r.Timeline(res.Timeline)
			r.Completions(res.Completed)
			r.QuantumLog(res.QuantumLog)
			r.DecisionLog(res.DecisionLog)
			r.Metrics(summary)
			if runID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\nSaved run %s\n", runID)
			}
			return nil
		},
	}

	cmd.Flags().Int("burst-weight", aadrr.DefaultBurstWeight, "Rank weight A applied to the remaining burst")
	cmd.Flags().Int("priority-weight", aadrr.DefaultPriorityWeight, "Rank weight B applied to the priority")
	cmd.Flags().Bool("no-save", false, "Do not record the run in history")

	return cmd
}

// saveRun records an AADRR run in the project history and returns its ID.
func saveRun(cmd *cobra.Command, settings *config.SchedsimConfig, root string, procs []models.Process, summary metrics.Summary, res *aadrr.Result, source string, cfg aadrr.Config) (string, error) {
	rs, err := openRunStore(settings, root)
	if err != nil {
		return "", err
	}
	defer rs.Close()

	run, err := store.NewRun(procs, summary, res)
	if err != nil {
		return "", err
	}
	run.Source = source
	run.BurstWeight = cfg.BurstWeight
	run.PriorityWeight = cfg.PriorityWeight

	id, err := rs.SaveRun(cmd.Context(), run)
	if err != nil {
		return "", fmt.Errorf("failed to save run: %w", err)
	}
	return id, nil
}
