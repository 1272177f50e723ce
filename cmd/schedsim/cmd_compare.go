package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/schedsim/internal/aadrr"
	"github.com/nvandessel/schedsim/internal/compare"
	"github.com/nvandessel/schedsim/internal/config"
	"github.com/nvandessel/schedsim/internal/loader"
	"github.com/nvandessel/schedsim/internal/report"
)

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [file]",
		Short: "Compare AADRR with FCFS and round robin",
		Long: `Run AADRR, FCFS and fixed-quantum round robin over the same workload and
print their average turnaround, waiting and response times with the best
algorithm for each metric.

Examples:
  schedsim compare
  schedsim compare jobs.csv --rr-quantum 2
  schedsim compare --lang es`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")

			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			var file string
			if len(args) == 1 {
				file = args[0]
			}
			procs, source, err := loader.LoadOrDefault(root, file)
			if err != nil {
				return err
			}

			opts, err := compareOptions(cmd, settings)
			if err != nil {
				return err
			}
			cmp, err := compare.Run(cmd.Context(), procs, compare.DefaultSchedulers(opts)...)
			if err != nil {
				return err
			}

			if wantJSON(cmd, settings) {
				return report.WriteJSON(cmd.OutOrStdout(), map[string]any{
					"source":     source,
					"comparison": cmp,
					"best":       cmp.Best(),
				})
			}

			r, err := report.NewRenderer(cmd.OutOrStdout(), settings.Output.Language)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Workload: %s (%d processes)\n", source, len(procs))
			r.Comparison(cmp)
			return nil
		},
	}

	addCompareFlags(cmd)
	return cmd
}

// addCompareFlags registers the flags shared by every command that runs the
// default comparison.
func addCompareFlags(cmd *cobra.Command) {
	cmd.Flags().Int("burst-weight", aadrr.DefaultBurstWeight, "AADRR rank weight A applied to the remaining burst")
	cmd.Flags().Int("priority-weight", aadrr.DefaultPriorityWeight, "AADRR rank weight B applied to the priority")
	cmd.Flags().Int("rr-quantum", 4, "Round robin time slice")
}

// compareOptions merges the comparison flags over the config.
func compareOptions(cmd *cobra.Command, settings *config.SchedsimConfig) (compare.Options, error) {
	opts := compare.Options{
		BurstWeight:    intFlag(cmd, "burst-weight", settings.Engine.BurstWeight),
		PriorityWeight: intFlag(cmd, "priority-weight", settings.Engine.PriorityWeight),
		RRQuantum:      intFlag(cmd, "rr-quantum", settings.Baselines.RRQuantum),
	}
	if opts.RRQuantum <= 0 {
		return opts, fmt.Errorf("rr-quantum must be positive, got %d", opts.RRQuantum)
	}
	return opts, nil
}
