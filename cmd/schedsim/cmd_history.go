package main

import (
	"errors"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/nvandessel/schedsim/internal/report"
	"github.com/nvandessel/schedsim/internal/store"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded simulation runs",
		Long: `List, show, delete and export the runs recorded by 'schedsim run'.

Runs live in <root>/.schedsim/schedsim.db unless store.path is configured.

Examples:
  schedsim history list
  schedsim history list --algorithm AADRR --limit 5
  schedsim history show 3f0c...
  schedsim history export --output runs.jsonl`,
	}

	cmd.AddCommand(
		newHistoryListCmd(),
		newHistoryShowCmd(),
		newHistoryDeleteCmd(),
		newHistoryExportCmd(),
	)

	return cmd
}

// withRunStore opens the history store for the command's root and closes it
// after fn returns.
func withRunStore(cmd *cobra.Command, fn func(rs *store.SQLiteRunStore) error) error {
	root, _ := cmd.Flags().GetString("root")
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	rs, err := openRunStore(settings, root)
	if err != nil {
		return err
	}
	defer rs.Close()
	return fn(rs)
}

func newHistoryListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			algorithm, _ := cmd.Flags().GetString("algorithm")
			limit, _ := cmd.Flags().GetInt("limit")
			if limit < 0 {
				return fmt.Errorf("limit must be non-negative")
			}

			return withRunStore(cmd, func(rs *store.SQLiteRunStore) error {
				runs, err := rs.ListRuns(cmd.Context(), store.RunFilter{Algorithm: algorithm, Limit: limit})
				if err != nil {
					return err
				}

				if jsonOut {
					// Drop the full results; 'history show' returns them.
					for i := range runs {
						runs[i].Result = nil
					}
					return report.WriteJSON(cmd.OutOrStdout(), map[string]any{
						"runs":  runs,
						"count": len(runs),
					})
				}

				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
					return nil
				}

				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.SetHeader([]string{"ID", "Created", "Algorithm", "Source", "Procs", "Avg TAT", "Avg WT", "Avg RT"})
				table.SetAutoWrapText(false)
				for _, r := range runs {
					table.Append([]string{
						r.ID[:min(8, len(r.ID))],
						r.CreatedAt.Local().Format("2006-01-02 15:04"),
						r.Algorithm,
						r.Source,
						fmt.Sprintf("%d", r.ProcessCount),
						fmt.Sprintf("%.2f", r.AvgTurnaround),
						fmt.Sprintf("%.2f", r.AvgWaiting),
						fmt.Sprintf("%.2f", r.AvgResponse),
					})
				}
				table.Render()
				return nil
			})
		},
	}

	cmd.Flags().String("algorithm", "", "Only runs of this algorithm")
	cmd.Flags().Int("limit", 20, "Maximum runs to list (0 for all)")

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run with its full result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunStore(cmd, func(rs *store.SQLiteRunStore) error {
				run, err := rs.GetRun(cmd.Context(), args[0])
				if errors.Is(err, store.ErrRunNotFound) {
					return fmt.Errorf("run %s not found", args[0])
				}
				if err != nil {
					return err
				}
				return report.WriteJSON(cmd.OutOrStdout(), run)
			})
		},
	}
}

func newHistoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			return withRunStore(cmd, func(rs *store.SQLiteRunStore) error {
				err := rs.DeleteRun(cmd.Context(), args[0])
				if errors.Is(err, store.ErrRunNotFound) {
					return fmt.Errorf("run %s not found", args[0])
				}
				if err != nil {
					return err
				}
				if jsonOut {
					return report.WriteJSON(cmd.OutOrStdout(), map[string]any{"deleted": args[0]})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
				return nil
			})
		},
	}
}

func newHistoryExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every run as JSON Lines",
		Long: `Write every recorded run as one JSON object per line, oldest first.
Without --output the lines go to stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			return withRunStore(cmd, func(rs *store.SQLiteRunStore) error {
				if output == "" {
					_, err := store.WriteJSONL(cmd.Context(), rs, cmd.OutOrStdout())
					return err
				}
				n, err := rs.ExportJSONL(cmd.Context(), output)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d runs to %s\n", n, output)
				return nil
			})
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")

	return cmd
}
