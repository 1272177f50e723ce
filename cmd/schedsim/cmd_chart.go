package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nvandessel/schedsim/internal/loader"
	"github.com/nvandessel/schedsim/internal/report"
	"github.com/nvandessel/schedsim/internal/visualization"
)

// Files written by the chart command.
const (
	ganttFile      = "gantt.svg"
	comparisonFile = "comparison.svg"
	reportFile     = "report.html"
)

func newChartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart [file]",
		Short: "Write SVG charts and an HTML report",
		Long: `Render the AADRR Gantt chart, the algorithm comparison chart and a
self-contained HTML report for a workload.

Examples:
  schedsim chart                     # writes gantt.svg, comparison.svg, report.html
  schedsim chart jobs.csv --out docs
  schedsim chart --open`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			outDir, _ := cmd.Flags().GetString("out")
			open, _ := cmd.Flags().GetBool("open")
			jsonOut, _ := cmd.Flags().GetBool("json")

			rep, err := buildReport(cmd, root, args)
			if err != nil {
				return err
			}

			page, err := visualization.RenderHTML(*rep)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			files := []struct {
				name string
				data []byte
			}{
				{ganttFile, []byte(visualization.RenderGanttSVG(rep.Result.Timeline))},
				{comparisonFile, []byte(visualization.RenderComparisonSVG(rep.Comparison))},
				{reportFile, page},
			}
			written := make([]string, 0, len(files))
			for _, f := range files {
				path := filepath.Join(outDir, f.name)
				if err := os.WriteFile(path, f.data, 0644); err != nil {
					return fmt.Errorf("write %s: %w", f.name, err)
				}
				written = append(written, path)
			}

			if jsonOut {
				if err := report.WriteJSON(cmd.OutOrStdout(), map[string]any{"files": written}); err != nil {
					return err
				}
			} else {
				for _, path := range written {
					fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
				}
			}

			if open {
				reportPath := written[len(written)-1]
				if err := visualization.OpenBrowser(reportPath); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, reportPath)
				}
			}
			return nil
		},
	}

	addCompareFlags(cmd)
	cmd.Flags().StringP("out", "o", ".", "Output directory")
	cmd.Flags().Bool("open", false, "Open the HTML report in a browser")

	return cmd
}

// buildReport loads the workload named in args and runs the full report.
func buildReport(cmd *cobra.Command, root string, args []string) (*visualization.Report, error) {
	settings, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}

	var file string
	if len(args) == 1 {
		file = args[0]
	}
	procs, source, err := loader.LoadOrDefault(root, file)
	if err != nil {
		return nil, err
	}

	opts, err := compareOptions(cmd, settings)
	if err != nil {
		return nil, err
	}
	labels, err := report.LabelsFor(settings.Output.Language)
	if err != nil {
		return nil, err
	}

	rep, err := visualization.BuildReport(cmd.Context(), procs, opts, labels)
	if err != nil {
		return nil, err
	}
	rep.Source = source
	return rep, nil
}
