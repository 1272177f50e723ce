package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/nvandessel/schedsim/internal/backup"
	"github.com/nvandessel/schedsim/internal/pathutil"
	"github.com/nvandessel/schedsim/internal/report"
	"github.com/nvandessel/schedsim/internal/store"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up and restore run history",
		Long: `Archive the run history to a compressed, checksummed file and restore it.

Default location: ~/.schedsim/backups/schedsim-backup-YYYYMMDD-HHMMSS.json.gz
Archives may only be written to or read from ~/.schedsim/backups or
<root>/.schedsim/backups.

Examples:
  schedsim backup create
  schedsim backup create --keep 5 --max-age 30d
  schedsim backup list
  schedsim backup verify ~/.schedsim/backups/schedsim-backup-20260601-120000.json.gz
  schedsim backup restore ~/.schedsim/backups/schedsim-backup-20260601-120000.json.gz`,
	}

	cmd.AddCommand(
		newBackupCreateCmd(),
		newBackupRestoreCmd(),
		newBackupListCmd(),
		newBackupVerifyCmd(),
	)

	return cmd
}

// checkBackupPath rejects archive paths outside the allowed backup directories.
func checkBackupPath(root, path, action string) error {
	allowedDirs, err := pathutil.DefaultAllowedBackupDirs(root)
	if err != nil {
		return fmt.Errorf("failed to determine allowed backup dirs: %w", err)
	}
	if err := pathutil.ValidatePath(path, allowedDirs); err != nil {
		return fmt.Errorf("%s path rejected: %w", action, err)
	}
	return nil
}

func newBackupCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Archive every recorded run",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			outputPath, _ := cmd.Flags().GetString("output")

			policy, err := buildRetentionPolicy(cmd)
			if err != nil {
				return err
			}

			if outputPath == "" {
				dir, err := backup.DefaultDir()
				if err != nil {
					return fmt.Errorf("failed to get backup directory: %w", err)
				}
				outputPath = backup.GeneratePath(dir, time.Now())
			} else if err := checkBackupPath(root, outputPath, "backup"); err != nil {
				return err
			}

			return withRunStore(cmd, func(rs *store.SQLiteRunStore) error {
				header, err := backup.Create(cmd.Context(), rs, outputPath)
				if err != nil {
					return fmt.Errorf("backup failed: %w", err)
				}

				deleted, err := backup.ApplyRetention(filepath.Dir(outputPath), policy)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to apply retention: %v\n", err)
				}

				if jsonOut {
					var sizeBytes int64
					if info, err := os.Stat(outputPath); err == nil {
						sizeBytes = info.Size()
					}
					return report.WriteJSON(cmd.OutOrStdout(), map[string]any{
						"path":       outputPath,
						"run_count":  header.RunCount,
						"checksum":   header.Checksum,
						"size_bytes": sizeBytes,
						"pruned":     deleted,
					})
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Backup created: %d runs\n", header.RunCount)
				fmt.Fprintf(cmd.OutOrStdout(), "  Path: %s\n", outputPath)
				if len(deleted) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "  Pruned %d old archives\n", len(deleted))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringP("output", "o", "", "Archive path (default: auto-generated in ~/.schedsim/backups/)")
	cmd.Flags().Int("keep", 10, "Keep at most this many archives (0 disables)")
	cmd.Flags().String("max-age", "", "Delete archives older than this (e.g. 720h, 30d, 4w)")
	cmd.Flags().String("max-size", "", "Keep archives within this total size (e.g. 50MB)")

	return cmd
}

// buildRetentionPolicy combines the retention flags. An archive survives only
// if every configured policy keeps it.
func buildRetentionPolicy(cmd *cobra.Command) (backup.RetentionPolicy, error) {
	keep, _ := cmd.Flags().GetInt("keep")
	maxAge, _ := cmd.Flags().GetString("max-age")
	maxSize, _ := cmd.Flags().GetString("max-size")

	var policies []backup.RetentionPolicy
	if keep < 0 {
		return nil, fmt.Errorf("keep must be non-negative")
	}
	if keep > 0 {
		policies = append(policies, &backup.CountPolicy{MaxCount: keep})
	}
	if maxAge != "" {
		d, err := backup.ParseDuration(maxAge)
		if err != nil {
			return nil, err
		}
		policies = append(policies, &backup.AgePolicy{MaxAge: d})
	}
	if maxSize != "" {
		s, err := backup.ParseSize(maxSize)
		if err != nil {
			return nil, err
		}
		policies = append(policies, &backup.SizePolicy{MaxTotalBytes: s})
	}

	switch len(policies) {
	case 0:
		return &backup.AllPolicy{}, nil
	case 1:
		return policies[0], nil
	}
	return &backup.AllPolicy{Policies: policies}, nil
}

func newBackupRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Merge an archive into the run history",
		Long: `Import the runs of an archive. Runs whose IDs already exist are skipped,
so restoring the same archive twice is harmless.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			inputPath := args[0]

			if err := checkBackupPath(root, inputPath, "restore"); err != nil {
				return err
			}

			return withRunStore(cmd, func(rs *store.SQLiteRunStore) error {
				result, err := backup.Restore(cmd.Context(), rs, inputPath)
				if err != nil {
					return fmt.Errorf("restore failed: %w", err)
				}
				if jsonOut {
					return report.WriteJSON(cmd.OutOrStdout(), result)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %d runs (%d already present)\n", result.Restored, result.Skipped)
				return nil
			})
		},
	}
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archives in the default backup directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			dir, err := backup.DefaultDir()
			if err != nil {
				return fmt.Errorf("failed to get backup directory: %w", err)
			}
			archives, err := backup.ListArchives(dir)
			if err != nil {
				return err
			}

			if jsonOut {
				if archives == nil {
					archives = []backup.ArchiveInfo{}
				}
				return report.WriteJSON(cmd.OutOrStdout(), map[string]any{
					"dir":      dir,
					"archives": archives,
					"count":    len(archives),
				})
			}

			if len(archives) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No backups in %s\n", dir)
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"File", "Created", "Runs", "Size", "Valid"})
			table.SetAutoWrapText(false)
			for _, a := range archives {
				table.Append([]string{
					filepath.Base(a.Path),
					a.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					fmt.Sprintf("%d", a.RunCount),
					fmt.Sprintf("%d", a.Size),
					fmt.Sprintf("%v", a.Valid),
				})
			}
			table.Render()
			return nil
		},
	}
}

func newBackupVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify an archive's SHA-256 checksum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath := args[0]
			jsonOut, _ := cmd.Flags().GetBool("json")

			err := backup.VerifyChecksum(filePath)
			if jsonOut {
				out := map[string]any{"file": filePath, "valid": err == nil, "message": "Checksum OK"}
				if err != nil {
					out["error"] = err.Error()
					out["message"] = "Checksum verification FAILED"
				}
				if encErr := report.WriteJSON(cmd.OutOrStdout(), out); encErr != nil {
					return encErr
				}
				if err != nil {
					return fmt.Errorf("checksum verification failed")
				}
				return nil
			}

			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "FAILED: %v\n", err)
				fmt.Fprintf(cmd.OutOrStdout(), "  File: %s\n", filePath)
				return fmt.Errorf("checksum verification failed")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: checksum verified\n")
			fmt.Fprintf(cmd.OutOrStdout(), "  File: %s\n", filePath)
			return nil
		},
	}
}
