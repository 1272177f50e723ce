// Package backup archives run history to compressed files and restores it.
package backup

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/nvandessel/schedsim/internal/store"
)

const (
	filePrefix = "schedsim-backup-"
	fileSuffix = ".json.gz"
)

// DefaultDir returns the default backup directory (~/.schedsim/backups/).
func DefaultDir() (string, error) {
	global, err := store.GlobalPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(global, "backups"), nil
}

// GeneratePath creates a timestamped archive filename in dir.
func GeneratePath(dir string, now time.Time) string {
	return filepath.Join(dir, filePrefix+now.UTC().Format("20060102-150405")+fileSuffix)
}

func isArchiveFile(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix)
}

// Create writes every run in rs to an archive at path.
func Create(ctx context.Context, rs store.RunStore, path string) (*Header, error) {
	runs, err := rs.ListRuns(ctx, store.RunFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	a := &Archive{
		Version:   FormatVersion,
		CreatedAt: time.Now().UTC(),
		Runs:      runs,
	}
	if err := WriteArchive(path, a, nil); err != nil {
		return nil, err
	}
	return ReadHeader(path)
}

// RestoreResult contains statistics about a restore.
type RestoreResult struct {
	Restored int `json:"restored"`
	Skipped  int `json:"skipped"`
}

// Restore imports the runs of an archive into rs. Runs whose IDs already
// exist are skipped.
func Restore(ctx context.Context, rs store.RunStore, path string) (*RestoreResult, error) {
	a, err := ReadArchive(path)
	if err != nil {
		return nil, err
	}

	added, err := rs.ImportRuns(ctx, a.Runs)
	if err != nil {
		return nil, fmt.Errorf("failed to import runs: %w", err)
	}
	return &RestoreResult{Restored: added, Skipped: len(a.Runs) - added}, nil
}
