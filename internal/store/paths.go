package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirName is the per-project and per-user state directory.
const DirName = ".schedsim"

// DBFileName is the run history database inside DirName.
const DBFileName = "schedsim.db"

// GlobalPath returns the path to the global .schedsim directory.
// On Unix: ~/.schedsim
// On Windows: %USERPROFILE%\.schedsim
func GlobalPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, DirName), nil
}

// LocalPath returns the .schedsim directory for the given project root.
func LocalPath(projectRoot string) string {
	return filepath.Join(projectRoot, DirName)
}

// DefaultDBPath returns the run history database path for a project root.
func DefaultDBPath(projectRoot string) string {
	return filepath.Join(LocalPath(projectRoot), DBFileName)
}
