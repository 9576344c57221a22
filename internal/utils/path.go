package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathUtil joins dir and name and makes sure the parent directory exists.
// Directories are private to the service user since they hold remote credentials.
func PathUtil(dir string, name string) (string, error) {
	filePath := filepath.Join(dir, name)

	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return "", fmt.Errorf("failed to create directories: %w", err)
	}
	return filePath, nil
}

// JobConfigPath is the private rclone config location for one job.
func JobConfigPath(dir string, jobID string) (string, error) {
	return PathUtil(dir, fmt.Sprintf("rclone-%s.conf", jobID))
}
