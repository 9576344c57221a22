package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
)

// RemoveJobConfig deletes a per-job rclone config file. A file that is
// already gone is not an error.
func RemoveJobConfig(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove config file %q: %w", path, err)
	}
	slog.Debug("removed job config", "path", path)
	return nil
}
