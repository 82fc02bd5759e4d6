package tuning

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureLogFile makes sure the log directory and file exist before the
// managed process starts. Safe to call repeatedly. A failure here must abort
// the boot: the workload cannot run without a writable log target.
func EnsureLogFile(logPath string) error {
	dir := filepath.Dir(logPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create log file %s: %w", logPath, err)
	}

	return file.Close()
}
