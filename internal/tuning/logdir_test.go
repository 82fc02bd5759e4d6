package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureLogFileIdempotent(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", LogFileName)

	if err := EnsureLogFile(logPath); err != nil {
		t.Fatalf("first EnsureLogFile() error = %v", err)
	}
	if err := EnsureLogFile(logPath); err != nil {
		t.Fatalf("second EnsureLogFile() error = %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(logPath))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != LogFileName {
		t.Fatalf("log directory entries = %v, want exactly one %q", entries, LogFileName)
	}
}

func TestEnsureLogFilePreservesContent(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), LogFileName)

	if err := os.WriteFile(logPath, []byte("existing line\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := EnsureLogFile(logPath); err != nil {
		t.Fatalf("EnsureLogFile() error = %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(content) != "existing line\n" {
		t.Fatalf("log content = %q, want untouched", content)
	}
}

func TestEnsureLogFileFailsOnUnwritableParent(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	parent := t.TempDir()
	if err := os.Chmod(parent, 0o555); err != nil {
		t.Fatalf("Chmod() error = %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(parent, 0o755) })

	if err := EnsureLogFile(filepath.Join(parent, "logs", LogFileName)); err == nil {
		t.Fatal("EnsureLogFile() expected error for unwritable parent")
	}
}
