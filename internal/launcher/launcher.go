package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/dreschagin/container-bootstrap/internal/tuning"
)

// Launcher starts the managed workload with the derived runtime parameters
// and reports its exit code back to the bootstrap.
type Launcher struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Launcher {
	return &Launcher{logger: logger}
}

// Env returns the process environment extended with the derived parameters.
// The parent environment is inherited so orchestrator-provided variables
// reach the workload unchanged.
func Env(profile tuning.Profile) []string {
	return append(os.Environ(),
		"JAVA_OPTS="+profile.JavaOpts(),
		"APP_PROFILE="+profile.ActiveProfile,
		"LOG_FILE="+profile.LogPath,
	)
}

// Command builds the exec.Cmd for the forwarded argv. The argv is passed
// through exactly as received.
func Command(ctx context.Context, argv []string, profile tuning.Profile) (*exec.Cmd, error) {
	if len(argv) == 0 {
		return nil, errors.New("no managed command given")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = Env(profile)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd, nil
}

// Run launches the managed process and blocks until it exits. Context
// cancellation sends SIGTERM first so the workload can shut down cleanly.
// The returned int is the child's exit code.
func (l *Launcher) Run(ctx context.Context, argv []string, profile tuning.Profile) (int, error) {
	cmd, err := Command(context.Background(), argv, profile)
	if err != nil {
		return 0, err
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start managed process: %w", err)
	}

	l.logger.Info("managed process started",
		"pid", cmd.Process.Pid,
		"command", argv[0],
		"java_opts", profile.JavaOpts(),
		"profile", profile.ActiveProfile,
	)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err = <-done:
	case <-ctx.Done():
		l.logger.Info("forwarding termination to managed process", "pid", cmd.Process.Pid)
		_ = cmd.Process.Signal(syscall.SIGTERM)
		select {
		case err = <-done:
		case <-time.After(20 * time.Second):
			l.logger.Warn("managed process ignored SIGTERM, killing", "pid", cmd.Process.Pid)
			_ = cmd.Process.Kill()
			err = <-done
		}
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 0, fmt.Errorf("wait for managed process: %w", err)
	}

	return 0, nil
}
