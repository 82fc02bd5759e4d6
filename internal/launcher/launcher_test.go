package launcher

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/dreschagin/container-bootstrap/internal/probe"
	"github.com/dreschagin/container-bootstrap/internal/tuning"
)

func testProfile() tuning.Profile {
	return tuning.Select(probe.Snapshot{TotalMemoryMB: 3000}, "default", "/app/logs")
}

func TestCommandPropagatesArgv(t *testing.T) {
	cmd, err := Command(context.Background(), []string{"java", "-jar", "app.jar", "--server.port=8080"}, testProfile())
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}

	want := []string{"java", "-jar", "app.jar", "--server.port=8080"}
	if len(cmd.Args) != len(want) {
		t.Fatalf("Args = %v, want %v", cmd.Args, want)
	}
	for i := range want {
		if cmd.Args[i] != want[i] {
			t.Fatalf("Args[%d] = %q, want %q", i, cmd.Args[i], want[i])
		}
	}
}

func TestCommandInjectsDerivedEnv(t *testing.T) {
	cmd, err := Command(context.Background(), []string{"java"}, testProfile())
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}

	wantVars := map[string]bool{
		"JAVA_OPTS=-Xms512m -Xmx1024m":       false,
		"APP_PROFILE=default":                false,
		"LOG_FILE=/app/logs/application.log": false,
	}
	for _, entry := range cmd.Env {
		if _, ok := wantVars[entry]; ok {
			wantVars[entry] = true
		}
	}
	for entry, found := range wantVars {
		if !found {
			t.Errorf("env missing %q", entry)
		}
	}
}

func TestCommandRejectsEmptyArgv(t *testing.T) {
	if _, err := Command(context.Background(), nil, testProfile()); err == nil {
		t.Fatal("Command() with empty argv expected error")
	}
}

func TestRunReportsExitCode(t *testing.T) {
	l := New(slog.New(slog.DiscardHandler))

	code, err := l.Run(context.Background(), []string{"sh", "-c", "exit 3"}, testProfile())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}
}

func TestRunFailsForMissingBinary(t *testing.T) {
	l := New(slog.New(slog.DiscardHandler))

	_, err := l.Run(context.Background(), []string{"/nonexistent/managed-app"}, testProfile())
	if err == nil {
		t.Fatal("Run() expected error for missing binary")
	}
	if !strings.Contains(err.Error(), "start managed process") {
		t.Fatalf("error = %v, want start failure", err)
	}
}
