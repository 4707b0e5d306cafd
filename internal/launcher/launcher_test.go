package launcher

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/maxapp/desktop/internal/config"
)

// devBackend lays out a backend directory whose server.js is a shell script,
// run through /bin/sh in place of the real Node.js runtime.
func devBackend(t *testing.T, script string) config.Backend {
	t.Helper()

	dir := t.TempDir()
	entry := filepath.Join(dir, EntryFile)
	if err := os.WriteFile(entry, []byte("#!/bin/sh\n"+script+"\n"), 0755); err != nil {
		t.Fatal(err)
	}

	return config.Backend{
		Mode:              config.ModeDevelopment,
		Port:              4000,
		AppDataDir:        t.TempDir(),
		BackendDir:        dir,
		RuntimeExecutable: "/bin/sh",
	}
}

func TestLaunchEntryMissing(t *testing.T) {
	b := config.Backend{
		Mode:              config.ModeDevelopment,
		BackendDir:        t.TempDir(),
		RuntimeExecutable: "/bin/sh",
	}

	_, err := Launch(Options{Backend: b})
	if err == nil {
		t.Fatal("expected error for missing entry file")
	}

	var eme *EntryMissingError
	if !errors.As(err, &eme) {
		t.Fatalf("expected *EntryMissingError, got %T", err)
	}
	if !strings.Contains(eme.Error(), b.BackendDir) {
		t.Errorf("error should name the attempted path: %q", eme.Error())
	}
}

func TestLaunchDepsMissingInProduction(t *testing.T) {
	b := devBackend(t, "echo hi")
	b.Mode = config.ModeProduction

	_, err := Launch(Options{Backend: b, LogFile: filepath.Join(t.TempDir(), "backend.log")})
	if err == nil {
		t.Fatal("expected error for missing node_modules")
	}

	var dme *DepsMissingError
	if !errors.As(err, &dme) {
		t.Fatalf("expected *DepsMissingError, got %T", err)
	}
}

func TestLaunchDepsCheckSkippedInDevelopment(t *testing.T) {
	// No node_modules in the layout — development launches anyway.
	b := devBackend(t, "echo hi")

	h, err := Launch(Options{Backend: b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.Wait()
}

func TestLaunchCapturesOutput(t *testing.T) {
	b := devBackend(t, "echo hello from backend")

	h, err := Launch(Options{Backend: b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if code := h.Wait(); code != 0 {
		t.Errorf("exit code = %d", code)
	}

	var found bool
	for _, line := range h.Logs(10) {
		if strings.Contains(line, "hello from backend") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected output in log buffer, got %v", h.Logs(10))
	}
}

func TestLaunchEnvOverridesWin(t *testing.T) {
	// The parent carries a conflicting MAX_ENV; the override must win.
	t.Setenv("MAX_ENV", "host")

	b := devBackend(t, `echo "env=$MAX_ENV port=$MAX_PORT"`)
	b.Port = 4321

	h, err := Launch(Options{Backend: b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.Wait()

	lines := h.Logs(10)
	if len(lines) == 0 {
		t.Fatal("expected output")
	}
	if lines[0] != "env=desktop port=4321" {
		t.Errorf("child saw %q", lines[0])
	}
}

func TestLaunchAppDataDirPassedToChild(t *testing.T) {
	b := devBackend(t, `echo "$MAX_APP_DATA_DIR"`)

	h, err := Launch(Options{Backend: b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.Wait()

	lines := h.Logs(10)
	if len(lines) == 0 || lines[0] != b.AppDataDir {
		t.Errorf("child saw %v, want %q", lines, b.AppDataDir)
	}
}

func TestLaunchWorkingDirIsBackendDir(t *testing.T) {
	b := devBackend(t, "pwd")

	h, err := Launch(Options{Backend: b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.Wait()

	lines := h.Logs(10)
	if len(lines) == 0 {
		t.Fatal("expected output")
	}
	// Compare resolved paths; the temp dir may be reached via a symlink.
	got, _ := filepath.EvalSymlinks(lines[0])
	want, _ := filepath.EvalSymlinks(b.BackendDir)
	if got != want {
		t.Errorf("working dir = %q, want %q", lines[0], b.BackendDir)
	}
}

func TestLaunchProductionWritesLogFile(t *testing.T) {
	b := devBackend(t, "echo packaged output")
	b.Mode = config.ModeProduction
	if err := os.Mkdir(filepath.Join(b.BackendDir, "node_modules"), 0755); err != nil {
		t.Fatal(err)
	}

	logDir := t.TempDir()
	logFile := filepath.Join(logDir, "backend.log")

	h, err := Launch(Options{Backend: b, LogFile: logFile})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.Wait()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "packaged output") {
		t.Errorf("log file contents: %q", data)
	}
}

func TestLaunchProductionUnwritableLogFatal(t *testing.T) {
	b := devBackend(t, "echo hi")
	b.Mode = config.ModeProduction
	if err := os.Mkdir(filepath.Join(b.BackendDir, "node_modules"), 0755); err != nil {
		t.Fatal(err)
	}

	_, err := Launch(Options{
		Backend: b,
		LogFile: filepath.Join(t.TempDir(), "missing", "backend.log"),
	})
	if err == nil {
		t.Fatal("expected error for unwritable log path")
	}
}

func TestLaunchSpawnError(t *testing.T) {
	b := devBackend(t, "echo hi")
	b.RuntimeExecutable = filepath.Join(t.TempDir(), "no-such-runtime")

	_, err := Launch(Options{Backend: b})
	if err == nil {
		t.Fatal("expected spawn error")
	}

	var se *SpawnError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SpawnError, got %T", err)
	}
	if !strings.Contains(se.Error(), b.RuntimeExecutable) {
		t.Errorf("error should name the runtime: %q", se.Error())
	}
}

func TestStopTerminatesProcess(t *testing.T) {
	b := devBackend(t, "sleep 60")

	h, err := Launch(Options{Backend: b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !h.Alive() {
		t.Fatal("expected process to be running")
	}
	if err := h.Stop(500 * time.Millisecond); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if h.Alive() {
		t.Error("expected process to be gone after stop")
	}
}

func TestStopAlreadyExitedIsNoop(t *testing.T) {
	b := devBackend(t, "true")

	h, err := Launch(Options{Backend: b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.Wait()

	if err := h.Stop(500 * time.Millisecond); err != nil {
		t.Errorf("stopping an exited process should be a no-op: %v", err)
	}
}

func TestStopTwice(t *testing.T) {
	b := devBackend(t, "sleep 60")

	h, err := Launch(Options{Backend: b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := h.Stop(500 * time.Millisecond); err != nil {
		t.Fatalf("first stop: %v", err)
	}
	if err := h.Stop(500 * time.Millisecond); err != nil {
		t.Errorf("second stop should be a no-op: %v", err)
	}
}

func TestExitCodeRecorded(t *testing.T) {
	b := devBackend(t, "exit 3")

	h, err := Launch(Options{Backend: b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if code := h.Wait(); code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
	if h.ExitError() == "" {
		t.Error("expected non-empty exit error for non-zero exit")
	}
}
