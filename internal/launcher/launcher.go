// Package launcher spawns the backend as a child process and owns the
// resulting handle. It checks the launch preconditions, assembles the child's
// environment and output plumbing, and knows how to terminate the process
// without ever hanging the caller.
package launcher

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/maxapp/desktop/internal/config"
	"github.com/maxapp/desktop/internal/logbuf"
	"github.com/maxapp/desktop/internal/paths"
)

const (
	// EntryFile is the backend's entry point inside the backend directory.
	EntryFile = "server.js"

	// depsDirName marks an installed dependency tree. Its absence in a
	// packaged build means the installer did not run npm install.
	depsDirName = "node_modules"

	// defaultBufLines is how much recent backend output is kept in memory.
	defaultBufLines = 500

	// production log rotation limits, in megabytes / files
	logMaxSizeMB  = 20
	logMaxBackups = 3
)

// EntryMissingError means the backend entry file does not exist. Checked
// before any spawn attempt.
type EntryMissingError struct {
	Path string
}

func (e *EntryMissingError) Error() string {
	return fmt.Sprintf("backend entry %s not found at: %s", EntryFile, e.Path)
}

// DepsMissingError means the packaged backend has no installed dependency
// tree. Only checked in production; dev setups install deps themselves.
type DepsMissingError struct {
	Dir string
}

func (e *DepsMissingError) Error() string {
	return fmt.Sprintf("backend dependencies not installed (missing %s); reinstall the application", e.Dir)
}

// SpawnError wraps the OS error from a failed spawn together with the
// resolved paths, so the message is diagnosable as-is.
type SpawnError struct {
	Runtime string
	Entry   string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawning backend (%s %s): %v", e.Runtime, e.Entry, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Options configures one launch.
type Options struct {
	Backend config.Backend

	// LogFile receives backend output in production. Ignored in
	// development, where output passes through to the parent console.
	LogFile string

	// BufLines overrides the in-memory output retention. 0 = default.
	BufLines int
}

// Launch verifies the preconditions, spawns the backend, and returns the
// owned handle. The child runs with backendDir as its working directory and
// the inherited environment plus the MAX_* overrides.
func Launch(opts Options) (*Handle, error) {
	b := opts.Backend

	entry := filepath.Join(b.BackendDir, EntryFile)
	if _, err := os.Stat(entry); err != nil {
		return nil, &EntryMissingError{Path: entry}
	}

	if b.Mode == config.ModeProduction {
		deps := filepath.Join(b.BackendDir, depsDirName)
		if info, err := os.Stat(deps); err != nil || !info.IsDir() {
			return nil, &DepsMissingError{Dir: deps}
		}
	}

	bufLines := opts.BufLines
	if bufLines <= 0 {
		bufLines = defaultBufLines
	}
	buf := logbuf.New(bufLines)

	var (
		stdout, stderr io.Writer
		logCloser      io.Closer
	)
	if b.Mode == config.ModeDevelopment {
		stdout = io.MultiWriter(os.Stdout, buf)
		stderr = io.MultiWriter(os.Stderr, buf)
	} else {
		// Verify the log file is writable up front — lumberjack opens
		// lazily and a broken log path should fail the launch, not
		// surface on the first write.
		probe, err := os.OpenFile(opts.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening backend log %s: %w", opts.LogFile, err)
		}
		probe.Close()

		lj := &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
		}
		w := io.MultiWriter(lj, buf)
		stdout, stderr = w, w
		logCloser = lj
	}

	// The backend's runtime cannot consume extended-length Windows paths,
	// so everything handed to the child is normalized first.
	cmd := exec.Command(b.RuntimeExecutable, paths.StripLongPathPrefix(entry))
	cmd.Dir = paths.StripLongPathPrefix(b.BackendDir)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	// Overrides are appended after the inherited environment; os/exec keeps
	// the last value for a duplicated key, so overrides win on collision.
	cmd.Env = os.Environ()
	for k, v := range b.EnvOverrides() {
		cmd.Env = append(cmd.Env, k+"="+paths.StripLongPathPrefix(v))
	}

	setSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		if logCloser != nil {
			logCloser.Close()
		}
		return nil, &SpawnError{Runtime: b.RuntimeExecutable, Entry: entry, Err: err}
	}

	h := &Handle{
		cmd:       cmd,
		buf:       buf,
		logCloser: logCloser,
		done:      make(chan struct{}),
	}
	go h.reap()
	return h, nil
}
