package launcher

import (
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/maxapp/desktop/internal/logbuf"
)

const (
	// DefaultStopGrace is how long Stop waits between the termination
	// request and the forced kill.
	DefaultStopGrace = 10 * time.Second

	// killWait caps the wait after a forced kill. The OS should reap the
	// process well within this; if it does not, Stop gives up rather than
	// hang application shutdown.
	killWait = 5 * time.Second
)

// Handle wraps the spawned backend process. Exactly one Handle exists per
// successful launch; the supervisor owns it for the application's lifetime.
type Handle struct {
	cmd       *exec.Cmd
	buf       *logbuf.Buffer
	logCloser io.Closer
	done      chan struct{}

	mu       sync.Mutex
	exitCode int
	exitErr  string
}

// reap waits for the child to exit and records the result.
func (h *Handle) reap() {
	err := h.cmd.Wait()

	h.mu.Lock()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			h.exitCode = exitErr.ExitCode()
		} else {
			h.exitCode = -1
		}
		h.exitErr = err.Error()
	}
	h.mu.Unlock()

	if h.logCloser != nil {
		h.logCloser.Close()
	}
	close(h.done)
}

// PID returns the child's process ID.
func (h *Handle) PID() int {
	return h.cmd.Process.Pid
}

// Done is closed once the child has exited and been reaped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Alive reports whether the child is still running.
func (h *Handle) Alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Wait blocks until the child exits and returns its exit code.
func (h *Handle) Wait() int {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitCode
}

// ExitError returns the recorded exit error text, empty for a clean exit.
func (h *Handle) ExitError() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitErr
}

// Logs returns up to the last n lines of captured backend output.
func (h *Handle) Logs(n int) []string {
	return h.buf.Tail(n)
}

// Stop terminates the child: a graceful termination request first, a forced
// kill after the grace period, and a hard cap on the final wait so Stop can
// never block shutdown indefinitely. Stopping an already-exited process is a
// no-op.
func (h *Handle) Stop(grace time.Duration) error {
	if !h.Alive() {
		return nil
	}
	if grace <= 0 {
		grace = DefaultStopGrace
	}

	pid := h.cmd.Process.Pid
	_ = terminate(pid)

	select {
	case <-h.done:
		return nil
	case <-time.After(grace):
	}

	_ = kill(pid)

	select {
	case <-h.done:
		return nil
	case <-time.After(killWait):
		return fmt.Errorf("backend process %d did not exit after kill", pid)
	}
}
