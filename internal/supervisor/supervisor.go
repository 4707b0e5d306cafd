// Package supervisor owns the backend process for the application's lifetime.
// It drives the launch sequence — path resolution, runtime lookup, spawn,
// readiness wait — on a dedicated worker, reports the outcome over the event
// bridge, and guarantees the process is terminated exactly once on shutdown.
package supervisor

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/maxapp/desktop/internal/bridge"
	"github.com/maxapp/desktop/internal/config"
	"github.com/maxapp/desktop/internal/health"
	"github.com/maxapp/desktop/internal/launcher"
	"github.com/maxapp/desktop/internal/noderuntime"
	"github.com/maxapp/desktop/internal/paths"
)

// State is the supervisor's lifecycle state. Transitions are monotonic:
// NotStarted → Starting → Ready | Failed, with Stopped as an absorbing
// terminal reachable from any state.
type State string

const (
	StateNotStarted State = "not-started"
	StateStarting   State = "starting"
	StateReady      State = "ready"
	StateFailed     State = "failed"
	StateStopped    State = "stopped"
)

// ErrAlreadyStarted is returned when Start is invoked more than once, or
// after the supervisor has been stopped.
var ErrAlreadyStarted = errors.New("backend supervisor already started")

// Supervisor manages one backend process per application run.
type Supervisor struct {
	mode     config.Mode
	portFlag int
	bridge   *bridge.Bridge
	logger   *slog.Logger

	// mu guards the process handle and state. Start holds it for the whole
	// launch sequence; Stop acquires it with TryLock so a stop request
	// racing an in-flight start is dropped instead of deadlocking. Shutdown
	// blocks on the lock and is the backstop for that race on exit.
	mu      sync.Mutex
	state   State
	started bool
	handle  *launcher.Handle
	layout  *paths.Layout
	port    int

	stopGrace      time.Duration
	healthAttempts int
	healthInterval time.Duration
}

// New creates a supervisor for one launch attempt. portFlag is the command
// line override, 0 when absent.
func New(mode config.Mode, portFlag int, b *bridge.Bridge) *Supervisor {
	return &Supervisor{
		mode:      mode,
		portFlag:  portFlag,
		bridge:    b,
		logger:    slog.With("component", "supervisor"),
		state:     StateNotStarted,
		stopGrace: launcher.DefaultStopGrace,
	}
}

// Run starts the launch sequence on a dedicated worker so the caller's event
// loop is never blocked by spawning or the readiness wait. The outcome
// arrives over the bridge.
func (s *Supervisor) Run() {
	go func() {
		_ = s.Start()
	}()
}

// Start runs the full launch sequence and blocks until the backend is ready
// or the attempt has failed. It must be invoked at most once per application
// run; the outcome is also published as a backend-ready or backend-error
// event. Errors never panic the host — they are returned and reported.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.state == StateStopped {
		return ErrAlreadyStarted
	}
	s.started = true
	s.state = StateStarting

	if err := s.launch(); err != nil {
		s.state = StateFailed
		s.logger.Error("backend startup failed", "error", err)
		s.bridge.Error(err.Error())
		return err
	}

	s.state = StateReady
	s.logger.Info("backend ready", "port", s.port)
	s.bridge.Ready()
	return nil
}

// launch performs the sequence with s.mu held.
func (s *Supervisor) launch() error {
	layout, err := paths.Resolve(s.mode)
	if err != nil {
		return err
	}
	s.layout = layout

	fileCfg, err := config.LoadFile(layout.ConfigFile())
	if err != nil {
		s.logger.Warn("ignoring unreadable config file", "path", layout.ConfigFile(), "error", err)
		fileCfg = &config.File{}
	}
	s.port = config.ResolvePort(s.portFlag, fileCfg)

	node, err := noderuntime.Locate(s.mode)
	if err != nil {
		return err
	}

	backend := config.Backend{
		Mode:              s.mode,
		Port:              s.port,
		AppDataDir:        layout.AppDataDir,
		BackendDir:        layout.BackendDir,
		RuntimeExecutable: node,
	}

	// Development output goes to the parent console, not the log file, so
	// nothing should point the user at a file that is never written.
	logPath := ""
	if s.mode == config.ModeProduction {
		logPath = layout.LogFile()
	}

	h, err := launcher.Launch(launcher.Options{
		Backend: backend,
		LogFile: logPath,
	})
	if err != nil {
		return err
	}
	s.handle = h
	s.logger.Info("backend process started",
		"pid", h.PID(), "port", s.port, "backend_dir", layout.BackendDir)

	rec := Record{
		PID:       h.PID(),
		Port:      s.port,
		LogPath:   logPath,
		StartedAt: time.Now().Unix(),
	}
	if err := writeRecord(layout.AppDataDir, rec); err != nil {
		s.logger.Warn("failed to write launch record", "error", err)
	}

	return health.WaitReady(health.Config{
		Port:     s.port,
		Attempts: s.healthAttempts,
		Interval: s.healthInterval,
		LogPath:  logPath,
	})
}

// Stop terminates the backend if one is running and moves the supervisor to
// its terminal state. It is idempotent and safe to call concurrently with
// itself and with an in-flight Start: if the handle's lock cannot be taken
// immediately the request is dropped silently, best effort. Termination
// errors are swallowed — shutdown is never blocked by an unclean child exit.
func (s *Supervisor) Stop() {
	if !s.mu.TryLock() {
		s.logger.Debug("stop request dropped, startup in progress")
		return
	}
	defer s.mu.Unlock()
	s.stopLocked()
}

// Shutdown terminates the backend unconditionally, waiting out an in-flight
// Start first. The application's exit path uses it, so a stop request that
// raced the launch and was dropped can never leave the child running past the
// host process.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// stopLocked performs the termination with s.mu held.
func (s *Supervisor) stopLocked() {
	if s.state == StateStopped {
		return
	}

	if s.handle != nil {
		if err := s.handle.Stop(s.stopGrace); err != nil {
			s.logger.Warn("backend did not stop cleanly", "error", err)
		}
		s.handle = nil
		if s.layout != nil {
			if err := clearRecord(s.layout.AppDataDir); err != nil {
				s.logger.Debug("failed to clear launch record", "error", err)
			}
		}
		s.logger.Info("backend stopped")
	}

	s.state = StateStopped
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Port returns the resolved backend port, 0 before resolution.
func (s *Supervisor) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Logs returns up to the last n lines of captured backend output.
func (s *Supervisor) Logs(n int) []string {
	s.mu.Lock()
	h := s.handle
	s.mu.Unlock()

	if h == nil {
		return nil
	}
	return h.Logs(n)
}
