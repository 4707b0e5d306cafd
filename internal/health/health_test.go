package health

import (
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

// serveHealth starts a backend stand-in on a loopback port whose /health
// handler is provided by the caller. Returns the port.
func serveHealth(t *testing.T, handler http.HandlerFunc) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handler)
	srv := &http.Server{Handler: mux}
	go srv.Serve(ln)
	t.Cleanup(func() { srv.Close() })

	return ln.Addr().(*net.TCPAddr).Port
}

// freePort reserves and releases a loopback port so nothing is listening on it.
func freePort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func TestWaitReadyImmediate(t *testing.T) {
	port := serveHealth(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	start := time.Now()
	err := WaitReady(Config{Port: port, Attempts: 30, Interval: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Success must return without waiting out remaining attempts.
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("took %s, expected near-immediate return", elapsed)
	}
}

func TestWaitReadyAfterKAttempts(t *testing.T) {
	const k = 4
	var polls atomic.Int32
	port := serveHealth(t, func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < k {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	err := WaitReady(Config{Port: port, Attempts: 30, Interval: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := polls.Load(); got != k {
		t.Errorf("expected exactly %d polls, got %d", k, got)
	}
}

func TestWaitReadyNon2xxNotReady(t *testing.T) {
	port := serveHealth(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := WaitReady(Config{Port: port, Attempts: 3, Interval: 10 * time.Millisecond})
	if err == nil {
		t.Fatal("expected timeout with a persistently erroring endpoint")
	}
}

func TestWaitReadyTimeout(t *testing.T) {
	port := freePort(t)

	err := WaitReady(Config{
		Port:     port,
		Attempts: 5,
		Interval: 10 * time.Millisecond,
		LogPath:  "/data/logs/backend.log",
	})
	if err == nil {
		t.Fatal("expected timeout error")
	}

	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TimeoutError, got %T", err)
	}
	if te.Attempts != 5 {
		t.Errorf("attempts = %d, want 5", te.Attempts)
	}
	if te.Elapsed <= 0 {
		t.Errorf("elapsed = %s, want > 0", te.Elapsed)
	}
	if te.LogPath != "/data/logs/backend.log" {
		t.Errorf("log path = %q", te.LogPath)
	}
}

func TestOutcomeReady(t *testing.T) {
	cases := []struct {
		outcome Outcome
		want    bool
	}{
		{Outcome{Status: 200}, true},
		{Outcome{Status: 204}, true},
		{Outcome{Status: 299}, true},
		{Outcome{Status: 301}, false},
		{Outcome{Status: 503}, false},
		{Outcome{Err: errors.New("connection refused")}, false},
	}

	for _, c := range cases {
		if got := c.outcome.Ready(); got != c.want {
			t.Errorf("Outcome%+v.Ready() = %v, want %v", c.outcome, got, c.want)
		}
	}
}

func TestPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	if !PortInUse(port) {
		t.Errorf("expected port %d to be reported in use", port)
	}
	if PortInUse(freePort(t)) {
		t.Error("expected free port to be reported unused")
	}
}
