// Package health probes the backend's readiness endpoint. The launch sequence
// polls until the backend answers or a bounded number of attempts is used up.
package health

import (
	"fmt"
	"net"
	"net/http"
	"time"
)

const (
	// DefaultAttempts bounds the readiness loop: 30 polls at 500ms is a
	// 15-second startup budget before the launch is declared failed.
	DefaultAttempts = 30

	// DefaultInterval is the fixed delay between polls.
	DefaultInterval = 500 * time.Millisecond

	// defaultRequestTimeout caps one HTTP probe so a wedged accept queue
	// cannot stall the whole loop.
	defaultRequestTimeout = 2 * time.Second
)

// Config describes one readiness wait.
type Config struct {
	Port     int
	Attempts int           // 0 = DefaultAttempts
	Interval time.Duration // 0 = DefaultInterval
	LogPath  string        // backend log location, included in the timeout error
}

// Outcome is the result of a single poll. The loop treats everything that is
// not a 2xx response as "not yet ready" — no distinction is made between
// transient and permanent failure until attempts are exhausted.
type Outcome struct {
	Status int   // HTTP status, 0 when the endpoint was unreachable
	Err    error // transport error, nil when a response arrived
}

// Ready reports whether this poll counts as success.
func (o Outcome) Ready() bool {
	return o.Err == nil && o.Status >= 200 && o.Status < 300
}

// TimeoutError means the backend never became ready within the attempt
// budget. It carries what the user needs to investigate on their own.
type TimeoutError struct {
	Attempts int
	Elapsed  time.Duration
	LogPath  string
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("backend failed to start after %d attempts (%s elapsed)",
		e.Attempts, e.Elapsed.Truncate(100*time.Millisecond))
	if e.LogPath != "" {
		msg += fmt.Sprintf("; check the backend log at %s", e.LogPath)
	}
	return msg
}

// WaitReady polls GET http://127.0.0.1:<port>/health until a 2xx response or
// until the attempt budget is exhausted. On success it returns immediately
// without waiting out remaining attempts. The loop always runs to completion
// or success; there is no cancellation mid-wait.
func WaitReady(cfg Config) error {
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	url := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Port)
	client := &http.Client{Timeout: defaultRequestTimeout}

	start := time.Now()
	for i := 0; i < attempts; i++ {
		if Check(client, url).Ready() {
			return nil
		}
		time.Sleep(interval)
	}

	return &TimeoutError{
		Attempts: attempts,
		Elapsed:  time.Since(start),
		LogPath:  cfg.LogPath,
	}
}

// Check performs one readiness probe. The response body is ignored; only the
// status class matters.
func Check(client *http.Client, url string) Outcome {
	resp, err := client.Get(url)
	if err != nil {
		return Outcome{Err: err}
	}
	resp.Body.Close()
	return Outcome{Status: resp.StatusCode}
}

// PortInUse reports whether something is already listening on the backend
// port. Used by preflight checks to surface a port conflict before launch.
func PortInUse(port int) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), 250*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
