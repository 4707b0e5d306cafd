// Package logbuf keeps the most recent lines of backend output in memory so
// startup failures can be diagnosed without digging through the log file.
package logbuf

import (
	"bytes"
	"strings"
	"sync"
)

// Buffer is a bounded, thread-safe line buffer. It implements io.Writer so it
// can sit directly on a child process's stdout/stderr.
type Buffer struct {
	mu      sync.Mutex
	cap     int
	lines   []string
	pending bytes.Buffer // bytes of the current line, no newline seen yet
}

// New creates a buffer retaining the last n lines.
func New(n int) *Buffer {
	if n <= 0 {
		n = 1
	}
	return &Buffer{cap: n}
}

// Write implements io.Writer. Input is split on newlines; complete lines are
// appended and the oldest dropped once the cap is exceeded. Always reports
// the full length as written.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending.Write(p)
	for {
		raw := b.pending.Bytes()
		i := bytes.IndexByte(raw, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(raw[:i]), "\r")
		b.pending.Next(i + 1)

		b.lines = append(b.lines, line)
		if len(b.lines) > b.cap {
			// Shift instead of reslicing so the backing array cannot grow
			// without bound over a long-running process.
			copy(b.lines, b.lines[1:])
			b.lines = b.lines[:b.cap]
		}
	}
	return len(p), nil
}

// Tail returns up to the last n stored lines, oldest first.
func (b *Buffer) Tail(n int) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n > len(b.lines) {
		n = len(b.lines)
	}
	out := make([]string, n)
	copy(out, b.lines[len(b.lines)-n:])
	return out
}

// Len reports how many complete lines are currently stored.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}
