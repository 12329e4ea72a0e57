// Package eventlog keeps a bounded, thread-safe history of rendered event
// and activity lines for the frontends' log views.
package eventlog

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultLimit matches the log cap of the original hub frontends.
const DefaultLimit = 500

// Ring holds the most recent lines, oldest first, trimming beyond its limit.
type Ring struct {
	mu    sync.Mutex
	limit int
	lines []string
}

// New creates a Ring keeping at most limit lines; limit <= 0 means
// DefaultLimit.
func New(limit int) *Ring {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Ring{limit: limit}
}

// Append adds one line, timestamped, dropping the oldest when full.
func (r *Ring) Append(line string) {
	stamped := time.Now().Format("15:04:05") + " " + line
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, stamped)
	if overflow := len(r.lines) - r.limit; overflow > 0 {
		r.lines = append(r.lines[:0], r.lines[overflow:]...)
	}
}

// Appendf formats and appends one line.
func (r *Ring) Appendf(format string, args ...interface{}) {
	r.Append(fmt.Sprintf(format, args...))
}

// Lines returns a copy of the current history, oldest first.
func (r *Ring) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Len returns the number of retained lines.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}

// String renders the history as one newline-joined block.
func (r *Ring) String() string {
	return strings.Join(r.Lines(), "\n")
}
