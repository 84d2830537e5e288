// Package controls turns raw user input into viewer actions and tracks
// pointer idleness.
package controls

import (
	"sync"
	"time"
)

const (
	// DefaultIdleTimeout is how long without input before the pointer and
	// overlay are hidden.
	DefaultIdleTimeout = 3000 * time.Millisecond

	// PollInterval is how often a host should call Check.
	PollInterval = 100 * time.Millisecond
)

// IdleTracker flips between active and idle based on the time since the
// last reported activity. It never touches animation state.
type IdleTracker struct {
	mu       sync.Mutex
	timeout  time.Duration
	last     time.Time
	idle     bool
	onChange func(idle bool)
}

// NewIdleTracker starts out active at now. onChange, if set, runs on every
// transition, on the goroutine that caused it.
func NewIdleTracker(timeout time.Duration, now time.Time, onChange func(idle bool)) *IdleTracker {
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	return &IdleTracker{timeout: timeout, last: now, onChange: onChange}
}

// Activity records user input.
func (t *IdleTracker) Activity(now time.Time) {
	t.mu.Lock()
	t.last = now
	changed := t.idle
	t.idle = false
	t.mu.Unlock()

	if changed && t.onChange != nil {
		t.onChange(false)
	}
}

// Check goes idle once more than the timeout has passed since the last
// activity, and reports the current state.
func (t *IdleTracker) Check(now time.Time) bool {
	t.mu.Lock()
	changed := false
	if !t.idle && now.Sub(t.last) > t.timeout {
		t.idle = true
		changed = true
	}
	idle := t.idle
	t.mu.Unlock()

	if changed && t.onChange != nil {
		t.onChange(true)
	}
	return idle
}

// Idle reports the state as of the last Activity or Check.
func (t *IdleTracker) Idle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.idle
}

// Timeout returns the configured idle timeout.
func (t *IdleTracker) Timeout() time.Duration {
	return t.timeout
}
