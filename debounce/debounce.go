// Package debounce delays work triggered by rapid repeated events so that
// only the last trigger within a window takes effect.
package debounce

import (
	"sync"
	"time"
)

const defaultWindow = 300 * time.Millisecond

// Scheduler collapses bursts of triggers into a single deferred call. Each
// Trigger cancels any scheduled-but-not-yet-fired call, so intermediate
// triggers within a window never fire.
type Scheduler struct {
	window time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// NewScheduler creates a scheduler with the given window. A non-positive
// window falls back to the 300ms default.
func NewScheduler(window time.Duration) *Scheduler {
	if window <= 0 {
		window = defaultWindow
	}
	return &Scheduler{window: window}
}

// Trigger schedules fn to run after the window elapses, replacing any
// previously scheduled call. fn runs on its own goroutine. Triggers after
// Stop are ignored.
func (s *Scheduler) Trigger(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.window, fn)
}

// Stop cancels any pending call and rejects further triggers. Safe to call
// more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.stopped = true
}
