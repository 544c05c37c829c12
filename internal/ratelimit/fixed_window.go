package ratelimit

import (
	"sync"
	"time"
)

// FixedWindow counts requests and cost inside a fixed window. Counters reset
// to zero the first time the limiter is touched after the window has elapsed,
// so bursts straddling a window edge are possible.
type FixedWindow struct {
	mu     sync.Mutex
	budget Budget
	clock  Clock
	state  State
}

// NewFixedWindow creates a fixed-window limiter. Zero budget fields take defaults.
func NewFixedWindow(b Budget, opts ...Option) *FixedWindow {
	o := applyOptions(opts)
	return &FixedWindow{
		budget: b.WithDefaults(),
		clock:  o.clock,
		state:  State{WindowStart: o.clock()},
	}
}

// roll resets the counters when the current window has expired.
// Caller must hold l.mu.
func (l *FixedWindow) roll(now time.Time) {
	if now.Sub(l.state.WindowStart) >= l.budget.Window {
		l.state = State{WindowStart: now}
	}
}

// CanAdmit implements Limiter.
func (l *FixedWindow) CanAdmit(cost int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.roll(l.clock())
	return l.state.Requests < l.budget.RequestsPerWindow &&
		l.state.Cost+cost <= l.budget.CostPerWindow
}

// RecordAdmission implements Limiter.
func (l *FixedWindow) RecordAdmission(cost int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.roll(l.clock())
	l.state.Requests++
	l.state.Cost += cost
}

// Snapshot implements Limiter.
func (l *FixedWindow) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Budget returns the effective budget.
func (l *FixedWindow) Budget() Budget {
	return l.budget
}

var _ Limiter = (*FixedWindow)(nil)
