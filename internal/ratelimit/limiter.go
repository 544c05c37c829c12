// Package ratelimit provides per-provider admission control.
//
// A Limiter tracks a request budget and a cost budget inside a time window.
// The executor asks CanAdmit before dispatching a task and calls
// RecordAdmission once the provider call succeeds. Task cost is unknown until
// a provider has run, so callers pass EstimatedRequestCost; measured cost is
// never fed back.
package ratelimit

import (
	"fmt"
	"time"
)

// Defaults applied to zero-valued budget fields.
const (
	DefaultWindow            = 60 * time.Second
	DefaultRequestsPerWindow = 60
	DefaultCostPerWindow     = 100_000
)

// EstimatedRequestCost is the cost charged for a task before it runs.
const EstimatedRequestCost = 1000

// Budget is the admission budget of a single provider.
type Budget struct {
	RequestsPerWindow int           `json:"requests_per_window"`
	CostPerWindow     int           `json:"cost_per_window"`
	Window            time.Duration `json:"window"`
}

// WithDefaults fills zero fields with package defaults.
func (b Budget) WithDefaults() Budget {
	if b.RequestsPerWindow <= 0 {
		b.RequestsPerWindow = DefaultRequestsPerWindow
	}
	if b.CostPerWindow <= 0 {
		b.CostPerWindow = DefaultCostPerWindow
	}
	if b.Window <= 0 {
		b.Window = DefaultWindow
	}
	return b
}

// State is a point-in-time view of a limiter's counters.
type State struct {
	Requests    int       `json:"requests"`
	Cost        int       `json:"cost"`
	WindowStart time.Time `json:"window_start"`
}

// Limiter admits or rejects dispatch attempts for one provider.
type Limiter interface {
	// CanAdmit reports whether a request of the given cost fits the budget.
	CanAdmit(cost int) bool

	// RecordAdmission charges one request and the given cost.
	RecordAdmission(cost int)

	// Snapshot returns the current counters.
	Snapshot() State
}

// Clock returns the current time.
type Clock func() time.Time

// Option configures a limiter.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

func applyOptions(opts []Option) options {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Algorithm names a limiter implementation.
type Algorithm string

const (
	AlgorithmFixedWindow Algorithm = "fixed_window"
	AlgorithmTokenBucket Algorithm = "token_bucket"
)

// Factory creates a fresh limiter for a provider budget.
type Factory func(Budget) Limiter

// NewFactory returns a Factory for the named algorithm. Empty selects fixed_window.
func NewFactory(alg Algorithm, opts ...Option) (Factory, error) {
	switch alg {
	case "", AlgorithmFixedWindow:
		return func(b Budget) Limiter { return NewFixedWindow(b, opts...) }, nil
	case AlgorithmTokenBucket:
		return func(b Budget) Limiter { return NewTokenBucket(b, opts...) }, nil
	default:
		return nil, fmt.Errorf("unknown rate limit algorithm %q", alg)
	}
}
