package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket enforces the same budgets as FixedWindow but refills them
// continuously, removing the burst at window edges.
type TokenBucket struct {
	mu          sync.Mutex
	budget      Budget
	clock       Clock
	requests    *rate.Limiter
	cost        *rate.Limiter
	windowStart time.Time
}

// NewTokenBucket creates a token-bucket limiter backed by golang.org/x/time/rate.
// Each bucket starts full and refills its whole budget once per window.
func NewTokenBucket(b Budget, opts ...Option) *TokenBucket {
	o := applyOptions(opts)
	b = b.WithDefaults()
	now := o.clock()

	requests := rate.NewLimiter(rate.Every(b.Window/time.Duration(b.RequestsPerWindow)), b.RequestsPerWindow)
	cost := rate.NewLimiter(rate.Limit(float64(b.CostPerWindow)/b.Window.Seconds()), b.CostPerWindow)

	// Pin the buckets' notion of "last update" to the injected clock.
	requests.SetLimitAt(now, requests.Limit())
	cost.SetLimitAt(now, cost.Limit())

	return &TokenBucket{
		budget:      b,
		clock:       o.clock,
		requests:    requests,
		cost:        cost,
		windowStart: now,
	}
}

// CanAdmit implements Limiter.
func (l *TokenBucket) CanAdmit(cost int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	return l.requests.TokensAt(now) >= 1 && l.cost.TokensAt(now) >= float64(cost)
}

// RecordAdmission implements Limiter. Reservations are never cancelled, so a
// recorded admission always drains its tokens.
func (l *TokenBucket) RecordAdmission(cost int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	l.requests.ReserveN(now, 1)
	l.cost.ReserveN(now, cost)
}

// Snapshot implements Limiter. Counts are the budget currently consumed.
func (l *TokenBucket) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	return State{
		Requests:    consumed(l.budget.RequestsPerWindow, l.requests.TokensAt(now)),
		Cost:        consumed(l.budget.CostPerWindow, l.cost.TokensAt(now)),
		WindowStart: l.windowStart,
	}
}

func consumed(capacity int, tokens float64) int {
	used := float64(capacity) - tokens
	if used < 0 {
		return 0
	}
	return int(math.Ceil(used))
}

var _ Limiter = (*TokenBucket)(nil)
