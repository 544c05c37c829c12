package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fyrsmithlabs/designorch/internal/ratelimit"
	"github.com/fyrsmithlabs/designorch/internal/task"
)

// DefaultProbeTimeout bounds a single connection probe.
const DefaultProbeTimeout = 5 * time.Second

type entry struct {
	descriptor Descriptor
	limiter    ratelimit.Limiter
}

// Registry owns provider descriptors and their rate limiters.
// Each registered provider is bound 1:1 to a limiter.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*entry

	affinity     Affinity
	newLimiter   ratelimit.Factory
	probe        Probe
	probeTimeout time.Duration
}

// Option configures a Registry.
type Option func(*Registry)

// WithAffinity replaces the default affinity table.
func WithAffinity(a Affinity) Option {
	return func(r *Registry) {
		r.affinity = a
	}
}

// WithLimiterFactory sets how per-provider limiters are built.
func WithLimiterFactory(f ratelimit.Factory) Option {
	return func(r *Registry) {
		if f != nil {
			r.newLimiter = f
		}
	}
}

// WithProbe sets the reachability probe used by TestConnections.
func WithProbe(p Probe) Option {
	return func(r *Registry) {
		if p != nil {
			r.probe = p
		}
	}
}

// WithProbeTimeout bounds each probe call.
func WithProbeTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.probeTimeout = d
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries:      make(map[string]*entry),
		affinity:     DefaultAffinity(),
		newLimiter:   func(b ratelimit.Budget) ratelimit.Limiter { return ratelimit.NewFixedWindow(b) },
		probe:        AvailabilityProbe,
		probeTimeout: DefaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds or replaces a provider. Either way the provider gets a fresh
// limiter. Replacing keeps the provider's original registration position.
func (r *Registry) Register(d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	d = d.clone()
	d.RateLimit = d.RateLimit.WithDefaults()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[d.Name]; !exists {
		r.order = append(r.order, d.Name)
	}
	r.entries[d.Name] = &entry{
		descriptor: d,
		limiter:    r.newLimiter(d.RateLimit),
	}
	return nil
}

// SetAvailable flips a provider's availability flag without touching its limiter.
func (r *Registry) SetAvailable(name string, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	e.descriptor.Available = available
	return nil
}

// Get returns a copy of a provider's descriptor.
func (r *Registry) Get(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return Descriptor{}, false
	}
	return e.descriptor.clone(), true
}

// Limiter returns the limiter bound to a provider.
func (r *Registry) Limiter(name string) (ratelimit.Limiter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.limiter, true
}

// List returns all descriptors in registration order.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].descriptor.clone())
	}
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Select picks a provider for the category.
//
// Preferred names from the affinity table are tried in order and the first
// registered, available one wins. Failing that, the first available provider
// in registration order is used whatever its capabilities; the selection is
// then marked degraded if the provider does not declare the category. With no
// available provider at all, Select returns ErrNoProviderAvailable.
func (r *Registry) Select(c task.Category) (Selection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.affinity[c] {
		if e, ok := r.entries[name]; ok && e.descriptor.Available {
			return r.selection(e, c), nil
		}
	}

	for _, name := range r.order {
		if e := r.entries[name]; e.descriptor.Available {
			return r.selection(e, c), nil
		}
	}

	return Selection{}, fmt.Errorf("%w for %s (%d registered)", ErrNoProviderAvailable, c, len(r.order))
}

func (r *Registry) selection(e *entry, c task.Category) Selection {
	return Selection{
		Descriptor: e.descriptor.clone(),
		Limiter:    e.limiter,
		Degraded:   !e.descriptor.Supports(c),
	}
}

// Status reports every provider with its availability label. The result
// depends only on registry contents, so repeated calls without intervening
// registrations return identical data.
func (r *Registry) Status() map[string]Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Status, len(r.entries))
	for name, e := range r.entries {
		out[name] = statusOf(e.descriptor)
	}
	return out
}

// TestConnections probes every provider concurrently. A probe that does not
// answer within the probe timeout counts as unreachable.
func (r *Registry) TestConnections(ctx context.Context) map[string]bool {
	descriptors := r.List()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]bool, len(descriptors))
	)

	for _, d := range descriptors {
		wg.Add(1)
		go func(d Descriptor) {
			defer wg.Done()

			probeCtx, cancel := context.WithTimeout(ctx, r.probeTimeout)
			defer cancel()

			reply := make(chan bool, 1)
			go func() {
				reply <- r.probe.Probe(probeCtx, d)
			}()

			var ok bool
			select {
			case ok = <-reply:
			case <-probeCtx.Done():
			}

			mu.Lock()
			results[d.Name] = ok
			mu.Unlock()
		}(d)
	}
	wg.Wait()

	return results
}
