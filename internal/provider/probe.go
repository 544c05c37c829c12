package provider

import "context"

// Probe checks whether a provider is reachable.
type Probe interface {
	Probe(ctx context.Context, d Descriptor) bool
}

// ProbeFunc adapts a function to the Probe interface.
type ProbeFunc func(ctx context.Context, d Descriptor) bool

// Probe implements Probe.
func (f ProbeFunc) Probe(ctx context.Context, d Descriptor) bool {
	return f(ctx, d)
}

// AvailabilityProbe reports the descriptor's availability flag. It is the
// default because real network checks are left to the embedding service.
var AvailabilityProbe Probe = ProbeFunc(func(_ context.Context, d Descriptor) bool {
	return d.Available
})
