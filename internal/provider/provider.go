// Package provider holds provider descriptors, the registry that owns them
// and the policy used to pick a provider for a task.
package provider

import (
	"errors"
	"slices"

	"github.com/fyrsmithlabs/designorch/internal/ratelimit"
	"github.com/fyrsmithlabs/designorch/internal/task"
)

// Errors returned by the registry.
var (
	ErrNoProviderAvailable = errors.New("no provider available")
	ErrInvalidDescriptor   = errors.New("invalid provider descriptor")
	ErrProviderNotFound    = errors.New("provider not found")
)

// Status labels reported by Registry.Status.
const (
	LabelAvailable   = "available"
	LabelUnavailable = "unavailable"
)

// CostInfo is informational pricing metadata. It is never enforced.
type CostInfo struct {
	PerThousandTokens float64 `json:"per_thousand_tokens"`
	Currency          string  `json:"currency,omitempty"`
}

// Descriptor describes a backend able to fulfil one or more task categories.
type Descriptor struct {
	Name         string           `json:"name"`
	Model        string           `json:"model,omitempty"`
	Capabilities []string         `json:"capabilities"`
	Available    bool             `json:"available"`
	RateLimit    ratelimit.Budget `json:"rate_limit"`
	Cost         CostInfo         `json:"cost"`
}

// ModelName returns the underlying model name, falling back to the provider name.
func (d Descriptor) ModelName() string {
	if d.Model != "" {
		return d.Model
	}
	return d.Name
}

// Supports reports whether the declared capabilities include the category.
func (d Descriptor) Supports(c task.Category) bool {
	return slices.Contains(d.Capabilities, c.String())
}

// Validate checks the descriptor can be registered.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return errors.Join(ErrInvalidDescriptor, errors.New("name is required"))
	}
	if d.RateLimit.RequestsPerWindow < 0 || d.RateLimit.CostPerWindow < 0 || d.RateLimit.Window < 0 {
		return errors.Join(ErrInvalidDescriptor, errors.New("rate limit budget must not be negative"))
	}
	return nil
}

func (d Descriptor) clone() Descriptor {
	d.Capabilities = slices.Clone(d.Capabilities)
	return d
}

// Status pairs a descriptor with its derived availability label.
type Status struct {
	Descriptor Descriptor `json:"descriptor"`
	Label      string     `json:"status"`
}

func statusOf(d Descriptor) Status {
	label := LabelUnavailable
	if d.Available {
		label = LabelAvailable
	}
	return Status{Descriptor: d.clone(), Label: label}
}

// Affinity maps each category to its preferred provider names, in order.
type Affinity map[task.Category][]string

// DefaultAffinity returns the built-in category to provider preference table.
func DefaultAffinity() Affinity {
	return Affinity{
		task.Documentation:  {"claude", "gemini"},
		task.CodeGeneration: {"gpt-4", "claude"},
		task.Reasoning:      {"claude", "gpt-4"},
		task.Optimization:   {"gemini", "gpt-4"},
	}
}

// Selection is the outcome of picking a provider for a task.
type Selection struct {
	Descriptor Descriptor
	Limiter    ratelimit.Limiter

	// Degraded is set when the provider does not declare the task's
	// category as a capability, which happens on the fallback path.
	Degraded bool
}
