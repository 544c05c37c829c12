// Package task defines the units of work fanned out to providers and the
// builder that derives them from a caller's high-level requirements.
package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Errors returned when parsing task attributes.
var (
	ErrUnknownCategory = errors.New("unknown task category")
	ErrInvalidPriority = errors.New("invalid task priority")
)

// Category is the closed set of work a provider can be asked to do.
type Category uint8

const (
	// Documentation produces written documentation for a design.
	Documentation Category = iota + 1

	// CodeGeneration produces source files implementing a design.
	CodeGeneration

	// Reasoning produces an analysis of design decisions and risks.
	Reasoning

	// Optimization produces improvement suggestions for a design.
	Optimization
)

type categoryInfo struct {
	name   string
	prefix string
}

// The prefix of a task identifier encodes its category. Prefixes must stay
// unique and none may be a prefix of another.
var categories = map[Category]categoryInfo{
	Documentation:  {name: "documentation", prefix: "doc-"},
	CodeGeneration: {name: "code-generation", prefix: "code-"},
	Reasoning:      {name: "reasoning", prefix: "reason-"},
	Optimization:   {name: "optimization", prefix: "opt-"},
}

// AllCategories returns every category in build order.
func AllCategories() []Category {
	return []Category{Documentation, CodeGeneration, Reasoning, Optimization}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// String returns the capability name associated with the category.
func (c Category) String() string {
	if info, ok := categories[c]; ok {
		return info.name
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// Prefix returns the identifier prefix for tasks of this category.
func (c Category) Prefix() string {
	return categories[c].prefix
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory resolves a capability name to a Category.
func ParseCategory(s string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for c, info := range categories {
		if info.name == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// CategoryFromID recovers the category encoded in a task identifier.
func CategoryFromID(id string) (Category, bool) {
	for _, c := range AllCategories() {
		if strings.HasPrefix(id, c.Prefix()) {
			return c, true
		}
	}
	return 0, false
}

// NewID mints a fresh task identifier for the category.
func NewID(c Category) string {
	return c.Prefix() + uuid.NewString()
}

// Priority is informational and does not affect scheduling order.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority validates a priority string. Empty defaults to medium.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PriorityMedium, nil
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
}

// Constraints bound a single provider call.
type Constraints struct {
	MaxOutputSize int           `json:"max_output_size"`
	Timeout       time.Duration `json:"timeout"`
	Temperature   float64       `json:"temperature"`
}

// Design is the opaque design description handed to every provider.
type Design map[string]any

// Name returns the design's display name, if it carries one.
func (d Design) Name() string {
	for _, key := range []string{"name", "title"} {
		if v, ok := d[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// Clone returns a shallow copy of the design.
func (d Design) Clone() Design {
	if d == nil {
		return nil
	}
	out := make(Design, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Task is one unit of requested work bound to exactly one category.
// Tasks are values; nothing mutates them after Build returns.
type Task struct {
	ID          string            `json:"id"`
	Category    Category          `json:"category"`
	Priority    Priority          `json:"priority"`
	Design      Design            `json:"-"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	Constraints Constraints       `json:"constraints"`
}

// Param returns a named parameter or the empty string.
func (t Task) Param(name string) string {
	return t.Parameters[name]
}

// MarshalJSON keeps the design payload out of task dumps.
func (t Task) MarshalJSON() ([]byte, error) {
	type alias Task
	return json.Marshal(struct {
		alias
		DesignName string `json:"design,omitempty"`
	}{alias: alias(t), DesignName: t.Design.Name()})
}
