package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Errors returned by Build for misconfigured options.
var (
	ErrInvalidMode          = errors.New("invalid execution mode")
	ErrInvalidMaxConcurrent = errors.New("max concurrent tasks must not be negative")
)

// Parameter names set on every built task.
const (
	ParamFramework = "framework"
	ParamDesign    = "design"
	ParamPriority  = "priority"
)

// ExecutionMode selects how the executor drives a task list.
type ExecutionMode string

const (
	// ModeParallel runs tasks concurrently behind a concurrency gate.
	ModeParallel ExecutionMode = "parallel"

	// ModeSequential runs tasks one at a time in list order.
	ModeSequential ExecutionMode = "sequential"
)

// Requirements flags which categories the caller wants produced.
type Requirements struct {
	Documentation bool `json:"documentation"`
	Code          bool `json:"code"`
	Reasoning     bool `json:"reasoning"`
	Optimization  bool `json:"optimization"`
}

// Wants reports whether the category was requested.
func (r Requirements) Wants(c Category) bool {
	switch c {
	case Documentation:
		return r.Documentation
	case CodeGeneration:
		return r.Code
	case Reasoning:
		return r.Reasoning
	case Optimization:
		return r.Optimization
	}
	return false
}

// Count returns the number of requested categories.
func (r Requirements) Count() int {
	n := 0
	for _, c := range AllCategories() {
		if r.Wants(c) {
			n++
		}
	}
	return n
}

// Options tune how a request is turned into tasks and executed.
type Options struct {
	TargetFramework string        `json:"target_framework,omitempty"`
	Priority        string        `json:"priority,omitempty"`
	Mode            ExecutionMode `json:"mode,omitempty"`
	MaxConcurrent   int           `json:"max_concurrent,omitempty"`
}

// ResolvedMode returns the execution mode, defaulting to parallel.
func (o Options) ResolvedMode() (ExecutionMode, error) {
	switch m := ExecutionMode(strings.ToLower(string(o.Mode))); m {
	case "":
		return ModeParallel, nil
	case ModeParallel, ModeSequential:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, o.Mode)
	}
}

// Validate checks options for misconfiguration.
func (o Options) Validate() error {
	if _, err := ParsePriority(o.Priority); err != nil {
		return err
	}
	if _, err := o.ResolvedMode(); err != nil {
		return err
	}
	if o.MaxConcurrent < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxConcurrent, o.MaxConcurrent)
	}
	return nil
}

// DefaultConstraints returns the per-category constraints attached to new tasks.
// Code generation gets the largest output budget and the longest timeout.
func DefaultConstraints(c Category) Constraints {
	switch c {
	case Documentation:
		return Constraints{MaxOutputSize: 4096, Timeout: 30 * time.Second, Temperature: 0.3}
	case CodeGeneration:
		return Constraints{MaxOutputSize: 8192, Timeout: 60 * time.Second, Temperature: 0.2}
	case Reasoning:
		return Constraints{MaxOutputSize: 4096, Timeout: 45 * time.Second, Temperature: 0.7}
	case Optimization:
		return Constraints{MaxOutputSize: 2048, Timeout: 20 * time.Second, Temperature: 0.4}
	}
	return Constraints{}
}

// Build derives one task per requested category, in AllCategories order.
// No flags yields an empty list and no error. Tasks share a copy of design,
// so later writes to the caller's map do not reach them.
func Build(design Design, req Requirements, opts Options) ([]Task, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	priority, _ := ParsePriority(opts.Priority)
	shared := design.Clone()

	tasks := make([]Task, 0, req.Count())
	for _, c := range AllCategories() {
		if !req.Wants(c) {
			continue
		}
		tasks = append(tasks, Task{
			ID:          NewID(c),
			Category:    c,
			Priority:    priority,
			Design:      shared,
			Parameters:  buildParameters(shared, opts, priority),
			Constraints: DefaultConstraints(c),
		})
	}
	return tasks, nil
}

func buildParameters(design Design, opts Options, priority Priority) map[string]string {
	params := map[string]string{
		ParamPriority: string(priority),
	}
	if opts.TargetFramework != "" {
		params[ParamFramework] = opts.TargetFramework
	}
	if name := design.Name(); name != "" {
		params[ParamDesign] = name
	}
	return params
}
