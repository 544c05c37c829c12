// Package handlers defines the per-category processing contract and the
// result types it produces.
//
// Each category has its own typed handler. A handler receives the task and
// the provider chosen for it and returns a result carrying at least the
// provider's model name and a confidence score. Content synthesis lives
// behind these interfaces; the package ships a Simulated implementation for
// local runs and tests.
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/designorch/internal/provider"
	"github.com/fyrsmithlabs/designorch/internal/task"
)

// ErrMissingHandler is returned when a Set has no handler for a category.
var ErrMissingHandler = errors.New("no handler for category")

// DocumentationHandler produces documentation.
type DocumentationHandler interface {
	Document(ctx context.Context, t task.Task, p provider.Descriptor) (*DocumentationResult, error)
}

// CodeHandler generates code.
type CodeHandler interface {
	Generate(ctx context.Context, t task.Task, p provider.Descriptor) (*CodeResult, error)
}

// ReasoningHandler analyzes a design.
type ReasoningHandler interface {
	Reason(ctx context.Context, t task.Task, p provider.Descriptor) (*ReasoningResult, error)
}

// OptimizationHandler proposes optimizations.
type OptimizationHandler interface {
	Optimize(ctx context.Context, t task.Task, p provider.Descriptor) (*OptimizationResult, error)
}

// DocumentationFunc adapts a function to DocumentationHandler.
type DocumentationFunc func(ctx context.Context, t task.Task, p provider.Descriptor) (*DocumentationResult, error)

// Document implements DocumentationHandler.
func (f DocumentationFunc) Document(ctx context.Context, t task.Task, p provider.Descriptor) (*DocumentationResult, error) {
	return f(ctx, t, p)
}

// CodeFunc adapts a function to CodeHandler.
type CodeFunc func(ctx context.Context, t task.Task, p provider.Descriptor) (*CodeResult, error)

// Generate implements CodeHandler.
func (f CodeFunc) Generate(ctx context.Context, t task.Task, p provider.Descriptor) (*CodeResult, error) {
	return f(ctx, t, p)
}

// ReasoningFunc adapts a function to ReasoningHandler.
type ReasoningFunc func(ctx context.Context, t task.Task, p provider.Descriptor) (*ReasoningResult, error)

// Reason implements ReasoningHandler.
func (f ReasoningFunc) Reason(ctx context.Context, t task.Task, p provider.Descriptor) (*ReasoningResult, error) {
	return f(ctx, t, p)
}

// OptimizationFunc adapts a function to OptimizationHandler.
type OptimizationFunc func(ctx context.Context, t task.Task, p provider.Descriptor) (*OptimizationResult, error)

// Optimize implements OptimizationHandler.
func (f OptimizationFunc) Optimize(ctx context.Context, t task.Task, p provider.Descriptor) (*OptimizationResult, error) {
	return f(ctx, t, p)
}

// Set holds one handler per category.
type Set struct {
	Documentation DocumentationHandler
	Code          CodeHandler
	Reasoning     ReasoningHandler
	Optimization  OptimizationHandler
}

// NewSimulatedSet returns a Set backed entirely by s.
func NewSimulatedSet(s *Simulated) Set {
	return Set{
		Documentation: s,
		Code:          s,
		Reasoning:     s,
		Optimization:  s,
	}
}

// WithDefaults fills missing handlers from fallback.
func (s Set) WithDefaults(fallback Set) Set {
	if s.Documentation == nil {
		s.Documentation = fallback.Documentation
	}
	if s.Code == nil {
		s.Code = fallback.Code
	}
	if s.Reasoning == nil {
		s.Reasoning = fallback.Reasoning
	}
	if s.Optimization == nil {
		s.Optimization = fallback.Optimization
	}
	return s
}

// Handle dispatches t to the handler for its category. A handler returning a
// nil result without an error is reported as a failure.
func (s Set) Handle(ctx context.Context, t task.Task, p provider.Descriptor) (Result, error) {
	var (
		res Result
		err error
	)

	switch t.Category {
	case task.Documentation:
		if s.Documentation == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingHandler, t.Category)
		}
		var r *DocumentationResult
		if r, err = s.Documentation.Document(ctx, t, p); r != nil {
			res = r
		}
	case task.CodeGeneration:
		if s.Code == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingHandler, t.Category)
		}
		var r *CodeResult
		if r, err = s.Code.Generate(ctx, t, p); r != nil {
			res = r
		}
	case task.Reasoning:
		if s.Reasoning == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingHandler, t.Category)
		}
		var r *ReasoningResult
		if r, err = s.Reasoning.Reason(ctx, t, p); r != nil {
			res = r
		}
	case task.Optimization:
		if s.Optimization == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingHandler, t.Category)
		}
		var r *OptimizationResult
		if r, err = s.Optimization.Optimize(ctx, t, p); r != nil {
			res = r
		}
	default:
		return nil, fmt.Errorf("%w: %d", task.ErrUnknownCategory, t.Category)
	}

	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("%s handler returned no result", t.Category)
	}
	return res, nil
}
