package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/designorch/internal/config"
	"github.com/fyrsmithlabs/designorch/internal/gate"
	"github.com/fyrsmithlabs/designorch/internal/handlers"
	"github.com/fyrsmithlabs/designorch/internal/logging"
	"github.com/fyrsmithlabs/designorch/internal/provider"
	"github.com/fyrsmithlabs/designorch/internal/ratelimit"
	"github.com/fyrsmithlabs/designorch/internal/task"
)

var tracer = otel.Tracer("designorch/orchestrator")

// Executor runs task lists against a provider registry.
type Executor struct {
	registry        *provider.Registry
	handlers        handlers.Set
	logger          *logging.Logger
	metrics         *Metrics
	estimatedCost   int
	enforceTimeouts bool
}

// NewExecutor creates an executor. logger and metrics may be nil.
func NewExecutor(registry *provider.Registry, set handlers.Set, logger *logging.Logger, metrics *Metrics) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{
		registry:      registry,
		handlers:      set,
		logger:        logger,
		metrics:       metrics,
		estimatedCost: ratelimit.EstimatedRequestCost,
	}
}

// RunParallel executes every task concurrently with at most maxConcurrent
// in flight. It waits for all tasks; one failure never stops the others.
// The returned map is keyed by task ID.
func (e *Executor) RunParallel(ctx context.Context, tasks []task.Task, maxConcurrent int) map[string]*Outcome {
	ctx, span := tracer.Start(ctx, "orchestrator.run_parallel", trace.WithAttributes(
		attribute.Int("tasks.count", len(tasks)),
		attribute.Int("gate.capacity", maxConcurrent),
	))
	defer span.End()

	g := gate.New(maxConcurrent)
	outcomes := make(map[string]*Outcome, len(tasks))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, t := range tasks {
		wg.Add(1)
		go func(t task.Task) {
			defer wg.Done()

			out := e.runGated(ctx, g, t)

			mu.Lock()
			outcomes[t.ID] = out
			mu.Unlock()
		}(t)
	}
	wg.Wait()

	return outcomes
}

func (e *Executor) runGated(ctx context.Context, g *gate.Gate, t task.Task) *Outcome {
	if err := g.Acquire(ctx); err != nil {
		out := newOutcome(t)
		e.fail(logging.WithTaskID(ctx, t.ID), nil, out, KindCancelled, fmt.Errorf("waiting for concurrency permit: %w", err))
		e.metrics.recordTask(out)
		return out
	}
	defer g.Release()

	e.metrics.inFlight(1)
	defer e.metrics.inFlight(-1)

	return e.execute(ctx, t)
}

// RunSequential executes tasks one at a time in list order.
func (e *Executor) RunSequential(ctx context.Context, tasks []task.Task) map[string]*Outcome {
	ctx, span := tracer.Start(ctx, "orchestrator.run_sequential", trace.WithAttributes(
		attribute.Int("tasks.count", len(tasks)),
	))
	defer span.End()

	outcomes := make(map[string]*Outcome, len(tasks))
	for _, t := range tasks {
		outcomes[t.ID] = e.execute(ctx, t)
	}
	return outcomes
}

// execute drives one task to a terminal state.
func (e *Executor) execute(ctx context.Context, t task.Task) *Outcome {
	ctx, span := tracer.Start(ctx, "orchestrator.execute_task", trace.WithAttributes(
		attribute.String("task.id", t.ID),
		attribute.String("task.category", t.Category.String()),
	))
	defer span.End()
	ctx = logging.WithTaskID(ctx, t.ID)

	out := newOutcome(t)
	start := time.Now()
	defer func() {
		out.Duration = time.Since(start)
		e.metrics.recordTask(out)
	}()

	sel, err := e.registry.Select(t.Category)
	if err != nil {
		out.transition(StateRejected)
		e.fail(ctx, span, out, KindNoProviderAvailable, err)
		return out
	}

	name := sel.Descriptor.Name
	out.Provider = name
	out.Degraded = sel.Degraded
	ctx = logging.WithProvider(ctx, name)
	span.SetAttributes(
		attribute.String("provider.name", name),
		attribute.Bool("provider.degraded", sel.Degraded),
	)
	if sel.Degraded {
		e.metrics.recordDegraded(t.Category.String())
		e.logger.Warn(ctx, "Degraded routing", zap.String("category", t.Category.String()))
	}

	if !sel.Limiter.CanAdmit(e.estimatedCost) {
		out.transition(StateRejected)
		e.metrics.recordRateLimited(name)
		e.fail(ctx, span, out, KindRateLimitExceeded, fmt.Errorf("%w for provider %s", ErrRateLimitExceeded, name))
		return out
	}
	out.transition(StateAdmitted)
	out.transition(StateExecuting)
	e.logger.Trace(ctx, "Task executing")

	callStart := time.Now()
	res, err := e.invoke(ctx, t, sel.Descriptor)
	if err != nil {
		e.fail(ctx, span, out, KindHandlerFailure, err)
		return out
	}
	sel.Limiter.RecordAdmission(e.estimatedCost)

	meta := res.Metadata()
	if meta.ProcessingTime == 0 {
		meta.ProcessingTime = config.Duration(time.Since(callStart))
	}
	if meta.Provider == "" {
		meta.Provider = name
	}
	if meta.Model == "" {
		meta.Model = sel.Descriptor.ModelName()
	}
	meta.Degraded = sel.Degraded

	out.Result = res
	out.transition(StateSucceeded)
	span.SetAttributes(attribute.Float64("result.confidence", meta.Confidence))
	e.logger.Debug(ctx, "Task succeeded",
		zap.String("model", meta.Model),
		zap.Duration("processing_time", meta.ProcessingTime.Duration()))

	return out
}

// invoke calls the handler, bounding it by the task timeout when
// enforcement is on.
func (e *Executor) invoke(ctx context.Context, t task.Task, d provider.Descriptor) (handlers.Result, error) {
	timeout := t.Constraints.Timeout
	if !e.enforceTimeouts || timeout <= 0 {
		return e.call(ctx, t, d)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type reply struct {
		res handlers.Result
		err error
	}
	ch := make(chan reply, 1)
	go func() {
		res, err := e.call(ctx, t, d)
		ch <- reply{res, err}
	}()

	select {
	case r := <-ch:
		return r.res, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTaskTimeout, timeout)
		}
		return nil, ctx.Err()
	}
}

// call runs the handler and turns a panic into an error.
func (e *Executor) call(ctx context.Context, t task.Task, d provider.Descriptor) (res handlers.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return e.handlers.Handle(ctx, t, d)
}

func (e *Executor) fail(ctx context.Context, span trace.Span, out *Outcome, kind ErrorKind, err error) {
	out.Err = &TaskError{
		TaskID:   out.Task.ID,
		Category: out.Task.Category,
		Provider: out.Provider,
		Kind:     kind,
		Err:      err,
	}
	out.transition(StateFailed)

	if span != nil {
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, kind.String())
	}
	e.logger.Warn(ctx, "Task failed",
		zap.String("kind", kind.String()),
		zap.Error(err))
}
