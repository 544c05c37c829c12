package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/designorch/internal/config"
	"github.com/fyrsmithlabs/designorch/internal/gate"
	"github.com/fyrsmithlabs/designorch/internal/handlers"
	"github.com/fyrsmithlabs/designorch/internal/logging"
	"github.com/fyrsmithlabs/designorch/internal/provider"
	"github.com/fyrsmithlabs/designorch/internal/task"
)

// Orchestrator is the entry point for design processing. Each instance owns
// its registry and limiters; there is no shared process-wide instance.
type Orchestrator struct {
	registry      *provider.Registry
	executor      *Executor
	logger        *logging.Logger
	metrics       *Metrics
	maxConcurrent int
}

type options struct {
	logger          *logging.Logger
	metrics         *Metrics
	registry        *provider.Registry
	handlers        handlers.Set
	providers       []provider.Descriptor
	enforceTimeouts bool
	maxConcurrent   int
	estimatedCost   int
}

// Option configures an Orchestrator.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithRegistry uses an existing provider registry.
func WithRegistry(r *provider.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithHandlers overrides category handlers. Categories left nil fall back
// to the simulated handlers.
func WithHandlers(s handlers.Set) Option {
	return func(o *options) { o.handlers = s }
}

// WithProviders registers providers at construction.
func WithProviders(descriptors ...provider.Descriptor) Option {
	return func(o *options) { o.providers = append(o.providers, descriptors...) }
}

// WithTimeoutEnforcement bounds each handler call by its task's timeout.
func WithTimeoutEnforcement(enabled bool) Option {
	return func(o *options) { o.enforceTimeouts = enabled }
}

// WithDefaultMaxConcurrent sets the gate capacity used when a request does
// not specify one.
func WithDefaultMaxConcurrent(n int) Option {
	return func(o *options) { o.maxConcurrent = n }
}

// WithEstimatedCost overrides the per-request cost used for admission.
func WithEstimatedCost(cost int) Option {
	return func(o *options) { o.estimatedCost = cost }
}

// New creates an orchestrator.
func New(opts ...Option) (*Orchestrator, error) {
	o := options{maxConcurrent: gate.DefaultCapacity}
	for _, opt := range opts {
		opt(&o)
	}

	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.registry == nil {
		o.registry = provider.NewRegistry()
	}
	if o.maxConcurrent <= 0 {
		o.maxConcurrent = gate.DefaultCapacity
	}
	set := o.handlers.WithDefaults(handlers.NewSimulatedSet(handlers.NewSimulated(0)))

	for _, d := range o.providers {
		if err := o.registry.Register(d); err != nil {
			return nil, fmt.Errorf("registering provider %q: %w", d.Name, err)
		}
	}

	exec := NewExecutor(o.registry, set, o.logger.Named("executor"), o.metrics)
	exec.enforceTimeouts = o.enforceTimeouts
	if o.estimatedCost > 0 {
		exec.estimatedCost = o.estimatedCost
	}

	return &Orchestrator{
		registry:      o.registry,
		executor:      exec,
		logger:        o.logger,
		metrics:       o.metrics,
		maxConcurrent: o.maxConcurrent,
	}, nil
}

// Registry returns the provider registry.
func (o *Orchestrator) Registry() *provider.Registry {
	return o.registry
}

// RegisterProvider adds or replaces a provider and resets its rate limiter.
func (o *Orchestrator) RegisterProvider(d provider.Descriptor) error {
	if err := o.registry.Register(d); err != nil {
		return err
	}
	o.logger.Info(context.Background(), "Provider registered",
		zap.String("provider", d.Name),
		zap.Bool("available", d.Available),
		zap.Strings("capabilities", d.Capabilities))
	return nil
}

// ProviderStatus reports every provider with an availability label.
func (o *Orchestrator) ProviderStatus() map[string]provider.Status {
	return o.registry.Status()
}

// TestProviderConnections probes every provider.
func (o *Orchestrator) TestProviderConnections(ctx context.Context) map[string]bool {
	return o.registry.TestConnections(ctx)
}

// ProcessDesignSpec derives tasks from req, executes them and aggregates
// the results. It never returns nil and never panics; run-level failures
// are reported through Result.Success and Result.Errors.
func (o *Orchestrator) ProcessDesignSpec(ctx context.Context, design task.Design, req task.Requirements, opts task.Options) (result *Result) {
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	ctx, span := tracer.Start(ctx, "orchestrator.process_design_spec", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.Int("requirements.count", req.Count()),
	))
	defer span.End()

	start := time.Now()
	result = newResult(runID)

	defer func() {
		if r := recover(); r != nil {
			o.failRun(ctx, span, result, fmt.Errorf("panic: %v", r))
		}
		result.Metadata.TotalTime = config.Duration(time.Since(start))
		o.metrics.recordRun(result.Success)
		o.logger.Info(ctx, "Run finished",
			zap.Bool("success", result.Success),
			zap.Int("tasks", result.Metadata.TaskCount),
			zap.Int("succeeded", result.Metadata.Succeeded),
			zap.Duration("duration", result.Metadata.TotalTime.Duration()))
	}()

	tasks, err := task.Build(design, req, opts)
	if err != nil {
		o.failRun(ctx, span, result, err)
		return result
	}
	mode, _ := opts.ResolvedMode()

	o.logger.Info(ctx, "Run started",
		zap.Int("tasks", len(tasks)),
		zap.String("mode", string(mode)))

	var outcomes map[string]*Outcome
	switch mode {
	case task.ModeSequential:
		outcomes = o.executor.RunSequential(ctx, tasks)
	default:
		maxConcurrent := opts.MaxConcurrent
		if maxConcurrent == 0 {
			maxConcurrent = o.maxConcurrent
		}
		outcomes = o.executor.RunParallel(ctx, tasks, maxConcurrent)
	}

	agg := aggregateOutcomes(tasks, outcomes)

	result.Success = true
	result.Results = agg.results
	result.Warnings = append(result.Warnings, agg.warnings...)
	result.Metadata.ModelsUsed = agg.models
	result.Metadata.TaskCount = len(tasks)
	result.Metadata.Succeeded = agg.succeeded
	result.Metadata.Confidence = agg.confidence
	result.Metadata.FailedTasks = agg.failed
	result.Metadata.TaskStates = agg.states

	span.SetAttributes(
		attribute.Int("tasks.succeeded", agg.succeeded),
		attribute.Float64("confidence", agg.confidence),
	)
	return result
}

func (o *Orchestrator) failRun(ctx context.Context, span trace.Span, result *Result, err error) {
	wrapped := fmt.Errorf("%w: %w", ErrOrchestrationFailure, err)

	result.Success = false
	result.Results = Results{}
	result.Metadata.ModelsUsed = []string{}
	result.Metadata.Confidence = 0
	result.Errors = []string{wrapped.Error()}

	span.RecordError(wrapped)
	span.SetStatus(codes.Error, "orchestration failed")
	o.logger.Error(ctx, "Run failed", zap.Error(wrapped))
}
