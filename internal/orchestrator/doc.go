// Package orchestrator fans a design out to category providers and merges
// their results.
//
// # Overview
//
// A call to Orchestrator.ProcessDesignSpec flows through:
//
//	Requirements → task.Build → Executor → outcomes → aggregate → Result
//
// The Executor runs each task through provider selection, a rate limit
// admission check, the category handler and finally records the admission
// against the provider's budget. Parallel runs are bounded by a gate.Gate;
// sequential runs execute in list order.
//
// # Failure handling
//
// Per-task failures never abort sibling tasks. Each is captured as a
// *TaskError with one of these kinds:
//   - KindNoProviderAvailable: selection found nothing usable
//   - KindRateLimitExceeded: the provider's admission check failed
//   - KindHandlerFailure: the handler returned an error or panicked
//   - KindCancelled: the caller's context ended before the task started
//
// Failed tasks show up in Result.Warnings and Result.Metadata.FailedTasks.
// Only run-level problems such as invalid options produce
// ErrOrchestrationFailure, which yields Success false and empty results.
// ProcessDesignSpec always returns a Result, never an error.
//
// # Task lifecycle
//
//	created → admitted | rejected → executing → succeeded | failed
//
// Rejected tasks end in failed. There are no retries.
//
// # Timeouts
//
// Tasks carry a timeout constraint which is informational by default.
// WithTimeoutEnforcement(true) bounds each handler call by it; a handler
// that overruns fails with ErrTaskTimeout while its goroutine is left to
// observe the cancelled context.
//
// # Rate limit accounting
//
// Admission is checked before the handler runs and recorded after it
// succeeds, using EstimatedRequestCost for both. Tasks running in parallel
// against the same provider may therefore all pass the check before any of
// them records, overshooting the window budget by up to the gate capacity.
package orchestrator
