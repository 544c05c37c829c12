package orchestrator

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/designorch/internal/task"
)

var (
	// ErrRateLimitExceeded is wrapped by rate limit rejections.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrHandlerPanic is wrapped when a handler panics.
	ErrHandlerPanic = errors.New("handler panicked")

	// ErrTaskTimeout is wrapped when timeout enforcement cuts a handler off.
	ErrTaskTimeout = errors.New("task timed out")

	// ErrOrchestrationFailure marks run-level failures.
	ErrOrchestrationFailure = errors.New("orchestration failed")
)

// ErrorKind classifies a per-task failure.
type ErrorKind uint8

const (
	KindNoProviderAvailable ErrorKind = iota + 1
	KindRateLimitExceeded
	KindHandlerFailure
	KindCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case KindNoProviderAvailable:
		return "no_provider_available"
	case KindRateLimitExceeded:
		return "rate_limit_exceeded"
	case KindHandlerFailure:
		return "handler_failure"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// TaskError records why a single task failed.
type TaskError struct {
	TaskID   string        `json:"task_id"`
	Category task.Category `json:"category"`
	Provider string        `json:"provider,omitempty"`
	Kind     ErrorKind     `json:"kind"`
	Err      error         `json:"-"`
}

func (e *TaskError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("task %s (%s) on %s: %s: %v", e.TaskID, e.Category, e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("task %s (%s): %s: %v", e.TaskID, e.Category, e.Kind, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a *TaskError anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var te *TaskError
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return 0, false
}
