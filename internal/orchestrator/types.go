package orchestrator

import (
	"time"

	"github.com/fyrsmithlabs/designorch/internal/config"
	"github.com/fyrsmithlabs/designorch/internal/handlers"
	"github.com/fyrsmithlabs/designorch/internal/task"
)

// TaskState is a step in a task's lifecycle.
type TaskState string

const (
	StateCreated   TaskState = "created"
	StateAdmitted  TaskState = "admitted"
	StateRejected  TaskState = "rejected"
	StateExecuting TaskState = "executing"
	StateSucceeded TaskState = "succeeded"
	StateFailed    TaskState = "failed"
)

// Terminal reports whether no further transition can follow s.
func (s TaskState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Outcome is the terminal record of one executed task.
type Outcome struct {
	Task     task.Task
	Provider string
	Degraded bool
	Result   handlers.Result
	Err      *TaskError
	State    TaskState
	Trail    []TaskState
	Duration time.Duration
}

func newOutcome(t task.Task) *Outcome {
	return &Outcome{Task: t, State: StateCreated, Trail: []TaskState{StateCreated}}
}

func (o *Outcome) transition(s TaskState) {
	o.State = s
	o.Trail = append(o.Trail, s)
}

// Succeeded reports whether the task produced a result.
func (o *Outcome) Succeeded() bool {
	return o.State == StateSucceeded && o.Result != nil
}

// Results holds at most one result per category.
type Results struct {
	Documentation *handlers.DocumentationResult `json:"documentation,omitempty"`
	Code          *handlers.CodeResult          `json:"code,omitempty"`
	Reasoning     *handlers.ReasoningResult     `json:"reasoning,omitempty"`
	Optimization  *handlers.OptimizationResult  `json:"optimization,omitempty"`
}

// Get returns the stored result for a category, or nil.
func (r Results) Get(c task.Category) handlers.Result {
	switch c {
	case task.Documentation:
		if r.Documentation != nil {
			return r.Documentation
		}
	case task.CodeGeneration:
		if r.Code != nil {
			return r.Code
		}
	case task.Reasoning:
		if r.Reasoning != nil {
			return r.Reasoning
		}
	case task.Optimization:
		if r.Optimization != nil {
			return r.Optimization
		}
	}
	return nil
}

// Len returns how many categories are populated.
func (r Results) Len() int {
	n := 0
	for _, c := range task.AllCategories() {
		if r.Get(c) != nil {
			n++
		}
	}
	return n
}

// put stores res under its own category, replacing any earlier result.
func (r *Results) put(res handlers.Result) {
	switch v := res.(type) {
	case *handlers.DocumentationResult:
		r.Documentation = v
	case *handlers.CodeResult:
		r.Code = v
	case *handlers.ReasoningResult:
		r.Reasoning = v
	case *handlers.OptimizationResult:
		r.Optimization = v
	}
}

// Metadata summarizes a run.
type Metadata struct {
	TotalTime   config.Duration      `json:"total_time"`
	ModelsUsed  []string             `json:"models_used"`
	TaskCount   int                  `json:"task_count"`
	Succeeded   int                  `json:"succeeded"`
	Confidence  float64              `json:"confidence"`
	FailedTasks map[string]string    `json:"failed_tasks,omitempty"`
	TaskStates  map[string]TaskState `json:"task_states,omitempty"`
}

// Result is returned from every ProcessDesignSpec call.
type Result struct {
	RunID    string   `json:"run_id"`
	Success  bool     `json:"success"`
	Results  Results  `json:"results"`
	Metadata Metadata `json:"metadata"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func newResult(runID string) *Result {
	return &Result{
		RunID:    runID,
		Metadata: Metadata{ModelsUsed: []string{}},
		Errors:   []string{},
		Warnings: []string{},
	}
}
