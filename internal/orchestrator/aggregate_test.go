package orchestrator

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/designorch/internal/handlers"
	"github.com/fyrsmithlabs/designorch/internal/task"
)

func succeeded(t task.Task, provider string, res handlers.Result) *Outcome {
	out := newOutcome(t)
	out.Provider = provider
	out.Result = res
	out.transition(StateAdmitted)
	out.transition(StateExecuting)
	out.transition(StateSucceeded)
	return out
}

func failed(t task.Task, kind ErrorKind) *Outcome {
	out := newOutcome(t)
	out.Err = &TaskError{TaskID: t.ID, Category: t.Category, Kind: kind, Err: errors.New("nope")}
	out.transition(StateFailed)
	return out
}

func newTask(c task.Category) task.Task {
	return task.Task{ID: task.NewID(c), Category: c}
}

func TestAggregate_ZeroSuccessConfidenceIsZero(t *testing.T) {
	tasks := []task.Task{newTask(task.Documentation), newTask(task.Reasoning)}
	outcomes := map[string]*Outcome{
		tasks[0].ID: failed(tasks[0], KindNoProviderAvailable),
		tasks[1].ID: failed(tasks[1], KindRateLimitExceeded),
	}

	agg := aggregateOutcomes(tasks, outcomes)

	assert.Equal(t, 0.0, agg.confidence)
	assert.False(t, math.IsNaN(agg.confidence))
	assert.Equal(t, 0, agg.results.Len())
	assert.Empty(t, agg.models)
	assert.NotNil(t, agg.models)
	assert.Len(t, agg.failed, 2)
	assert.Len(t, agg.warnings, 2)
	assert.Equal(t, StateFailed, agg.states[tasks[0].ID])
}

func TestAggregate_NoTasks(t *testing.T) {
	agg := aggregateOutcomes(nil, nil)
	assert.Equal(t, 0.0, agg.confidence)
	assert.Equal(t, 0, agg.succeeded)
}

func TestAggregate_MeanConfidenceAndModels(t *testing.T) {
	tasks := []task.Task{newTask(task.Documentation), newTask(task.CodeGeneration), newTask(task.Optimization)}
	outcomes := map[string]*Outcome{
		tasks[0].ID: succeeded(tasks[0], "claude", &handlers.DocumentationResult{Meta: handlers.Meta{Model: "claude-3", Confidence: 0.9}}),
		tasks[1].ID: succeeded(tasks[1], "gpt-4", &handlers.CodeResult{Meta: handlers.Meta{Model: "gpt-4", Confidence: 0.6}}),
		tasks[2].ID: failed(tasks[2], KindHandlerFailure),
	}

	agg := aggregateOutcomes(tasks, outcomes)

	assert.InDelta(t, 0.75, agg.confidence, 1e-9)
	assert.Equal(t, 2, agg.succeeded)
	assert.Equal(t, []string{"claude-3", "gpt-4"}, agg.models)
	require.NotNil(t, agg.results.Documentation)
	require.NotNil(t, agg.results.Code)
	assert.Nil(t, agg.results.Optimization)
	assert.Contains(t, agg.failed, tasks[2].ID)
}

func TestAggregate_DistinctModels(t *testing.T) {
	tasks := []task.Task{newTask(task.Documentation), newTask(task.Reasoning)}
	outcomes := map[string]*Outcome{
		tasks[0].ID: succeeded(tasks[0], "claude", &handlers.DocumentationResult{Meta: handlers.Meta{Model: "claude-3", Confidence: 1}}),
		tasks[1].ID: succeeded(tasks[1], "claude", &handlers.ReasoningResult{Meta: handlers.Meta{Model: "claude-3", Confidence: 1}}),
	}

	agg := aggregateOutcomes(tasks, outcomes)
	assert.Equal(t, []string{"claude-3"}, agg.models)
}

func TestAggregate_LastWriteWinsInSubmissionOrder(t *testing.T) {
	first, second := newTask(task.Documentation), newTask(task.Documentation)
	outcomes := map[string]*Outcome{
		first.ID:  succeeded(first, "claude", &handlers.DocumentationResult{Title: "first"}),
		second.ID: succeeded(second, "gemini", &handlers.DocumentationResult{Title: "second"}),
	}

	agg := aggregateOutcomes([]task.Task{first, second}, outcomes)

	require.NotNil(t, agg.results.Documentation)
	assert.Equal(t, "second", agg.results.Documentation.Title)
	assert.Equal(t, 2, agg.succeeded)
}

func TestAggregate_DegradedAddsWarning(t *testing.T) {
	tk := newTask(task.Reasoning)
	out := succeeded(tk, "local", &handlers.ReasoningResult{Meta: handlers.Meta{Model: "llama", Confidence: 0.5}})
	out.Degraded = true

	agg := aggregateOutcomes([]task.Task{tk}, map[string]*Outcome{tk.ID: out})

	require.Len(t, agg.warnings, 1)
	assert.Contains(t, agg.warnings[0], "does not declare reasoning capability")
	assert.NotNil(t, agg.results.Reasoning)
}

func TestAggregate_MismatchedPrefixIsNotClassified(t *testing.T) {
	tk := newTask(task.Documentation)
	out := succeeded(tk, "claude", &handlers.CodeResult{})

	agg := aggregateOutcomes([]task.Task{tk}, map[string]*Outcome{tk.ID: out})

	assert.Equal(t, 0, agg.results.Len())
	assert.Equal(t, 0, agg.succeeded)
	require.Len(t, agg.warnings, 1)
	assert.Contains(t, agg.warnings[0], "could not be classified")
}

func TestAggregate_MissingOutcome(t *testing.T) {
	tk := newTask(task.Optimization)
	agg := aggregateOutcomes([]task.Task{tk}, map[string]*Outcome{})

	assert.Equal(t, StateFailed, agg.states[tk.ID])
	assert.Contains(t, agg.failed, tk.ID)
}

func TestAggregate_NonTerminalOutcomeFails(t *testing.T) {
	tk := newTask(task.Reasoning)
	out := newOutcome(tk)
	out.transition(StateAdmitted)
	out.transition(StateExecuting)
	require.False(t, out.State.Terminal())

	agg := aggregateOutcomes([]task.Task{tk}, map[string]*Outcome{tk.ID: out})

	assert.Equal(t, StateFailed, agg.states[tk.ID])
	assert.Contains(t, agg.failed[tk.ID], "executing")
	assert.Equal(t, 0, agg.succeeded)
}

func TestTaskState_Terminal(t *testing.T) {
	assert.True(t, StateSucceeded.Terminal())
	assert.True(t, StateFailed.Terminal())
	for _, s := range []TaskState{StateCreated, StateAdmitted, StateRejected, StateExecuting} {
		assert.False(t, s.Terminal(), s)
	}
}

func TestResults_GetAndLen(t *testing.T) {
	var r Results
	assert.Equal(t, 0, r.Len())
	assert.Nil(t, r.Get(task.Documentation))

	r.put(&handlers.OptimizationResult{})
	assert.Equal(t, 1, r.Len())
	assert.NotNil(t, r.Get(task.Optimization))
	assert.Nil(t, r.Get(task.CodeGeneration))
}
