package orchestrator

import (
	"fmt"
	"slices"

	"github.com/fyrsmithlabs/designorch/internal/task"
)

type aggregate struct {
	results    Results
	models     []string
	succeeded  int
	confidence float64
	failed     map[string]string
	states     map[string]TaskState
	warnings   []string
}

// aggregateOutcomes folds outcomes into per-category results.
//
// Tasks are visited in submission order so that when several tasks share a
// category the last submitted one wins regardless of completion order.
// Classification uses the ID prefix. Confidence is the mean over successful
// tasks and exactly 0 when none succeeded.
func aggregateOutcomes(tasks []task.Task, outcomes map[string]*Outcome) aggregate {
	agg := aggregate{
		models: []string{},
		failed: make(map[string]string),
		states: make(map[string]TaskState, len(tasks)),
	}

	var confidenceSum float64
	for _, t := range tasks {
		out, ok := outcomes[t.ID]
		if !ok {
			agg.failed[t.ID] = "task produced no outcome"
			agg.states[t.ID] = StateFailed
			agg.warnings = append(agg.warnings, fmt.Sprintf("task %s produced no outcome", t.ID))
			continue
		}
		if !out.State.Terminal() {
			agg.failed[t.ID] = fmt.Sprintf("task stopped in state %s", out.State)
			agg.states[t.ID] = StateFailed
			agg.warnings = append(agg.warnings, fmt.Sprintf("task %s stopped in state %s", t.ID, out.State))
			continue
		}
		agg.states[t.ID] = out.State

		if out.Err != nil {
			agg.failed[t.ID] = out.Err.Error()
			agg.warnings = append(agg.warnings, out.Err.Error())
			continue
		}
		if !out.Succeeded() {
			continue
		}

		category, ok := task.CategoryFromID(t.ID)
		if !ok || category != out.Result.Category() {
			agg.warnings = append(agg.warnings, fmt.Sprintf("task %s result could not be classified", t.ID))
			continue
		}

		meta := out.Result.Metadata()
		agg.results.put(out.Result)
		agg.succeeded++
		confidenceSum += meta.Confidence
		if !slices.Contains(agg.models, meta.Model) {
			agg.models = append(agg.models, meta.Model)
		}
		if out.Degraded {
			agg.warnings = append(agg.warnings, fmt.Sprintf(
				"task %s was routed to %s which does not declare %s capability",
				t.ID, out.Provider, category))
		}
	}

	slices.Sort(agg.models)
	if agg.succeeded > 0 {
		agg.confidence = confidenceSum / float64(agg.succeeded)
	}
	return agg
}
