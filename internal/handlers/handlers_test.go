package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/designorch/internal/provider"
	"github.com/fyrsmithlabs/designorch/internal/task"
)

var claude = provider.Descriptor{Name: "claude", Model: "claude-3-opus", Available: true}

func buildTask(t *testing.T, c task.Category, design task.Design) task.Task {
	t.Helper()
	req := task.Requirements{
		Documentation: c == task.Documentation,
		Code:          c == task.CodeGeneration,
		Reasoning:     c == task.Reasoning,
		Optimization:  c == task.Optimization,
	}
	tasks, err := task.Build(design, req, task.Options{TargetFramework: "vue"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	return tasks[0]
}

func TestSet_HandleDispatchesByCategory(t *testing.T) {
	set := NewSimulatedSet(NewSimulated(0))
	design := task.Design{"name": "Checkout", "header": map[string]any{}, "footer": nil}

	for _, c := range task.AllCategories() {
		t.Run(c.String(), func(t *testing.T) {
			res, err := set.Handle(context.Background(), buildTask(t, c, design), claude)
			require.NoError(t, err)
			assert.Equal(t, c, res.Category())
			assert.Equal(t, "claude", res.Metadata().Provider)
			assert.Equal(t, "claude-3-opus", res.Metadata().Model)
			assert.Greater(t, res.Metadata().Confidence, 0.0)
		})
	}
}

func TestSet_HandleMissingHandler(t *testing.T) {
	var set Set
	_, err := set.Handle(context.Background(), buildTask(t, task.Reasoning, nil), claude)
	assert.ErrorIs(t, err, ErrMissingHandler)
}

func TestSet_HandleUnknownCategory(t *testing.T) {
	set := NewSimulatedSet(NewSimulated(0))
	_, err := set.Handle(context.Background(), task.Task{ID: "x", Category: task.Category(99)}, claude)
	assert.ErrorIs(t, err, task.ErrUnknownCategory)
}

func TestSet_HandlePropagatesHandlerError(t *testing.T) {
	boom := errors.New("boom")
	set := Set{
		Code: CodeFunc(func(context.Context, task.Task, provider.Descriptor) (*CodeResult, error) {
			return nil, boom
		}),
	}
	_, err := set.Handle(context.Background(), buildTask(t, task.CodeGeneration, nil), claude)
	assert.ErrorIs(t, err, boom)
}

func TestSet_HandleNilResultIsFailure(t *testing.T) {
	set := Set{
		Optimization: OptimizationFunc(func(context.Context, task.Task, provider.Descriptor) (*OptimizationResult, error) {
			return nil, nil
		}),
	}
	res, err := set.Handle(context.Background(), buildTask(t, task.Optimization, nil), claude)
	assert.Error(t, err)
	assert.Nil(t, res)
}

func TestSet_WithDefaults(t *testing.T) {
	custom := DocumentationFunc(func(context.Context, task.Task, provider.Descriptor) (*DocumentationResult, error) {
		return &DocumentationResult{Title: "custom"}, nil
	})
	set := Set{Documentation: custom}.WithDefaults(NewSimulatedSet(NewSimulated(0)))

	assert.NotNil(t, set.Code)
	assert.NotNil(t, set.Reasoning)
	assert.NotNil(t, set.Optimization)

	res, err := set.Handle(context.Background(), buildTask(t, task.Documentation, nil), claude)
	require.NoError(t, err)
	assert.Equal(t, "custom", res.(*DocumentationResult).Title)
}

func TestSimulated_DeterministicOutput(t *testing.T) {
	s := NewSimulated(0)
	design := task.Design{"title": "Landing", "hero": 1, "cta": 2}

	doc, err := s.Document(context.Background(), buildTask(t, task.Documentation, design), claude)
	require.NoError(t, err)
	assert.Equal(t, "Landing", doc.Title)
	assert.Equal(t, []string{"Overview", "Cta", "Hero", "Title"}, doc.Sections)
	assert.Equal(t, SimulatedDocumentationConfidence, doc.Confidence)

	code, err := s.Generate(context.Background(), buildTask(t, task.CodeGeneration, design), claude)
	require.NoError(t, err)
	assert.Equal(t, "vue", code.Framework)
	require.Len(t, code.Files, 4)
	assert.Equal(t, "index.vue", code.Files[0].Path)
	assert.Equal(t, "components/cta.vue", code.Files[1].Path)
}

func TestSimulated_ModelFallsBackToProviderName(t *testing.T) {
	s := NewSimulated(0)
	res, err := s.Reason(context.Background(), buildTask(t, task.Reasoning, nil), provider.Descriptor{Name: "local"})
	require.NoError(t, err)
	assert.Equal(t, "local", res.Model)
	assert.Equal(t, []string{"Provide a design with at least one section"}, res.Recommendations)
}

func TestSimulated_LatencyHonoursContext(t *testing.T) {
	s := NewSimulated(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.Optimize(ctx, buildTask(t, task.Optimization, nil), claude)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSimulated_OptimizeLargeDesign(t *testing.T) {
	design := task.Design{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5, "f": 6}
	res, err := NewSimulated(0).Optimize(context.Background(), buildTask(t, task.Optimization, design), claude)
	require.NoError(t, err)
	require.Len(t, res.Suggestions, 2)
	assert.Equal(t, "high", res.Suggestions[1].Impact)
}
