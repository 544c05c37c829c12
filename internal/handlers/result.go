package handlers

import (
	"github.com/fyrsmithlabs/designorch/internal/config"
	"github.com/fyrsmithlabs/designorch/internal/task"
)

// Meta is carried by every category result.
type Meta struct {
	Provider       string          `json:"provider"`
	Model          string          `json:"model"`
	ProcessingTime config.Duration `json:"processing_time"`
	Confidence     float64         `json:"confidence"`

	// Degraded marks results produced by a provider that does not declare
	// the task's category as a capability.
	Degraded bool `json:"degraded,omitempty"`
}

// Metadata returns the result's shared metadata block.
func (m *Meta) Metadata() *Meta {
	return m
}

// Result is the closed set of per-category results. Only the four result
// types in this package implement it.
type Result interface {
	Category() task.Category
	Metadata() *Meta
	isResult()
}

// DocumentationResult is the output of a documentation task.
type DocumentationResult struct {
	Meta
	Title    string   `json:"title"`
	Sections []string `json:"sections"`
	Summary  string   `json:"summary"`
}

// GeneratedFile is one file proposed by a code-generation task.
type GeneratedFile struct {
	Path     string `json:"path"`
	Language string `json:"language"`
}

// CodeResult is the output of a code-generation task.
type CodeResult struct {
	Meta
	Framework string          `json:"framework"`
	Files     []GeneratedFile `json:"files"`
}

// ReasoningResult is the output of a reasoning task.
type ReasoningResult struct {
	Meta
	Findings        []string `json:"findings"`
	Recommendations []string `json:"recommendations"`
}

// Suggestion is one optimization proposal.
type Suggestion struct {
	Area   string `json:"area"`
	Detail string `json:"detail"`
	Impact string `json:"impact"`
}

// OptimizationResult is the output of an optimization task.
type OptimizationResult struct {
	Meta
	Suggestions []Suggestion `json:"suggestions"`
}

func (*DocumentationResult) Category() task.Category { return task.Documentation }
func (*CodeResult) Category() task.Category          { return task.CodeGeneration }
func (*ReasoningResult) Category() task.Category     { return task.Reasoning }
func (*OptimizationResult) Category() task.Category  { return task.Optimization }

func (*DocumentationResult) isResult() {}
func (*CodeResult) isResult()          {}
func (*ReasoningResult) isResult()     {}
func (*OptimizationResult) isResult()  {}
