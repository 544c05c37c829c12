package handlers

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/fyrsmithlabs/designorch/internal/provider"
	"github.com/fyrsmithlabs/designorch/internal/task"
)

// Confidence scores reported by the simulated handlers.
const (
	SimulatedDocumentationConfidence = 0.85
	SimulatedCodeConfidence          = 0.80
	SimulatedReasoningConfidence     = 0.75
	SimulatedOptimizationConfidence  = 0.70
)

const defaultFramework = "react"

// Simulated produces deterministic results derived from the design's
// top-level keys after an artificial provider latency.
type Simulated struct {
	Latency time.Duration
}

// NewSimulated creates a simulated handler with the given latency.
func NewSimulated(latency time.Duration) *Simulated {
	return &Simulated{Latency: latency}
}

// wait sleeps for the configured latency or until ctx is done.
func (s *Simulated) wait(ctx context.Context) error {
	if s.Latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.Latency)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func meta(p provider.Descriptor, confidence float64) Meta {
	return Meta{
		Provider:   p.Name,
		Model:      p.ModelName(),
		Confidence: confidence,
	}
}

func designTitle(t task.Task) string {
	if name := t.Design.Name(); name != "" {
		return name
	}
	return "Untitled design"
}

// designKeys returns the design's top-level keys in sorted order.
func designKeys(d task.Design) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Document implements DocumentationHandler.
func (s *Simulated) Document(ctx context.Context, t task.Task, p provider.Descriptor) (*DocumentationResult, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	keys := designKeys(t.Design)
	sections := []string{"Overview"}
	for _, k := range keys {
		if k == "" {
			continue
		}
		sections = append(sections, strings.ToUpper(k[:1])+k[1:])
	}

	return &DocumentationResult{
		Meta:     meta(p, SimulatedDocumentationConfidence),
		Title:    designTitle(t),
		Sections: sections,
		Summary:  fmt.Sprintf("%s describes %d top-level elements", designTitle(t), len(keys)),
	}, nil
}

// Generate implements CodeHandler.
func (s *Simulated) Generate(ctx context.Context, t task.Task, p provider.Descriptor) (*CodeResult, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	framework := t.Param(task.ParamFramework)
	if framework == "" {
		framework = defaultFramework
	}
	lang, ext := languageFor(framework)

	files := make([]GeneratedFile, 0, len(t.Design)+1)
	files = append(files, GeneratedFile{Path: "index." + ext, Language: lang})
	for _, k := range designKeys(t.Design) {
		files = append(files, GeneratedFile{Path: "components/" + k + "." + ext, Language: lang})
	}

	return &CodeResult{
		Meta:      meta(p, SimulatedCodeConfidence),
		Framework: framework,
		Files:     files,
	}, nil
}

// Reason implements ReasoningHandler.
func (s *Simulated) Reason(ctx context.Context, t task.Task, p provider.Descriptor) (*ReasoningResult, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	keys := designKeys(t.Design)
	findings := make([]string, 0, len(keys))
	for _, k := range keys {
		findings = append(findings, fmt.Sprintf("%s is defined at the top level", k))
	}

	recs := []string{"Keep component boundaries aligned with design sections"}
	if len(keys) == 0 {
		recs = []string{"Provide a design with at least one section"}
	}

	return &ReasoningResult{
		Meta:            meta(p, SimulatedReasoningConfidence),
		Findings:        findings,
		Recommendations: recs,
	}, nil
}

// Optimize implements OptimizationHandler.
func (s *Simulated) Optimize(ctx context.Context, t task.Task, p provider.Descriptor) (*OptimizationResult, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	suggestions := []Suggestion{
		{Area: "performance", Detail: "Lazy-load components below the fold", Impact: "medium"},
	}
	if len(t.Design) > 5 {
		suggestions = append(suggestions, Suggestion{
			Area:   "structure",
			Detail: fmt.Sprintf("Split %d top-level sections into smaller modules", len(t.Design)),
			Impact: "high",
		})
	}

	return &OptimizationResult{
		Meta:        meta(p, SimulatedOptimizationConfidence),
		Suggestions: suggestions,
	}, nil
}

func languageFor(framework string) (lang, ext string) {
	switch strings.ToLower(framework) {
	case "react", "next", "nextjs":
		return "typescript", "tsx"
	case "vue":
		return "vue", "vue"
	case "svelte":
		return "svelte", "svelte"
	case "flutter":
		return "dart", "dart"
	case "swiftui":
		return "swift", "swift"
	default:
		return "html", "html"
	}
}
