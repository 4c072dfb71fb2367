// Package analyzer implements the Analyzer Runner: render a prompt template
// against the current AnalysisContext, invoke the LLM capability, normalize
// and parse its markdown output, extract insights/concepts, and hand back a
// populated jobtypes.AnalyzerRecord for the scheduler to persist. The
// render-then-invoke-then-persist task shape is ported from the teacher's
// internal/playground/worker/worker.go Worker.ExecuteTask.
package analyzer

import (
	"context"
	"time"

	"github.com/intelligencedev/transcriptlens/internal/jobtypes"
	"github.com/intelligencedev/transcriptlens/internal/llmcap"
	"github.com/intelligencedev/transcriptlens/internal/pipelineerr"
	"github.com/intelligencedev/transcriptlens/internal/prompt"
)

// Stage is one of the three fixed pipeline phases an AnalyzerSpec runs in.
type Stage string

const (
	StageA     Stage = "stage_a"
	StageB     Stage = "stage_b"
	StageFinal Stage = "final"
)

// Spec declares one analyzer: its stage, prompt template, and optional
// model/temperature overrides. RequiredVariables is computed once at
// registration from the template body (see prompt.RequiredVariables).
type Spec struct {
	Slug                string
	Stage               Stage
	PromptName          string
	PromptTemplate      string
	Model               string
	Temperature         float64
	MaxTokens           int
	RequiredVariables   []string
}

// NewSpec builds a Spec and computes its RequiredVariables from the
// template body with a regex scan. NewSpec does not parse the template and
// cannot fail; a template that does not parse is reported only when it is
// rendered at run time.
func NewSpec(slug string, stage Stage, promptName, template string, model string, temperature float64, maxTokens int) Spec {
	return Spec{
		Slug:              slug,
		Stage:             stage,
		PromptName:        promptName,
		PromptTemplate:    template,
		Model:             model,
		Temperature:       temperature,
		MaxTokens:         maxTokens,
		RequiredVariables: prompt.RequiredVariables(template),
	}
}

// Task is one analyzer execution: a Spec bound to the variables its
// template needs (transcript text, combined prior-stage context, and so
// on), mirroring the teacher's playground/worker.Task shape.
type Task struct {
	Spec      Spec
	Variables map[string]any
}

// Run executes one analyzer task end to end. It never returns a nil record:
// on any failure the record's Status is AnalyzerError with ErrorMessage set,
// so the scheduler can persist a terminal record either way.
func Run(ctx context.Context, llm llmcap.Capability, task Task) jobtypes.AnalyzerRecord {
	start := time.Now()
	rec := jobtypes.AnalyzerRecord{Slug: task.Spec.Slug, Status: jobtypes.AnalyzerProcessing, PromptPath: task.Spec.PromptName}

	rendered, err := prompt.Render(task.Spec.PromptName, task.Spec.PromptTemplate, task.Variables)
	if err != nil {
		return errorRecord(rec, start, pipelineerr.Analyzer(task.Spec.Slug, "render prompt", err))
	}

	text, usage, err := llm.Complete(ctx, rendered, "", llmcap.CompletionOptions{
		Model:       task.Spec.Model,
		Temperature: task.Spec.Temperature,
		MaxTokens:   task.Spec.MaxTokens,
	})
	if err != nil {
		rec.TokenUsage = usage
		return errorRecord(rec, start, pipelineerr.Analyzer(task.Spec.Slug, "invoke llm", err))
	}

	normalized := NormalizeMarkdownTables(text)
	structured, _ := ParseStructured(normalized)

	rec.Status = jobtypes.AnalyzerCompleted
	rec.RawOutput = normalized
	rec.StructuredData = structured
	rec.Insights = ExtractInsights(task.Spec.Slug, normalized)
	rec.Concepts = ExtractConcepts(normalized)
	rec.ModelUsed = task.Spec.Model
	rec.TokenUsage = usage
	rec.ProcessingTimeSecs = time.Since(start).Seconds()
	return rec
}

func errorRecord(rec jobtypes.AnalyzerRecord, start time.Time, err error) jobtypes.AnalyzerRecord {
	rec.Status = jobtypes.AnalyzerError
	rec.ErrorMessage = err.Error()
	rec.ProcessingTimeSecs = time.Since(start).Seconds()
	return rec
}
