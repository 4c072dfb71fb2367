package analyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelligencedev/transcriptlens/internal/jobtypes"
	"github.com/intelligencedev/transcriptlens/internal/llmcap"
)

type stubCapability struct {
	text  string
	usage jobtypes.TokenUsage
	err   error
}

func (s stubCapability) Complete(ctx context.Context, prompt, system string, opts llmcap.CompletionOptions) (string, jobtypes.TokenUsage, error) {
	return s.text, s.usage, s.err
}

func TestRun_Success(t *testing.T) {
	spec := NewSpec("say_means", StageA, "stage_a/say_means", "Transcript:\n{{.transcript}}", "gpt-4o-mini", 0.2, 500)
	llm := stubCapability{text: "- Ship it [[Deadline]]", usage: jobtypes.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}}

	rec := Run(context.Background(), llm, Task{Spec: spec, Variables: map[string]any{"transcript": "Speaker 1: Ship it."}})

	require.Equal(t, jobtypes.AnalyzerCompleted, rec.Status)
	assert.Equal(t, "say_means", rec.Slug)
	assert.Equal(t, 15, rec.TokenUsage.TotalTokens)
	require.Len(t, rec.Insights, 1)
	assert.Equal(t, "Ship it [[Deadline]]", rec.Insights[0].Text)
	require.Len(t, rec.Concepts, 1)
	assert.Equal(t, "Deadline", rec.Concepts[0].Name)
}

func TestRun_MissingVariableIsTerminalError(t *testing.T) {
	spec := NewSpec("say_means", StageA, "stage_a/say_means", "Transcript:\n{{.transcript}}", "gpt-4o-mini", 0.2, 500)
	rec := Run(context.Background(), stubCapability{}, Task{Spec: spec, Variables: map[string]any{}})
	assert.Equal(t, jobtypes.AnalyzerError, rec.Status)
	assert.NotEmpty(t, rec.ErrorMessage)
}

func TestRun_LLMFailureIsTerminalError(t *testing.T) {
	spec := NewSpec("say_means", StageA, "stage_a/say_means", "{{.transcript}}", "gpt-4o-mini", 0.2, 500)
	llm := stubCapability{err: errors.New("rate limited")}
	rec := Run(context.Background(), llm, Task{Spec: spec, Variables: map[string]any{"transcript": "hi"}})
	assert.Equal(t, jobtypes.AnalyzerError, rec.Status)
	assert.Contains(t, rec.ErrorMessage, "rate limited")
}
