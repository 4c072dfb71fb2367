package contextasm

import (
	"context"
	"fmt"

	"github.com/intelligencedev/transcriptlens/internal/artifacts"
	"github.com/intelligencedev/transcriptlens/internal/llmcap"
	"github.com/intelligencedev/transcriptlens/internal/tokencount"
)

// SummarizeOptions configures a single Summarize call, mirroring
// original_source/src/utils/summarizer.py:summarize_text's keyword
// arguments.
type SummarizeOptions struct {
	Stage             string
	TargetTokens      int
	MapChunkTokens    int
	MapOverlapTokens  int
	SinglePassMaxTokens int
	MapModel          string
	ReduceModel       string
	JobID             string
	Writer            *artifacts.Writer // optional; nil disables chunk artifact persistence
}

// SummaryDebug mirrors summarize_text's debug dict: which mode ran and, for
// map-reduce mode, how many chunks were produced.
type SummaryDebug struct {
	Mode       string `json:"mode"`
	ChunkCount int    `json:"chunk_count,omitempty"`
}

const defaultSinglePassMaxTokens = 6000

// Summarize collapses text to approximately opts.TargetTokens, either in a
// single LLM pass (when it already fits under SinglePassMaxTokens) or via
// map-then-reduce over token-windowed chunks. On any LLM failure it falls
// back to a leading character slice, never erroring the caller — an exact
// behavioral port of summarize_text's try/except-wraps-everything shape.
func Summarize(ctx context.Context, llm llmcap.Capability, counter tokencount.Counter, text string, opts SummarizeOptions) (string, SummaryDebug) {
	singlePassMax := opts.SinglePassMaxTokens
	if singlePassMax <= 0 {
		singlePassMax = defaultSinglePassMaxTokens
	}
	mapChunkTokens := opts.MapChunkTokens
	if mapChunkTokens <= 0 {
		mapChunkTokens = 2000
	}
	mapOverlapTokens := opts.MapOverlapTokens
	if mapOverlapTokens <= 0 {
		mapOverlapTokens = 200
	}

	totalTokens := counter.Count(ctx, text)

	if totalTokens <= singlePassMax {
		summary, _, err := llm.Complete(ctx, singlePassPrompt(opts.Stage, text), "", llmcap.CompletionOptions{
			Model:       opts.MapModel,
			Temperature: 0,
			MaxTokens:   max(512, opts.TargetTokens+200),
		})
		if err != nil {
			return fallback(text, opts.TargetTokens), SummaryDebug{Mode: "fallback"}
		}
		return summary, SummaryDebug{Mode: "single_pass"}
	}

	chunks := ChunkByTokens(text, mapChunkTokens, mapOverlapTokens)
	if len(chunks) == 0 {
		return fallback(text, opts.TargetTokens), SummaryDebug{Mode: "fallback"}
	}

	chunkTarget := max(200, opts.TargetTokens/2)
	mapped := make([]string, 0, len(chunks))
	for _, c := range chunks {
		summary, _, err := llm.Complete(ctx, mapPrompt(opts.Stage, c.Text), "", llmcap.CompletionOptions{
			Model:       opts.MapModel,
			Temperature: 0,
			MaxTokens:   max(256, chunkTarget+256),
		})
		if err != nil {
			return fallback(text, opts.TargetTokens), SummaryDebug{Mode: "fallback"}
		}
		if opts.Writer != nil {
			_ = opts.Writer.WriteSummaryChunk(ctx, opts.Stage, c.Index, summary)
		}
		mapped = append(mapped, summary)
	}

	combined := joinWithBlankLine(mapped)
	curTokens := counter.Count(ctx, combined)
	trimCeiling := opts.TargetTokens * 3
	if trimCeiling < 1200 {
		trimCeiling = 1200
	}
	if curTokens > trimCeiling {
		combined = counter.LimitByTokens(ctx, combined, trimCeiling)
	}

	reduced, _, err := llm.Complete(ctx, reducePrompt(opts.Stage, combined), "", llmcap.CompletionOptions{
		Model:       opts.ReduceModel,
		Temperature: 0,
		MaxTokens:   max(768, opts.TargetTokens+300),
	})
	if err != nil {
		return fallback(text, opts.TargetTokens), SummaryDebug{Mode: "fallback"}
	}
	return reduced, SummaryDebug{Mode: "map_reduce", ChunkCount: len(chunks)}
}

// fallback returns the leading slice of text sized to roughly
// max(500, targetTokens*4) characters, the degraded path summarize_text
// takes on any exception.
func fallback(text string, targetTokens int) string {
	n := targetTokens * 4
	if n < 500 {
		n = 500
	}
	if n > len(text) {
		n = len(text)
	}
	return text[:n]
}

func singlePassPrompt(stage, text string) string {
	return fmt.Sprintf("Summarize the following %s-stage context concisely, preserving concrete facts, names, and decisions:\n\n%s", stage, text)
}

func mapPrompt(stage, chunk string) string {
	return fmt.Sprintf("Summarize this excerpt from a %s-stage analysis in a few sentences, preserving concrete facts:\n\n%s", stage, chunk)
}

func reducePrompt(stage, combined string) string {
	return fmt.Sprintf("Combine these partial %s-stage summaries into one coherent summary, removing redundancy:\n\n%s", stage, combined)
}

func joinWithBlankLine(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "\n\n"
		}
		out += p
	}
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
