// Package tokencount provides the pipeline's token-counting capability: an
// accurate counter when a provider-backed Tokenizer is available, and a
// 4-chars-per-token heuristic fallback otherwise. Ported from the teacher's
// internal/llm/tokenizer.go, generalized away from a single-provider
// TokenizableProvider coupling.
package tokencount

import "context"

// Tokenizer counts tokens for a specific model/provider combination.
type Tokenizer interface {
	CountTokens(ctx context.Context, text string) (int, error)
}

// Estimate returns a heuristic token count (~4 characters per token), used
// whenever no accurate Tokenizer is configured or the accurate one errors.
func Estimate(s string) int {
	if s == "" {
		return 0
	}
	return len([]rune(s))/4 + 1
}

// Counter wraps an optional accurate Tokenizer with the heuristic fallback,
// matching original_source's context_builder._count_tokens / _limit_by_tokens
// "try accurate, fall back to len/4" contract.
type Counter struct {
	Tokenizer Tokenizer
}

// Count returns the token count for text, preferring the accurate tokenizer
// and falling back to the heuristic on a nil tokenizer or any error.
func (c Counter) Count(ctx context.Context, text string) int {
	if c.Tokenizer != nil {
		if n, err := c.Tokenizer.CountTokens(ctx, text); err == nil {
			return n
		}
	}
	return Estimate(text)
}

// LimitByTokens trims text to approximately fit within maxTokens, counting
// with Count and falling back to a proportional character slice when the
// exact boundary can't be computed cheaply.
func (c Counter) LimitByTokens(ctx context.Context, text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}
	tokens := c.Count(ctx, text)
	if tokens <= maxTokens {
		return text
	}
	ratio := float64(maxTokens) / float64(max(tokens, 1))
	if ratio < 0.05 {
		ratio = 0.05
	}
	estLen := int(float64(len(text)) * ratio)
	if estLen < 1 {
		estLen = 1
	}
	if estLen > len(text) {
		estLen = len(text)
	}
	return text[:estLen]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
