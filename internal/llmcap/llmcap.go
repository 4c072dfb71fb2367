// Package llmcap implements the pipeline's single LLM capability:
// Complete(ctx, prompt, system, opts) -> (text, usage, error). It wraps
// multiple provider SDKs behind one narrow interface, the way the teacher's
// internal/llm package wraps OpenAI/Anthropic clients behind a common
// Provider abstraction (internal/llm/provider.go, internal/llm/openai_client.go).
package llmcap

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"github.com/intelligencedev/transcriptlens/internal/jobtypes"
)

// CompletionOptions configures a single Complete call.
type CompletionOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Capability is the narrow surface the context assembler, analyzer runner,
// and aggregator all call through.
type Capability interface {
	Complete(ctx context.Context, prompt string, system string, opts CompletionOptions) (text string, usage jobtypes.TokenUsage, err error)
}

// Provider is the per-backend implementation Capability dispatches to.
// Multiple SDKs (OpenAI, Anthropic) implement it; Router picks one by
// inspecting opts.Model, the same prefix-convention the teacher's
// isThinkingModel/openai_client.go dispatch uses.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt, system string, opts CompletionOptions) (string, jobtypes.TokenUsage, error)
}

// Router dispatches to a provider by model-name prefix, retries transient
// failures with exponential backoff, and optionally caches deterministic
// (temperature 0) completions.
type Router struct {
	Providers   []Provider
	Default     Provider
	Cache       *Cache
	MaxRetries  int
	RetryFloor  time.Duration
}

// NewRouter builds a Router. If def is nil and providers is empty, Complete
// always errors; that is a configuration mistake, not a degraded mode.
func NewRouter(def Provider, providers ...Provider) *Router {
	return &Router{Providers: providers, Default: def, MaxRetries: 3, RetryFloor: 250 * time.Millisecond}
}

func (r *Router) pick(model string) Provider {
	for _, p := range r.Providers {
		if strings.HasPrefix(strings.ToLower(model), strings.ToLower(p.Name())) {
			return p
		}
	}
	return r.Default
}

// Complete implements Capability, with retry-on-transient-error and an
// optional response cache for temperature==0 calls.
func (r *Router) Complete(ctx context.Context, prompt, system string, opts CompletionOptions) (string, jobtypes.TokenUsage, error) {
	if r.Default == nil && len(r.Providers) == 0 {
		return "", jobtypes.TokenUsage{}, errors.New("llmcap: no provider configured")
	}
	provider := r.pick(opts.Model)
	if provider == nil {
		return "", jobtypes.TokenUsage{}, errors.New("llmcap: no provider available for model " + opts.Model)
	}

	var cacheKey string
	if r.Cache != nil && opts.Temperature == 0 {
		cacheKey = cacheKeyFor(provider.Name(), prompt, system, opts)
		if text, usage, ok := r.Cache.Get(cacheKey); ok {
			return text, usage, nil
		}
	}

	var usage jobtypes.TokenUsage
	operation := func() (string, error) {
		text, u, err := provider.Complete(ctx, prompt, system, opts)
		if err != nil {
			if isTransient(err) {
				return "", err
			}
			return "", backoff.Permanent(err)
		}
		if cacheKey != "" {
			r.Cache.Set(cacheKey, text, u)
		}
		usage = u
		return text, nil
	}

	text, err := backoff.Retry(ctx, operation,
		backoff.WithMaxTries(uint(maxInt(r.MaxRetries, 1))),
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
	)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("model", opts.Model).Msg("llmcap: completion failed after retries")
		return "", jobtypes.TokenUsage{}, err
	}
	return text, usage, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// isTransient classifies an error as worth retrying, ported from the
// teacher's internal/orchestrator/handler.go isTransientError heuristic.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"timeout", "temporary", "transient", "retry", "too many requests", "rate limit", "connection reset", "eof"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
