package llmcap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelligencedev/transcriptlens/internal/jobtypes"
)

func TestCache_SetThenGetRoundTrips(t *testing.T) {
	c := NewCache(10, time.Minute)
	c.Set("k", "hello", jobtypes.TokenUsage{TotalTokens: 5})

	text, usage, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "hello", text)
	assert.Equal(t, 5, usage.TotalTokens)
}

func TestCache_GetMissingKeyReturnsFalse(t *testing.T) {
	c := NewCache(10, time.Minute)
	_, _, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestCache_GetExpiredEntryReturnsFalse(t *testing.T) {
	c := NewCache(10, 2*time.Millisecond)
	c.Set("k", "hello", jobtypes.TokenUsage{})
	time.Sleep(20 * time.Millisecond)
	_, _, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_EvictsLeastRecentlyAccessedWhenAtCapacity(t *testing.T) {
	c := NewCache(2, time.Minute)
	c.Set("a", "1", jobtypes.TokenUsage{})
	time.Sleep(time.Millisecond)
	c.Set("b", "2", jobtypes.TokenUsage{})

	// touch "b" so "a" becomes the least-recently-accessed entry
	time.Sleep(time.Millisecond)
	_, _, _ = c.Get("b")

	c.Set("c", "3", jobtypes.TokenUsage{})

	_, _, aOK := c.Get("a")
	_, _, bOK := c.Get("b")
	_, _, cOK := c.Get("c")
	assert.False(t, aOK)
	assert.True(t, bOK)
	assert.True(t, cOK)
}

func TestCacheKeyFor_DiffersByPromptModelAndSystem(t *testing.T) {
	base := cacheKeyFor("gpt", "prompt", "system", CompletionOptions{Model: "gpt-4o-mini", MaxTokens: 100})
	diffPrompt := cacheKeyFor("gpt", "other", "system", CompletionOptions{Model: "gpt-4o-mini", MaxTokens: 100})
	diffModel := cacheKeyFor("gpt", "prompt", "system", CompletionOptions{Model: "gpt-4o", MaxTokens: 100})
	assert.NotEqual(t, base, diffPrompt)
	assert.NotEqual(t, base, diffModel)
}

func TestCacheKeyFor_IsDeterministic(t *testing.T) {
	a := cacheKeyFor("gpt", "prompt", "system", CompletionOptions{Model: "gpt-4o-mini", MaxTokens: 100})
	b := cacheKeyFor("gpt", "prompt", "system", CompletionOptions{Model: "gpt-4o-mini", MaxTokens: 100})
	assert.Equal(t, a, b)
}
