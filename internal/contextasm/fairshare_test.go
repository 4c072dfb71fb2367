package contextasm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelligencedev/transcriptlens/internal/jobtypes"
	"github.com/intelligencedev/transcriptlens/internal/tokencount"
)

func TestBuildFairCombinedContext_UnderBudgetIncludesEverythingVerbatim(t *testing.T) {
	previous := map[string]jobtypes.AnalyzerRecord{
		"say_means":     {Slug: "say_means", RawOutput: "short a"},
		"meeting_notes": {Slug: "meeting_notes", RawOutput: "short b"},
	}
	combined, debug := BuildFairCombinedContext(context.Background(), tokencount.Counter{}, previous, 10000, 10, nil)
	assert.Contains(t, combined, "short a")
	assert.Contains(t, combined, "short b")
	assert.Equal(t, 10000, debug.Budget)
}

func TestBuildFairCombinedContext_OverBudgetGivesEveryAnalyzerTheMinimum(t *testing.T) {
	previous := map[string]jobtypes.AnalyzerRecord{
		"a": {Slug: "a", RawOutput: strings.Repeat("alpha ", 500)},
		"b": {Slug: "b", RawOutput: "tiny"},
	}
	_, debug := BuildFairCombinedContext(context.Background(), tokencount.Counter{}, previous, 50, 10, nil)
	require.Contains(t, debug.Allocations, "a")
	require.Contains(t, debug.Allocations, "b")
	assert.GreaterOrEqual(t, debug.Allocations["a"], 1)
	assert.GreaterOrEqual(t, debug.Allocations["b"], 1)

	sum := 0
	for _, v := range debug.Allocations {
		sum += v
	}
	assert.Equal(t, 50, sum)
}

func TestBuildFairCombinedContext_LargerSectionGetsLargerShareOfRemainder(t *testing.T) {
	previous := map[string]jobtypes.AnalyzerRecord{
		"big":   {Slug: "big", RawOutput: strings.Repeat("word ", 2000)},
		"small": {Slug: "small", RawOutput: "one two three"},
	}
	_, debug := BuildFairCombinedContext(context.Background(), tokencount.Counter{}, previous, 200, 5, nil)
	assert.Greater(t, debug.Allocations["big"], debug.Allocations["small"])
}

func TestBuildFairCombinedContext_RespectsExplicitOrder(t *testing.T) {
	previous := map[string]jobtypes.AnalyzerRecord{
		"z": {Slug: "z", RawOutput: "last one"},
		"a": {Slug: "a", RawOutput: "first one"},
	}
	combined, _ := BuildFairCombinedContext(context.Background(), tokencount.Counter{}, previous, 10000, 10, []string{"z", "a"})
	zIdx := strings.Index(combined, "last one")
	aIdx := strings.Index(combined, "first one")
	require.NotEqual(t, -1, zIdx)
	require.NotEqual(t, -1, aIdx)
	assert.Less(t, zIdx, aIdx)
}

func TestBuildFairCombinedContext_EmptyInputProducesEmptyCombined(t *testing.T) {
	combined, debug := BuildFairCombinedContext(context.Background(), tokencount.Counter{}, map[string]jobtypes.AnalyzerRecord{}, 1000, 10, nil)
	assert.Equal(t, "", combined)
	assert.Equal(t, 0, debug.FinalTokens)
}
