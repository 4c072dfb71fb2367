package aggregator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelligencedev/transcriptlens/internal/jobtypes"
	"github.com/intelligencedev/transcriptlens/internal/llmcap"
	"github.com/intelligencedev/transcriptlens/internal/transcript"
)

type stubLLM struct {
	text string
	err  error
}

func (s stubLLM) Complete(ctx context.Context, prompt, system string, opts llmcap.CompletionOptions) (string, jobtypes.TokenUsage, error) {
	return s.text, jobtypes.TokenUsage{}, s.err
}

func TestBuildSegmentedTranscript_RendersSegmentsWithIDsAndSpeakers(t *testing.T) {
	tr := transcript.Transcript{Segments: []transcript.Segment{
		{SegmentID: 0, Speaker: "Alice", Timestamp: "00:01", Text: "Let's ship it."},
		{SegmentID: 1, Text: "Sounds good."},
	}}
	out := BuildSegmentedTranscript(tr, 0)
	assert.Contains(t, out, "SEG 0 [00:01] Alice: Let's ship it.")
	assert.Contains(t, out, "SEG 1 Unknown: Sounds good.")
}

func TestBuildSegmentedTranscript_RespectsMaxSegments(t *testing.T) {
	tr := transcript.Transcript{Segments: []transcript.Segment{
		{SegmentID: 0, Text: "one"},
		{SegmentID: 1, Text: "two"},
		{SegmentID: 2, Text: "three"},
	}}
	out := BuildSegmentedTranscript(tr, 1)
	assert.Contains(t, out, "SEG 0")
	assert.NotContains(t, out, "SEG 1")
	assert.NotContains(t, out, "SEG 2")
}

func TestBuildCombinedContext_JoinsRecordsInSortedOrder(t *testing.T) {
	results := map[string]jobtypes.AnalyzerRecord{
		"say_means":     {Slug: "say_means", RawOutput: "first"},
		"meeting_notes": {Slug: "meeting_notes", RawOutput: "second"},
	}
	out := BuildCombinedContext(results)
	assert.Contains(t, out, "## meeting_notes Analysis")
	assert.Contains(t, out, "## say_means Analysis")
	firstIdx := indexOf(out, "meeting_notes")
	secondIdx := indexOf(out, "say_means")
	assert.Less(t, firstIdx, secondIdx)
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

func TestExtractInsightsLLM_ParsesWrappedItems(t *testing.T) {
	llm := stubLLM{text: `{"items": [{"type": "action", "summary": "Ship the fix", "owner": "Alice", "due": "Friday", "source": "meeting_notes", "evidence": {"segment_ids": [4], "speakers": ["Alice"], "timestamps": ["00:02"], "quotes": ["ship it"], "confidence": 0.9}}]}`}

	items := ExtractInsightsLLM(context.Background(), llm, "segmented", "context", 0, "gpt-4o-mini", 0)

	require.Len(t, items, 1)
	it := items[0]
	assert.Equal(t, "action", it.Type)
	assert.Equal(t, "Ship the fix", it.Title)
	assert.Equal(t, "Alice", it.Owner)
	assert.Equal(t, "Friday", it.DueDate)
	require.NotNil(t, it.Evidence.SegmentID)
	assert.Equal(t, 4, *it.Evidence.SegmentID)
	assert.Equal(t, "Alice", it.Evidence.Speaker)
	assert.Equal(t, "00:02", it.Evidence.Timestamp)
	assert.Equal(t, "ship it", it.Evidence.Quote)
	require.NotNil(t, it.Confidence)
	assert.Equal(t, 0.9, *it.Confidence)
}

func TestExtractInsightsLLM_ParsesBareArray(t *testing.T) {
	llm := stubLLM{text: `[{"type": "risk", "summary": "Budget overrun", "source": "say_means"}]`}
	items := ExtractInsightsLLM(context.Background(), llm, "", "", 5, "gpt-4o-mini", 100)
	require.Len(t, items, 1)
	assert.Equal(t, "risk", items[0].Type)
	assert.Equal(t, "Budget overrun", items[0].Title)
}

func TestExtractInsightsLLM_CapsToMaxItems(t *testing.T) {
	llm := stubLLM{text: `{"items": [
		{"type": "action", "summary": "one", "source": "x"},
		{"type": "action", "summary": "two", "source": "x"},
		{"type": "action", "summary": "three", "source": "x"}
	]}`}
	items := ExtractInsightsLLM(context.Background(), llm, "", "", 2, "gpt-4o-mini", 100)
	require.Len(t, items, 2)
}

func TestExtractInsightsLLM_SkipsItemsWithEmptySummary(t *testing.T) {
	llm := stubLLM{text: `{"items": [{"type": "action", "summary": "", "source": "x"}]}`}
	items := ExtractInsightsLLM(context.Background(), llm, "", "", 0, "gpt-4o-mini", 0)
	assert.Empty(t, items)
}

func TestExtractInsightsLLM_ReturnsNilOnCompletionError(t *testing.T) {
	llm := stubLLM{err: errors.New("rate limited")}
	items := ExtractInsightsLLM(context.Background(), llm, "seg", "ctx", 0, "gpt-4o-mini", 0)
	assert.Nil(t, items)
}

func TestExtractInsightsLLM_ReturnsNilOnMalformedJSON(t *testing.T) {
	llm := stubLLM{text: "not json at all"}
	items := ExtractInsightsLLM(context.Background(), llm, "seg", "ctx", 0, "gpt-4o-mini", 0)
	assert.Nil(t, items)
}

func TestParseLLMItems_SortsSegmentIDsAndTakesLowest(t *testing.T) {
	items, err := parseLLMItems(`{"items": [{"type": "action", "summary": "x", "source": "y", "evidence": {"segment_ids": [9, 2, 5]}}]}`, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Evidence.SegmentID)
	assert.Equal(t, 2, *items[0].Evidence.SegmentID)
	assert.Equal(t, "#seg-2", items[0].Links["transcript_anchor"])
}
