package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelligencedev/transcriptlens/internal/jobtypes"
	"github.com/intelligencedev/transcriptlens/internal/transcript"
)

func TestAggregate_HeuristicActionWithOwnerAndDue(t *testing.T) {
	results := map[string]jobtypes.AnalyzerRecord{
		"meeting_notes": {
			Slug:      "meeting_notes",
			Status:    jobtypes.AnalyzerCompleted,
			RawOutput: "Summary: ship the release.\nAction: Ship the fix by Friday. Owner: Alice",
		},
	}
	tr := &transcript.Transcript{}

	items, counts := Aggregate(results, tr)

	require.NotEmpty(t, items)
	var action *InsightItem
	for i := range items {
		if items[i].Type == "action" {
			action = &items[i]
			break
		}
	}
	require.NotNil(t, action)
	assert.Contains(t, action.Title, "Ship the fix")
	assert.Equal(t, "Friday", action.DueDate)
	assert.Equal(t, "Alice", action.Owner)
	assert.Equal(t, 1, counts.Actions)
}

func TestAggregate_DedupesIdenticalActions(t *testing.T) {
	results := map[string]jobtypes.AnalyzerRecord{
		"say_means": {
			Slug:      "say_means",
			RawOutput: "Action: Ship it. Owner: Bob",
		},
		"meeting_notes": {
			Slug:      "meeting_notes",
			RawOutput: "Action: Ship it. Owner: Bob",
		},
	}
	items, _ := Aggregate(results, &transcript.Transcript{})

	count := 0
	for _, it := range items {
		if it.Type == "action" && it.Title == "Ship it. Owner: Bob" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestAggregate_JSONIslandTakesPriority(t *testing.T) {
	results := map[string]jobtypes.AnalyzerRecord{
		"meeting_notes": {
			Slug: "meeting_notes",
			RawOutput: "```json\n{\"actions\": [\"Send the invoice\"], \"decisions\": [], \"risks\": []}\n```",
		},
	}
	items, counts := Aggregate(results, &transcript.Transcript{})
	require.Equal(t, 1, counts.Actions)
	assert.Equal(t, "Send the invoice", items[0].Title)
}

func TestCountItems_CountsByType(t *testing.T) {
	items := []InsightItem{
		{Type: "action"},
		{Type: "action"},
		{Type: "decision"},
		{Type: "risk"},
	}
	counts := CountItems(items)
	assert.Equal(t, 4, counts.Total)
	assert.Equal(t, 2, counts.Actions)
	assert.Equal(t, 1, counts.Decisions)
	assert.Equal(t, 1, counts.Risks)
}
