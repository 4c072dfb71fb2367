package aggregator

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItems() []InsightItem {
	return []InsightItem{
		{Type: "action", Title: "Ship the fix", Owner: "Alice", DueDate: "Friday", SourceAnalyzer: "meeting_notes"},
		{Type: "risk", Title: "Budget | overrun risk", SourceAnalyzer: "say_means"},
	}
}

func TestToJSON_RoundTripsItems(t *testing.T) {
	out, err := ToJSON(sampleItems())
	require.NoError(t, err)
	assert.Contains(t, out, "Ship the fix")
	assert.Contains(t, out, `"generated_at"`)
}

func TestToMarkdown_EscapesPipesAndShowsCounts(t *testing.T) {
	counts := CountItems(sampleItems())
	md := ToMarkdown(sampleItems(), counts)
	assert.Contains(t, md, "# Insight Dashboard")
	assert.Contains(t, md, "Actions: 1")
	assert.Contains(t, md, `Budget \| overrun risk`)
}

func TestToCSV_HeaderAndRowCount(t *testing.T) {
	out, err := ToCSV(sampleItems())
	require.NoError(t, err)
	r := csv.NewReader(strings.NewReader(out))
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // header + 2 items
	assert.Equal(t, csvFields, records[0])
	assert.Equal(t, "Ship the fix", records[1][1])
	assert.Equal(t, "Alice", records[1][3])
}
