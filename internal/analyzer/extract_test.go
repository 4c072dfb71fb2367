package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractInsights_BulletsAndNumbered(t *testing.T) {
	raw := "- First point (confidence: 0.9)\n* Second point\n1. Third point\n2) Fourth point"
	insights := ExtractInsights("say_means", raw)
	require.Len(t, insights, 4)
	assert.Equal(t, "First point (confidence: 0.9)", insights[0].Text)
	assert.Equal(t, 0.9, insights[0].Confidence)
	assert.Equal(t, "say_means", insights[0].SourceAnalyzer)
}

func TestExtractInsights_DedupesIdenticalText(t *testing.T) {
	raw := "- Same point\n- Same point"
	insights := ExtractInsights("say_means", raw)
	assert.Len(t, insights, 1)
}

func TestExtractConcepts_CountsOccurrences(t *testing.T) {
	raw := "We discussed [[Budget]] and later [[Budget]] again, plus [[Timeline]]."
	concepts := ExtractConcepts(raw)
	require.Len(t, concepts, 2)
	assert.Equal(t, "Budget", concepts[0].Name)
	assert.Equal(t, 2, concepts[0].Occurrences)
	assert.Equal(t, "Timeline", concepts[1].Name)
	assert.Equal(t, 1, concepts[1].Occurrences)
}
