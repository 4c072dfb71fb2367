package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelligencedev/transcriptlens/internal/transcript"
)

func TestAttachEvidence_LinksMatchingSegment(t *testing.T) {
	items := []InsightItem{
		{Title: "Ship the fix by Friday"},
	}
	segments := []transcript.Segment{
		{SegmentID: 3, Speaker: "Alice", Text: "We need to ship the fix by friday for sure."},
	}
	attachEvidence(items, segments)

	require.NotNil(t, items[0].Evidence.SegmentID)
	assert.Equal(t, 3, *items[0].Evidence.SegmentID)
	assert.Equal(t, "Alice", items[0].Evidence.Speaker)
	assert.Equal(t, "#seg-3", items[0].Links["transcript_anchor"])
}

func TestAttachEvidence_NoMatchLeavesEvidenceEmpty(t *testing.T) {
	items := []InsightItem{{Title: "Completely unrelated topic"}}
	segments := []transcript.Segment{{SegmentID: 1, Text: "Talking about lunch plans."}}
	attachEvidence(items, segments)
	assert.Nil(t, items[0].Evidence.SegmentID)
}

func TestQuoteOrTitle_PrefersQuotedSnippet(t *testing.T) {
	it := &InsightItem{Title: `Alice said "ship it now" during standup`}
	assert.Equal(t, "ship it now", quoteOrTitle(it))
}

func TestAnchorFor(t *testing.T) {
	assert.Equal(t, "#seg-42", anchorFor(42))
}
