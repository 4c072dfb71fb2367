// Package aggregator implements the Insight Aggregator: pull Actions,
// Decisions, and Risks out of every analyzer's output (JSON island first,
// then structured-section mining, then regex heuristics against raw text),
// link each to supporting transcript evidence, dedupe, and render to
// JSON/Markdown/CSV. This is a direct port of
// original_source/src/utils/insight_aggregator.py.
package aggregator

import "time"

// Evidence anchors an InsightItem back to the transcript segment it was
// most likely derived from.
type Evidence struct {
	SegmentID *int   `json:"segment_id,omitempty"`
	Speaker   string `json:"speaker,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Quote     string `json:"quote,omitempty"`
}

// InsightItem is one aggregated Action, Decision, or Risk.
type InsightItem struct {
	InsightID      string         `json:"insight_id"`
	Type           string         `json:"type"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Owner          string         `json:"owner,omitempty"`
	DueDate        string         `json:"due_date,omitempty"`
	Priority       string         `json:"priority,omitempty"`
	Confidence     *float64       `json:"confidence,omitempty"`
	SourceAnalyzer string         `json:"source_analyzer,omitempty"`
	Evidence       Evidence       `json:"evidence"`
	Links          map[string]any `json:"links,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

func newInsightItem(id, itype, title, sourceAnalyzer string) *InsightItem {
	return &InsightItem{
		InsightID:      id,
		Type:           itype,
		Title:          title,
		SourceAnalyzer: sourceAnalyzer,
		CreatedAt:      time.Now(),
	}
}

func (it *InsightItem) setAnchor(anchor string) {
	if anchor == "" {
		return
	}
	if it.Links == nil {
		it.Links = map[string]any{}
	}
	it.Links["transcript_anchor"] = anchor
}

// Counts summarizes an aggregated item set by type.
type Counts struct {
	Total     int `json:"total"`
	Actions   int `json:"actions"`
	Decisions int `json:"decisions"`
	Risks     int `json:"risks"`
}

// CountItems computes Counts over an item set.
func CountItems(items []InsightItem) Counts {
	c := Counts{Total: len(items)}
	for _, it := range items {
		switch it.Type {
		case "action":
			c.Actions++
		case "decision":
			c.Decisions++
		case "risk":
			c.Risks++
		}
	}
	return c
}
