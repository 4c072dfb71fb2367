package aggregator

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ToJSON renders the item set as {"items": [...], "generated_at": ...}.
func ToJSON(items []InsightItem) (string, error) {
	payload := map[string]any{
		"items":        items,
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("aggregator: marshal json: %w", err)
	}
	return string(b), nil
}

// ToMarkdown renders the item set as the Insight Dashboard table.
func ToMarkdown(items []InsightItem, counts Counts) string {
	var b strings.Builder
	b.WriteString("# Insight Dashboard\n\n")
	fmt.Fprintf(&b, "Total: %d | Actions: %d | Decisions: %d | Risks: %d\n\n", counts.Total, counts.Actions, counts.Decisions, counts.Risks)
	b.WriteString("| Type | Title | Owner | Due | Source | Evidence |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, it := range items {
		title := strings.ReplaceAll(it.Title, "|", "\\|")
		quote := strings.ReplaceAll(it.Evidence.Quote, "|", "\\|")
		if len(quote) > 80 {
			quote = quote[:80]
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n", it.Type, title, it.Owner, it.DueDate, it.SourceAnalyzer, quote)
	}
	return b.String()
}

var csvFields = []string{
	"type", "title", "description", "owner", "due_date", "priority", "confidence",
	"source_analyzer", "evidence.segment_id", "evidence.speaker", "evidence.timestamp",
	"evidence.quote", "links.transcript_anchor",
}

// ToCSV renders the item set as CSV with a fixed column order, matching
// original_source/src/utils/insight_aggregator.py:to_csv.
func ToCSV(items []InsightItem) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvFields); err != nil {
		return "", err
	}
	for _, it := range items {
		segID := ""
		if it.Evidence.SegmentID != nil {
			segID = fmt.Sprintf("%d", *it.Evidence.SegmentID)
		}
		confidence := ""
		if it.Confidence != nil {
			confidence = fmt.Sprintf("%g", *it.Confidence)
		}
		anchor := ""
		if it.Links != nil {
			if a, ok := it.Links["transcript_anchor"].(string); ok {
				anchor = a
			}
		}
		row := []string{
			it.Type, it.Title, it.Description, it.Owner, it.DueDate, it.Priority,
			confidence, it.SourceAnalyzer, segID, it.Evidence.Speaker, it.Evidence.Timestamp,
			it.Evidence.Quote, anchor,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
