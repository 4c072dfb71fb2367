package aggregator

import (
	"strings"

	"github.com/intelligencedev/transcriptlens/internal/jobtypes"
	"github.com/intelligencedev/transcriptlens/internal/transcript"
)

// Aggregate runs every extraction pass over an analyzer result set, links
// evidence against the transcript's segments, and dedupes by
// (type, lower(trim(title)), owner, due_date), keeping the first occurrence
// of each key (JSON-island items win over structured-section items, which
// win over heuristic-text items, matching the pass order above).
func Aggregate(results map[string]jobtypes.AnalyzerRecord, tr *transcript.Transcript) ([]InsightItem, Counts) {
	items := extractAllPasses(results)

	var segments []transcript.Segment
	if tr != nil {
		segments = tr.Segments
	}
	attachEvidence(items, segments)

	final := dedupe(items)
	return final, CountItems(final)
}

type dedupeKey struct {
	itype, title, owner, due string
}

func keyFor(itype, title, owner, due string) dedupeKey {
	return dedupeKey{
		itype: itype,
		title: strings.ToLower(strings.TrimSpace(title)),
		owner: owner,
		due:   due,
	}
}

// dedupe keeps the first InsightItem seen for each (type, title, owner, due)
// key, preserving first-seen order.
func dedupe(items []InsightItem) []InsightItem {
	seen := map[dedupeKey]bool{}
	out := make([]InsightItem, 0, len(items))
	for _, it := range items {
		k := keyFor(it.Type, it.Title, it.Owner, it.DueDate)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
	}
	return out
}
