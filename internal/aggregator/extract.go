package aggregator

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/intelligencedev/transcriptlens/internal/jobtypes"
)

var (
	actionPat   = regexp.MustCompile(`(?i)^\s*(?:-\s*\[\s*\]|\*|-)?\s*(?:Action(?:\s*#?\d+)?|Action Items?)\s*[:\-]\s*(.+)$`)
	decisionPat = regexp.MustCompile(`(?i)^\s*(?:\*|-)?\s*(?:Decision(?:\s*#?\d+)?|Key Decisions?)\s*[:\-]\s*(.+)$`)
	riskPat     = regexp.MustCompile(`(?i)^\s*(?:\*|-)?\s*(?:Risk|Issue)\s*[:\-]\s*(.+)$`)
	ownerPat    = regexp.MustCompile(`(?i)\b(?:Assigned|Owner)\s*[:\-]\s*([^;,.\n]+)`)
	duePat      = regexp.MustCompile(`(?i)\b(?:Due Date|Due|by)\s*[:\-]?\s*([A-Za-z0-9\-/]+)`)
	anchorPat   = regexp.MustCompile(`(?i)\[#?seg-(\d+)\]`)
	ownerHint   = regexp.MustCompile(`@([A-Za-z0-9_\-.]+)`)
	jsonIslandLabeled = regexp.MustCompile(`(?is)INSIGHTS_JSON.*?` + "```json\\s*(\\{.*?\\})\\s*```")
	jsonIslandAny     = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
	prefixStrip = regexp.MustCompile(`(?i)^(action|decision|risk)\s*[:\-]\s*`)
)

func newID() string { return uuid.NewString() }

// stripAndCaptureAnchor removes a trailing [#seg-123] token from text and
// returns the cleaned text plus the anchor string ("#seg-123"), if any.
func stripAndCaptureAnchor(text string) (string, string) {
	if text == "" {
		return "", ""
	}
	m := anchorPat.FindStringSubmatch(text)
	if m == nil {
		return strings.TrimSpace(text), ""
	}
	anchor := "#seg-" + m[1]
	clean := strings.TrimSpace(anchorPat.ReplaceAllString(text, ""))
	return clean, anchor
}

// fromJSONBlock extracts items from a fenced ```json block (preferring one
// labeled INSIGHTS_JSON) containing {"actions":[...],"decisions":[...],"risks":[...]}.
func fromJSONBlock(analyzerName, rawText string) []InsightItem {
	var items []InsightItem
	if rawText == "" {
		return items
	}
	m := jsonIslandLabeled.FindStringSubmatch(rawText)
	if m == nil {
		m = jsonIslandAny.FindStringSubmatch(rawText)
	}
	if m == nil {
		return items
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(m[1]), &obj); err != nil {
		return items
	}
	for _, pair := range [][2]string{{"actions", "action"}, {"decisions", "decision"}, {"risks", "risk"}} {
		key, label := pair[0], pair[1]
		arr, _ := obj[key].([]any)
		for _, entry := range arr {
			switch v := entry.(type) {
			case string:
				title, anchor := stripAndCaptureAnchor(v)
				if title == "" {
					continue
				}
				it := newInsightItem(newID(), label, title, analyzerName)
				it.setAnchor(anchor)
				items = append(items, *it)
			case map[string]any:
				title := firstString(v, "title", "text")
				title, anchor := stripAndCaptureAnchor(title)
				if title == "" {
					continue
				}
				it := newInsightItem(newID(), label, title, analyzerName)
				it.Description = asString(v["description"])
				it.Owner = asString(v["owner"])
				it.DueDate = firstString(v, "due_date", "due")
				it.Priority = asString(v["priority"])
				it.Confidence = asFloatPtr(v["confidence"])
				explicitAnchor := asString(v["anchor"])
				if explicitAnchor != "" {
					it.setAnchor(explicitAnchor)
				} else {
					it.setAnchor(anchor)
				}
				items = append(items, *it)
			}
		}
	}
	return items
}

var (
	exactDecisionKeys = []string{"decision", "decisions", "key decisions", "key_decisions"}
	exactActionKeys   = []string{"actions", "action items", "action_items", "next steps", "next_steps", "immediate next steps", "immediate next steps (1-2 weeks)"}
	exactRiskKeys     = []string{"risks", "risk", "issues", "open questions", "concerns"}
)

// fromStructured mines an analyzer's StructuredData: canonical
// action_items/key_decisions/risks arrays first, then a lightweight
// sectioned-markdown scan ("sections" map of heading -> body text) for
// exact and fuzzy heading matches.
func fromStructured(analyzerName string, sd map[string]any) []InsightItem {
	var items []InsightItem

	for _, pair := range [][2]string{{"action_items", "action"}, {"key_decisions", "decision"}, {"risks", "risk"}} {
		key, itype := pair[0], pair[1]
		arr, _ := sd[key].([]any)
		for _, entry := range arr {
			switch v := entry.(type) {
			case string:
				title := strings.TrimSpace(v)
				if title == "" {
					continue
				}
				items = append(items, *newInsightItem(newID(), itype, title, analyzerName))
			case map[string]any:
				title := firstString(v, "title", "text")
				if title == "" {
					continue
				}
				it := newInsightItem(newID(), itype, title, analyzerName)
				it.Description = asString(v["description"])
				it.Owner = asString(v["owner"])
				it.DueDate = asString(v["due_date"])
				it.Priority = asString(v["priority"])
				it.Confidence = asFloatPtr(v["confidence"])
				items = append(items, *it)
			}
		}
	}

	sections, _ := sd["sections"].(map[string]any)
	if len(sections) == 0 {
		return items
	}
	norm := make(map[string]string, len(sections))
	for k, v := range sections {
		norm[strings.ToLower(strings.TrimSpace(k))] = asString(v)
	}

	appendOrMerge := func(label, line string) {
		ll := strings.TrimSpace(line)
		if ll == "" {
			return
		}
		if ownerPat.MatchString(ll) {
			owner := extractOwner(ll)
			if n := len(items); n > 0 && (items[n-1].Type == "action" || items[n-1].Type == "decision") && owner != "" && items[n-1].Owner == "" {
				items[n-1].Owner = owner
			}
			return
		}
		if duePat.MatchString(ll) {
			due := extractDue(ll)
			if n := len(items); n > 0 && (items[n-1].Type == "action" || items[n-1].Type == "decision") && due != "" && items[n-1].DueDate == "" {
				items[n-1].DueDate = due
			}
			return
		}
		ll = strings.TrimSpace(prefixStrip.ReplaceAllString(ll, ""))
		title, anchor := stripAndCaptureAnchor(ll)
		if title == "" {
			return
		}
		it := newInsightItem(newID(), label, title, analyzerName)
		it.setAnchor(anchor)
		items = append(items, *it)
	}

	sectionLines := func(text string) []string {
		var out []string
		for _, l := range strings.Split(text, "\n") {
			l = strings.Trim(l, " -\t")
			if l != "" {
				out = append(out, l)
			}
		}
		return out
	}

	for _, key := range exactDecisionKeys {
		if body, ok := norm[key]; ok {
			for _, l := range sectionLines(body) {
				if strings.HasPrefix(strings.ToLower(l), "decisions") {
					continue
				}
				appendOrMerge("decision", l)
			}
		}
	}
	for _, key := range exactActionKeys {
		if body, ok := norm[key]; ok {
			for _, l := range sectionLines(body) {
				if strings.HasPrefix(strings.ToLower(l), "actions") {
					continue
				}
				appendOrMerge("action", l)
			}
		}
	}
	for _, key := range exactRiskKeys {
		if body, ok := norm[key]; ok {
			for _, l := range sectionLines(body) {
				lower := strings.ToLower(l)
				if strings.HasPrefix(lower, "risks") || strings.HasPrefix(lower, "open questions") {
					continue
				}
				appendOrMerge("risk", l)
			}
		}
	}

	for k, v := range norm {
		lk := strings.ToLower(k)
		if containsAny(lk, "decision", "key decision") {
			for _, l := range sectionLines(v) {
				appendOrMerge("decision", l)
			}
		}
		if containsAny(lk, "action", "next step", "todo", "task") {
			for _, l := range sectionLines(v) {
				appendOrMerge("action", l)
			}
		}
		if containsAny(lk, "risk", "concern", "issue", "open question") {
			for _, l := range sectionLines(v) {
				appendOrMerge("risk", l)
			}
		}
	}

	return items
}

// heuristicsFromText regex-mines plain analyzer output line by line for
// Action:/Decision:/Risk: markers, attaching a trailing Owner/Due line to
// whichever action or decision item immediately precedes it.
func heuristicsFromText(analyzerName, text string) []InsightItem {
	var items []InsightItem
	lastIdx := -1
	for _, raw := range strings.Split(text, "\n") {
		l := strings.TrimSpace(raw)
		if l == "" {
			continue
		}
		if m := actionPat.FindStringSubmatch(l); m != nil {
			it := newInsightItem(newID(), "action", strings.TrimSpace(m[1]), analyzerName)
			it.Owner = extractOwner(l)
			it.DueDate = extractDue(l)
			items = append(items, *it)
			lastIdx = len(items) - 1
			continue
		}
		if m := decisionPat.FindStringSubmatch(l); m != nil {
			it := newInsightItem(newID(), "decision", strings.TrimSpace(m[1]), analyzerName)
			items = append(items, *it)
			lastIdx = len(items) - 1
			continue
		}
		if m := riskPat.FindStringSubmatch(l); m != nil {
			it := newInsightItem(newID(), "risk", strings.TrimSpace(m[1]), analyzerName)
			items = append(items, *it)
			lastIdx = len(items) - 1
			continue
		}
		if lastIdx >= 0 && (items[lastIdx].Type == "action" || items[lastIdx].Type == "decision") {
			if owner := extractOwner(l); owner != "" && items[lastIdx].Owner == "" {
				items[lastIdx].Owner = owner
			}
			if due := extractDue(l); due != "" && items[lastIdx].DueDate == "" {
				items[lastIdx].DueDate = due
			}
		}
	}
	return items
}

func extractOwner(text string) string {
	if m := ownerPat.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := ownerHint.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func extractDue(text string) string {
	if m := duePat.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func containsAny(s string, tokens ...string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v := asString(m[k]); v != "" {
			return v
		}
	}
	return ""
}

func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func asFloatPtr(v any) *float64 {
	switch f := v.(type) {
	case float64:
		return &f
	case int:
		g := float64(f)
		return &g
	default:
		return nil
	}
}

// extractAllPasses runs the three extraction passes (JSON island, structured
// sections, regex heuristics) over every analyzer record, in the same order
// the original aggregator applies them. Analyzer names are visited in
// sorted order so results are deterministic despite Go's randomized map
// iteration.
func extractAllPasses(results map[string]jobtypes.AnalyzerRecord) []InsightItem {
	names := sortedKeys(results)
	var items []InsightItem
	for _, name := range names {
		if rec := results[name]; rec.RawOutput != "" {
			items = append(items, fromJSONBlock(name, rec.RawOutput)...)
		}
	}
	for _, name := range names {
		if rec := results[name]; len(rec.StructuredData) > 0 {
			items = append(items, fromStructured(name, rec.StructuredData)...)
		}
	}
	for _, name := range names {
		if rec := results[name]; rec.RawOutput != "" {
			items = append(items, heuristicsFromText(name, rec.RawOutput)...)
		}
	}
	return items
}

func sortedKeys(m map[string]jobtypes.AnalyzerRecord) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
