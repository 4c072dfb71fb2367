package analyzer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/intelligencedev/transcriptlens/internal/jobtypes"
)

var (
	bulletRe       = regexp.MustCompile(`(?m)^\s*[-*]\s+(.+)$`)
	numberedRe     = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+(.+)$`)
	wikiLinkRe     = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
	confidenceRe   = regexp.MustCompile(`(?i)confidence\s*[:=]\s*(\d+(?:\.\d+)?)`)
)

// ExtractInsights pulls bullet- and numbered-list items out of an
// analyzer's raw markdown output as Insight records, the shallow
// bullet-mining behavior the analyzer runner applies before handing a
// record to the aggregator's deeper multi-pass extraction.
func ExtractInsights(slug, rawOutput string) []jobtypes.Insight {
	var out []jobtypes.Insight
	seen := map[string]bool{}
	for _, re := range []*regexp.Regexp{bulletRe, numberedRe} {
		for _, m := range re.FindAllStringSubmatch(rawOutput, -1) {
			text := strings.TrimSpace(m[1])
			if text == "" || seen[text] {
				continue
			}
			seen[text] = true
			ins := jobtypes.Insight{Text: text, SourceAnalyzer: slug}
			if cm := confidenceRe.FindStringSubmatch(text); cm != nil {
				if v, err := strconv.ParseFloat(cm[1], 64); err == nil {
					ins.Confidence = v
				}
			}
			out = append(out, ins)
		}
	}
	return out
}

// ExtractConcepts pulls [[WikiLink]]-style concept mentions out of raw
// output, counting repeated mentions as occurrences.
func ExtractConcepts(rawOutput string) []jobtypes.Concept {
	counts := map[string]int{}
	var order []string
	for _, m := range wikiLinkRe.FindAllStringSubmatch(rawOutput, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		if counts[name] == 0 {
			order = append(order, name)
		}
		counts[name]++
	}
	out := make([]jobtypes.Concept, 0, len(order))
	for _, name := range order {
		out = append(out, jobtypes.Concept{Name: name, Occurrences: counts[name]})
	}
	return out
}
