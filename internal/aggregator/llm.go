package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/intelligencedev/transcriptlens/internal/jobtypes"
	"github.com/intelligencedev/transcriptlens/internal/llmcap"
	"github.com/intelligencedev/transcriptlens/internal/transcript"
)

// BuildSegmentedTranscript renders a transcript's segments as
// "SEG <id> [<timestamp>] <speaker>: <text>" lines, the form the optional LLM
// extraction pass grounds its evidence segment IDs against. maxSegments <= 0
// means no limit.
func BuildSegmentedTranscript(tr transcript.Transcript, maxSegments int) string {
	segments := tr.Segments
	if maxSegments > 0 && len(segments) > maxSegments {
		segments = segments[:maxSegments]
	}
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		prefix := fmt.Sprintf("SEG %d", seg.SegmentID)
		if seg.Timestamp != "" {
			prefix += fmt.Sprintf(" [%s]", seg.Timestamp)
		}
		speaker := seg.Speaker
		if speaker == "" {
			speaker = "Unknown"
		}
		lines = append(lines, fmt.Sprintf("%s %s: %s", prefix, speaker, seg.Text))
	}
	return strings.Join(lines, "\n\n")
}

// BuildCombinedContext concatenates every analyzer's ToContextString output,
// the same flattened-context input the LLM extraction pass reads alongside
// the segmented transcript.
func BuildCombinedContext(results map[string]jobtypes.AnalyzerRecord) string {
	names := sortedKeys(results)
	var lines []string
	for _, name := range names {
		lines = append(lines, results[name].ToContextString())
		lines = append(lines, "\n---\n")
	}
	return strings.Join(lines, "\n")
}

const insightSchemaText = "Return a single JSON object with this shape:\n" +
	"{\n" +
	"  \"items\": [\n" +
	"    {\n" +
	"      \"type\": \"action|decision|risk\",\n" +
	"      \"summary\": \"short one-line summary\",\n" +
	"      \"owner\": \"name or team or null\",\n" +
	"      \"due\": \"YYYY-MM-DD or freeform or null\",\n" +
	"      \"source\": \"meeting_notes|analyzer|transcript\",\n" +
	"      \"evidence\": {\n" +
	"         \"segment_ids\": [int],\n" +
	"         \"speakers\": [\"...\"],\n" +
	"         \"timestamps\": [\"...\"],\n" +
	"         \"quotes\": [\"short quotes\"],\n" +
	"         \"confidence\": 0.0\n" +
	"      }\n" +
	"    }\n" +
	"  ]\n" +
	"}\n" +
	"Ensure valid JSON. Do not include any text outside the JSON. Limit items to the requested maximum."

const insightSystemPrompt = "You extract Actions, Decisions, and Risks from the provided context and segmented transcript.\n" +
	"Use only the provided content. Ground evidence with SEGMENT IDs."

// ExtractInsightsLLM runs the optional LLM extraction pass: given the
// combined Stage A+B context and the segmented transcript, ask the model for
// up to maxItems structured items and parse its JSON reply. Any call or
// parse failure yields an empty slice rather than an error, matching the
// original's best-effort contract (a failed LLM pass must never fail the
// whole aggregation).
func ExtractInsightsLLM(ctx context.Context, llm llmcap.Capability, segmentedTranscript, combinedContext string, maxItems int, model string, maxTokens int) []InsightItem {
	if maxItems <= 0 {
		maxItems = 50
	}
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	if combinedContext == "" {
		combinedContext = "(none)"
	}
	if segmentedTranscript == "" {
		segmentedTranscript = "(none)"
	}
	var b strings.Builder
	b.WriteString("## Context (A+B)\n")
	b.WriteString(combinedContext)
	b.WriteString("\n\n## Segmented Transcript\n")
	b.WriteString(segmentedTranscript)
	b.WriteString("\n\n## Instructions\n")
	fmt.Fprintf(&b, "Extract up to %d items. Use the schema below.\n", maxItems)
	b.WriteString(insightSchemaText)

	text, _, err := llm.Complete(ctx, b.String(), insightSystemPrompt, llmcap.CompletionOptions{
		Model:       model,
		Temperature: 0,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("aggregator: llm insight extraction failed")
		return nil
	}

	items, err := parseLLMItems(text, maxItems)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("aggregator: failed to parse llm insights json")
		return nil
	}
	return items
}

type llmInsightEvidence struct {
	SegmentIDs []int    `json:"segment_ids"`
	Speakers   []string `json:"speakers"`
	Timestamps []string `json:"timestamps"`
	Quotes     []string `json:"quotes"`
	Confidence float64  `json:"confidence"`
}

type llmInsight struct {
	Type     string              `json:"type"`
	Summary  string              `json:"summary"`
	Owner    string              `json:"owner"`
	Due      string              `json:"due"`
	Source   string              `json:"source"`
	Evidence llmInsightEvidence `json:"evidence"`
}

func parseLLMItems(responseText string, maxItems int) ([]InsightItem, error) {
	trimmed := strings.TrimSpace(responseText)
	var raw struct {
		Items []llmInsight `json:"items"`
	}
	if strings.HasPrefix(trimmed, "[") {
		var arr []llmInsight
		if err := json.Unmarshal([]byte(trimmed), &arr); err != nil {
			return nil, err
		}
		raw.Items = arr
	} else {
		if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
			return nil, err
		}
	}
	if len(raw.Items) > maxItems {
		raw.Items = raw.Items[:maxItems]
	}

	out := make([]InsightItem, 0, len(raw.Items))
	for _, li := range raw.Items {
		if li.Summary == "" {
			continue
		}
		it := newInsightItem(newID(), strings.ToLower(li.Type), li.Summary, li.Source)
		it.Owner = li.Owner
		it.DueDate = li.Due
		if li.Evidence.Confidence != 0 {
			c := li.Evidence.Confidence
			it.Confidence = &c
		}
		if len(li.Evidence.SegmentIDs) > 0 {
			sort.Ints(li.Evidence.SegmentIDs)
			segID := li.Evidence.SegmentIDs[0]
			it.Evidence.SegmentID = &segID
			it.setAnchor(anchorFor(segID))
		}
		if len(li.Evidence.Speakers) > 0 {
			it.Evidence.Speaker = li.Evidence.Speakers[0]
		}
		if len(li.Evidence.Timestamps) > 0 {
			it.Evidence.Timestamp = li.Evidence.Timestamps[0]
		}
		if len(li.Evidence.Quotes) > 0 {
			it.Evidence.Quote = li.Evidence.Quotes[0]
		}
		out = append(out, *it)
	}
	return out, nil
}
