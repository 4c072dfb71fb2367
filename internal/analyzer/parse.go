package analyzer

import (
	"encoding/json"
	"regexp"
)

var jsonFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(\\{.*?\\})\\s*```")

// ParseStructured looks for a fenced JSON object in an analyzer's raw
// output and decodes it, the same "JSON island" detection
// original_source/src/utils/insight_aggregator.py:_from_json_block applies
// before falling back to structured-section mining and regex heuristics.
// Returns an empty, non-nil map and no error when no JSON island is found.
func ParseStructured(rawOutput string) (map[string]any, error) {
	m := jsonFenceRe.FindStringSubmatch(rawOutput)
	if m == nil {
		return map[string]any{}, nil
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(m[1]), &data); err != nil {
		return map[string]any{}, nil
	}
	return data, nil
}
