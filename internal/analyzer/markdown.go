package analyzer

import (
	"regexp"
	"strings"
)

var (
	fenceRe       = regexp.MustCompile("(?s)```(?:\\w+)?\\n(.*?)```")
	pipeLineRe    = regexp.MustCompile(`^\s*\|`)
	separatorCell = regexp.MustCompile(`^:?-{1,}:?$`)
	indentedPipe  = regexp.MustCompile(`(?m)^[ \t]{4,}(\|)`)
)

// NormalizeMarkdownTables repairs markdown tables that an LLM sometimes
// emits malformed: fenced off in a code block, missing/garbled separator
// rows, unicode dash characters instead of ASCII hyphens, and stray
// leading indentation that keeps a pipe table from being recognized. This
// is a direct port of
// original_source/src/utils/markdown_normalizer.py:normalize_markdown_tables.
func NormalizeMarkdownTables(text string) string {
	text = strings.NewReplacer("–", "-", "—", "-", "−", "-").Replace(text)

	text = fenceRe.ReplaceAllStringFunc(text, func(block string) string {
		inner := fenceRe.FindStringSubmatch(block)[1]
		lines := strings.Split(inner, "\n")
		if len(lines) == 0 || !isPipeTableHeader(lines[0]) {
			return block
		}
		if len(lines) < 2 {
			return block
		}
		lines[1] = repairSeparator(lines[0], lines[1])
		return strings.Join(lines, "\n")
	})

	text = indentedPipe.ReplaceAllString(text, "$1")
	return text
}

func isPipeTableHeader(line string) bool {
	return pipeLineRe.MatchString(line) && strings.Count(line, "|") >= 2
}

// repairSeparator rebuilds the markdown table separator row under header if
// sep doesn't already look like a valid one (same column count, every cell
// matching the `:?-+:?` pattern).
func repairSeparator(header, sep string) string {
	cols := columnCount(header)
	if cols <= 0 {
		return sep
	}
	if validSeparator(sep, cols) {
		return sep
	}
	cells := make([]string, cols)
	for i := range cells {
		cells[i] = "---"
	}
	return "|" + strings.Join(cells, "|") + "|"
}

func columnCount(line string) int {
	trimmed := strings.Trim(strings.TrimSpace(line), "|")
	if trimmed == "" {
		return 0
	}
	return len(strings.Split(trimmed, "|"))
}

func validSeparator(sep string, cols int) bool {
	trimmed := strings.Trim(strings.TrimSpace(sep), "|")
	parts := strings.Split(trimmed, "|")
	if len(parts) != cols {
		return false
	}
	for _, p := range parts {
		if !separatorCell.MatchString(strings.TrimSpace(p)) {
			return false
		}
	}
	return true
}
