package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMarkdownTables_RepairsFencedTable(t *testing.T) {
	input := "```\n| A | B |\n| - |\n| 1 | 2 |\n```"
	out := NormalizeMarkdownTables(input)
	assert.Contains(t, out, "|---|---|")
}

func TestNormalizeMarkdownTables_LeavesValidSeparatorAlone(t *testing.T) {
	input := "```\n| A | B |\n|---|---|\n| 1 | 2 |\n```"
	out := NormalizeMarkdownTables(input)
	assert.Contains(t, out, "|---|---|")
}

func TestNormalizeMarkdownTables_ReplacesUnicodeDashes(t *testing.T) {
	out := NormalizeMarkdownTables("the range is 1–2 items")
	assert.Equal(t, "the range is 1-2 items", out)
}

func TestNormalizeMarkdownTables_UnindentsPipeTables(t *testing.T) {
	out := NormalizeMarkdownTables("    | A | B |")
	assert.Equal(t, "| A | B |", out)
}
