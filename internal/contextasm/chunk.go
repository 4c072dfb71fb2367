package contextasm

import "strings"

// Chunk is one token-windowed slice of a larger text.
type Chunk struct {
	Index int
	Text  string
}

// ChunkByTokens splits text into overlapping chunks sized in token units,
// approximated with the package's 4-chars-per-token heuristic (matching
// original_source/src/utils/summarizer.py:chunk_text_by_tokens), preferring
// to cut on a whitespace boundary the way the teacher's
// internal/rag/chunker fixedChunk strategy does to avoid mid-word splits.
func ChunkByTokens(text string, chunkTokens, overlapTokens int) []Chunk {
	if chunkTokens <= 0 {
		chunkTokens = 2000
	}
	if overlapTokens < 0 {
		overlapTokens = 0
	}
	tgt := chunkTokens * 4
	if tgt < 32 {
		tgt = 32
	}
	overlapChars := overlapTokens * 4

	var out []Chunk
	start := 0
	idx := 0
	for start < len(text) {
		end := start + tgt
		if end > len(text) {
			end = len(text)
		} else if i := strings.LastIndex(text[start:end], " "); i > tgt/2 {
			end = start + i
		}
		chunk := strings.TrimSpace(text[start:end])
		if chunk != "" {
			out = append(out, Chunk{Index: idx, Text: chunk})
			idx++
		}
		if end >= len(text) {
			break
		}
		next := end - overlapChars
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}
