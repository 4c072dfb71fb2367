// Package transcript holds the normalized meeting-transcript model consumed
// by the context assembler and analyzer runner. Field shapes are ported
// from the ProcessedTranscript/TranscriptSegment/Speaker models of the
// original Python implementation.
package transcript

import (
	"fmt"
	"strings"
)

// Segment is one turn of a transcript, optionally attributed to a speaker.
type Segment struct {
	SegmentID int    `json:"segment_id"`
	Speaker   string `json:"speaker,omitempty"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Speaker aggregates per-speaker statistics across a transcript.
type Speaker struct {
	ID             string `json:"id"`
	Name           string `json:"name,omitempty"`
	SegmentsCount  int    `json:"segments_count"`
	TotalWords     int    `json:"total_words"`
}

// Metadata describes the source recording.
type Metadata struct {
	Filename     string `json:"filename,omitempty"`
	Date         string `json:"date,omitempty"`
	Duration     string `json:"duration,omitempty"`
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	WordCount    int    `json:"word_count"`
	SegmentCount int    `json:"segment_count"`
	SpeakerCount int    `json:"speaker_count"`
}

// Transcript is the normalized, segment-indexed form of a meeting recording.
type Transcript struct {
	Segments         []Segment `json:"segments"`
	Speakers         []Speaker `json:"speakers"`
	Metadata         Metadata  `json:"metadata"`
	RawText          string    `json:"raw_text"`
	HasSpeakerNames  bool      `json:"has_speaker_names"`
}

// TextForAnalysis joins every segment into the flat "Speaker: text" form
// analyzers and the context assembler operate on.
func (t Transcript) TextForAnalysis() string {
	var b strings.Builder
	for i, s := range t.Segments {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if s.Speaker != "" {
			fmt.Fprintf(&b, "%s: %s", s.Speaker, s.Text)
		} else {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// FromPlainText builds a minimal Transcript out of raw text, one segment per
// non-empty line, taking a leading "Name:" label as the segment's speaker
// and assigning sequential segment IDs. This
// is the default path when no structured transcript parser has already run
// (transcript parsing proper is an out-of-scope collaborator; this is the
// fallback used by the CLI harness and tests).
func FromPlainText(raw string) Transcript {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	segments := make([]Segment, 0, len(lines))
	wordCount := 0
	id := 0
	for _, ln := range lines {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		speaker, text := splitSpeakerLine(ln)
		segments = append(segments, Segment{SegmentID: id, Speaker: speaker, Text: text})
		wordCount += len(strings.Fields(text))
		id++
	}
	hasNames := false
	seen := map[string]bool{}
	var speakers []Speaker
	for _, s := range segments {
		if s.Speaker == "" {
			continue
		}
		hasNames = true
		if !seen[s.Speaker] {
			seen[s.Speaker] = true
			speakers = append(speakers, Speaker{ID: s.Speaker, Name: s.Speaker})
		}
	}
	for i := range speakers {
		for _, s := range segments {
			if s.Speaker == speakers[i].ID {
				speakers[i].SegmentsCount++
				speakers[i].TotalWords += len(strings.Fields(s.Text))
			}
		}
	}
	return Transcript{
		Segments:        segments,
		Speakers:        speakers,
		HasSpeakerNames: hasNames,
		RawText:         raw,
		Metadata: Metadata{
			WordCount:    wordCount,
			SegmentCount: len(segments),
			SpeakerCount: len(speakers),
		},
	}
}

// splitSpeakerLine recognizes a leading "Name: " label on a line.
func splitSpeakerLine(ln string) (speaker, text string) {
	idx := strings.Index(ln, ":")
	if idx <= 0 || idx > 48 {
		return "", ln
	}
	candidate := strings.TrimSpace(ln[:idx])
	if candidate == "" || strings.ContainsAny(candidate, "\t") {
		return "", ln
	}
	for _, r := range candidate {
		if !(r == ' ' || r == '-' || r == '\'' || r == '.' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return "", ln
		}
	}
	return candidate, strings.TrimSpace(ln[idx+1:])
}
