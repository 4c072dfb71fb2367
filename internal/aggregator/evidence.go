package aggregator

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/intelligencedev/transcriptlens/internal/transcript"
)

var quoteHint = regexp.MustCompile(`“([^”]+)”|"([^"]+)"`)

// attachEvidence does naive substring matching between each item's title (or
// a quoted snippet within it) and the transcript's segment text, attaching
// the first segment whose text contains a normalized prefix of the needle.
func attachEvidence(items []InsightItem, segments []transcript.Segment) {
	if len(items) == 0 || len(segments) == 0 {
		return
	}
	for i := range items {
		it := &items[i]
		needle := strings.ToLower(quoteOrTitle(it))
		if len(needle) > 120 {
			needle = needle[:120]
		}
		for _, seg := range segments {
			if seg.Text == "" {
				continue
			}
			if similarSubstring(needle, strings.ToLower(seg.Text)) {
				segID := seg.SegmentID
				it.Evidence.SegmentID = &segID
				it.Evidence.Speaker = seg.Speaker
				it.Evidence.Timestamp = seg.Timestamp
				quote := seg.Text
				if len(quote) > 200 {
					quote = quote[:200]
				}
				it.Evidence.Quote = strings.TrimSpace(quote)
				it.setAnchor(anchorFor(segID))
				break
			}
		}
	}
}

func anchorFor(segID int) string {
	return "#seg-" + strconv.Itoa(segID)
}

func quoteOrTitle(it *InsightItem) string {
	for _, src := range []string{it.Title, it.Description} {
		if src == "" {
			continue
		}
		if m := quoteHint.FindStringSubmatch(src); m != nil {
			for _, g := range m[1:] {
				if g != "" {
					return g
				}
			}
		}
	}
	return it.Title
}

func similarSubstring(needle, hay string) bool {
	if needle == "" || hay == "" {
		return false
	}
	n := collapseSpaces(needle)
	h := collapseSpaces(hay)
	if len(n) > 40 {
		n = n[:40]
	}
	return strings.Contains(h, n)
}

func collapseSpaces(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
