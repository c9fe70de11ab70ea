package extraction

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxSegmentChars bounds a segment when the stage config leaves it unset.
const DefaultMaxSegmentChars = 4000

const paragraphJoiner = "\n\n"

// Segment is a run of whole paragraphs sent in one inference call. Start and
// End are paragraph indices, End exclusive.
type Segment struct {
	Index      int
	Start      int
	End        int
	Paragraphs []string
}

// Text joins the segment's paragraphs with blank lines.
func (s Segment) Text() string {
	return strings.Join(s.Paragraphs, paragraphJoiner)
}

// Page returns the absolute paragraph index of the i-th paragraph in the segment.
func (s Segment) Page(i int) int {
	return s.Start + i
}

// SplitSegments groups paragraphs into segments of at most maxChars runes,
// never splitting a paragraph. A paragraph longer than maxChars becomes a
// segment on its own. Blank paragraphs are carried along but never start a
// segment by themselves.
func SplitSegments(paragraphs []string, maxChars int) []Segment {
	if maxChars <= 0 {
		maxChars = DefaultMaxSegmentChars
	}
	var (
		out   []Segment
		start = -1
		size  int
	)
	flush := func(end int) {
		if start < 0 {
			return
		}
		out = append(out, Segment{
			Index:      len(out),
			Start:      start,
			End:        end,
			Paragraphs: paragraphs[start:end],
		})
		start, size = -1, 0
	}
	for i, p := range paragraphs {
		n := utf8.RuneCountInString(p)
		if start < 0 {
			if strings.TrimSpace(p) == "" {
				continue
			}
			start, size = i, n
			continue
		}
		if size+len(paragraphJoiner)+n > maxChars {
			flush(i)
			if strings.TrimSpace(p) == "" {
				continue
			}
			start, size = i, n
			continue
		}
		size += len(paragraphJoiner) + n
	}
	flush(len(paragraphs))
	return out
}
