package textutil

import "strings"

// SplitParagraphs breaks plain text into paragraphs on blank lines. Lines
// inside a paragraph are joined with single spaces and runs of whitespace
// are collapsed. Empty paragraphs are dropped.
func SplitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var (
		out     []string
		current []string
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		joined := strings.Join(strings.Fields(strings.Join(current, " ")), " ")
		if joined != "" {
			out = append(out, joined)
		}
		current = current[:0]
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return out
}

// Truncate shortens s to at most limit runes, appending an ellipsis when cut.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
