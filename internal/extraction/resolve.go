package extraction

import (
	"strings"

	"voicecast/internal/analysis"
	"voicecast/internal/speakers"
)

// Names that are never characters.
var ignoredNames = map[string]struct{}{
	UnknownSpeaker: {}, "unknown speaker": {}, "narrator": {}, "none": {}, "null": {},
	"n a": {}, "he": {}, "she": {}, "they": {}, "i": {}, "you": {}, "we": {}, "it": {},
}

func ignoredName(canonical string) bool {
	if canonical == "" {
		return true
	}
	_, ok := ignoredNames[canonical]
	return ok
}

// resolveCharacter returns the key of the existing character that name
// refers to, or "" when it is new or ambiguous. Exact canonical keys win,
// then a unique honorific-insensitive match, then a unique loose match.
func resolveCharacter(ac *analysis.Context, name string) string {
	canonical := speakers.CanonicalName(name)
	if ignoredName(canonical) {
		return ""
	}
	if _, ok := ac.Characters[canonical]; ok {
		return canonical
	}
	keys := ac.CharacterKeys()
	if key, ok := unique(keys, func(k string) bool { return speakers.NamesMatchStrict(k, canonical) }); ok {
		return key
	}
	if key, ok := unique(keys, func(k string) bool { return looseMatch(k, canonical) }); ok {
		return key
	}
	return ""
}

func unique(keys []string, match func(string) bool) (string, bool) {
	found := ""
	for _, k := range keys {
		if !match(k) {
			continue
		}
		if found != "" {
			return "", false
		}
		found = k
	}
	return found, found != ""
}

// looseMatch applies speakers.NamesMatch but refuses to merge two multi-word
// names that only share a token, so "Ron Weasley" and "Ginny Weasley" stay
// apart while "Harry" joins "Harry Potter".
func looseMatch(a, b string) bool {
	if !speakers.NamesMatch(a, b) {
		return false
	}
	pa, pb := " "+a+" ", " "+b+" "
	if strings.Contains(pa, pb) || strings.Contains(pb, pa) {
		return true
	}
	return len(speakers.SignificantTokens(a)) <= 1 || len(speakers.SignificantTokens(b)) <= 1
}

// canonicalParagraphs canonicalizes each paragraph of seg once for mention scans.
func canonicalParagraphs(seg Segment) []string {
	out := make([]string, len(seg.Paragraphs))
	for i, p := range seg.Paragraphs {
		out[i] = speakers.CanonicalName(p)
	}
	return out
}

// mentionPages returns the absolute indices of paragraphs in seg that mention name.
func mentionPages(seg Segment, canon []string, name string) []int {
	var pages []int
	for i, text := range canon {
		if speakers.Mentions(text, name) {
			pages = append(pages, seg.Page(i))
		}
	}
	return pages
}
