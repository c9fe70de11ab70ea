package speakers

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var honorifics = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "miss": {}, "mister": {}, "missus": {},
	"dr": {}, "doctor": {}, "prof": {}, "professor": {},
	"sir": {}, "dame": {}, "lady": {}, "lord": {}, "madam": {}, "madame": {},
	"captain": {}, "capt": {}, "uncle": {}, "aunt": {}, "auntie": {},
	"father": {}, "mother": {}, "king": {}, "queen": {}, "prince": {}, "princess": {},
	"st": {}, "saint": {}, "rev": {}, "reverend": {},
}

// Tokens that never identify a character on their own.
var fillerTokens = map[string]struct{}{
	"the": {}, "and": {}, "of": {}, "von": {}, "van": {}, "de": {},
}

// foldText lowercases and strips diacritics so "Zoë" and "zoe" compare equal.
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// CanonicalName lowercases, folds diacritics, strips punctuation, and
// collapses whitespace. Apostrophes are dropped without splitting the word.
func CanonicalName(name string) string {
	folded := foldText(name)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r == '\'' || r == '’':
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func stripHonorifics(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, ok := honorifics[tok]; ok {
			continue
		}
		out = append(out, tok)
	}
	if len(out) == 0 {
		return tokens
	}
	return out
}

// NamesMatch reports whether two mentions refer to the same character: equal
// canonical forms, one contained in the other on word boundaries, or a shared
// token of at least three letters that is not an honorific.
func NamesMatch(a, b string) bool {
	ca, cb := CanonicalName(a), CanonicalName(b)
	if ca == "" || cb == "" {
		return false
	}
	if ca == cb {
		return true
	}
	pa, pb := " "+ca+" ", " "+cb+" "
	if strings.Contains(pa, pb) || strings.Contains(pb, pa) {
		return true
	}
	seen := make(map[string]struct{})
	for _, tok := range strings.Fields(ca) {
		if significantToken(tok) {
			seen[tok] = struct{}{}
		}
	}
	for _, tok := range strings.Fields(cb) {
		if _, ok := seen[tok]; ok {
			return true
		}
	}
	return false
}

func significantToken(tok string) bool {
	if len([]rune(tok)) < 3 {
		return false
	}
	if _, ok := honorifics[tok]; ok {
		return false
	}
	_, filler := fillerTokens[tok]
	return !filler
}

// NamesMatchStrict reports whether two names are equal once honorifics are
// removed, so "Mr. Dursley" matches "Dursley" but "Harry Potter" does not
// match "Harry".
func NamesMatchStrict(a, b string) bool {
	ta := stripHonorifics(strings.Fields(CanonicalName(a)))
	tb := stripHonorifics(strings.Fields(CanonicalName(b)))
	if len(ta) == 0 || len(tb) == 0 {
		return false
	}
	return strings.Join(ta, " ") == strings.Join(tb, " ")
}

// DisplayName trims a model-reported name and title-cases it when the model
// returned it in all lower or all upper case.
func DisplayName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	if name == strings.ToLower(name) || name == strings.ToUpper(name) {
		return cases.Title(language.English).String(name)
	}
	return name
}

// Mentions reports whether text mentions name: the full canonical name, or
// any significant token of it, appears in text on word boundaries.
// canonicalText must already be CanonicalName(text).
func Mentions(canonicalText, name string) bool {
	cn := CanonicalName(name)
	if cn == "" || canonicalText == "" {
		return false
	}
	padded := " " + canonicalText + " "
	if strings.Contains(padded, " "+cn+" ") {
		return true
	}
	for _, tok := range strings.Fields(cn) {
		if significantToken(tok) && strings.Contains(padded, " "+tok+" ") {
			return true
		}
	}
	return false
}

// SignificantTokens returns the tokens of a canonical name that can identify
// a character on their own.
func SignificantTokens(name string) []string {
	var out []string
	for _, tok := range strings.Fields(CanonicalName(name)) {
		if significantToken(tok) {
			out = append(out, tok)
		}
	}
	return out
}
