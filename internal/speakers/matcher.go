package speakers

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"unicode"
)

// Rule weights.
const (
	genderWeight    = 10
	ageWeight       = 4
	accentWeight    = 6
	substringWeight = 2
)

var genderTokens = map[string]string{
	"female": Female, "woman": Female, "women": Female, "girl": Female, "lady": Female,
	"feminine": Female, "mrs": Female, "miss": Female, "ms": Female, "queen": Female,
	"princess": Female, "mother": Female, "sister": Female, "daughter": Female,
	"aunt": Female, "grandmother": Female, "wife": Female, "madam": Female, "widow": Female,
	"male": Male, "man": Male, "men": Male, "boy": Male, "gentleman": Male,
	"masculine": Male, "mr": Male, "sir": Male, "king": Male, "prince": Male,
	"lord": Male, "father": Male, "brother": Male, "son": Male, "uncle": Male,
	"grandfather": Male, "husband": Male, "widower": Male,
}

var ageTokens = map[string]AgeBucket{
	"young": AgeYoung, "youth": AgeYoung, "youthful": AgeYoung, "child": AgeYoung,
	"kid": AgeYoung, "teen": AgeYoung, "teenager": AgeYoung, "teenage": AgeYoung,
	"boy": AgeYoung, "girl": AgeYoung, "adolescent": AgeYoung, "student": AgeYoung,
	"adult": AgeMiddle, "middle": AgeMiddle, "middle-aged": AgeMiddle, "mature": AgeMiddle,
	"thirties": AgeMiddle, "forties": AgeMiddle,
	"old": AgeOlder, "older": AgeOlder, "elderly": AgeOlder, "aged": AgeOlder, "senior": AgeOlder,
	"ancient": AgeOlder, "elder": AgeOlder, "grey": AgeOlder, "gray": AgeOlder,
	"grandfather": AgeOlder, "grandmother": AgeOlder,
}

var accentTokens = map[string][]string{
	"british":    {"English", "Scottish", "Welsh", "Northern Irish"},
	"english":    {"English"},
	"england":    {"English"},
	"cockney":    {"English"},
	"scottish":   {"Scottish"},
	"scots":      {"Scottish"},
	"scot":       {"Scottish"},
	"scotland":   {"Scottish"},
	"welsh":      {"Welsh"},
	"wales":      {"Welsh"},
	"irish":      {"Irish", "Northern Irish"},
	"ireland":    {"Irish", "Northern Irish"},
	"ulster":     {"Northern Irish"},
	"american":   {"American"},
	"yankee":     {"American"},
	"canadian":   {"Canadian"},
	"australian": {"Australian"},
	"aussie":     {"Australian"},
	"zealand":    {"New Zealand"},
	"kiwi":       {"New Zealand"},
	"african":    {"South African"},
	"indian":     {"Indian"},
	"french":     {"French"},
}

// Scored pairs a voice with its score for one query.
type Scored struct {
	Descriptor
	Score int
}

// Matcher ranks catalog voices against character trait tokens. Safe for
// concurrent use.
type Matcher struct {
	catalog *Catalog

	mu  sync.Mutex
	rng *rand.Rand
}

// MatcherOption customizes a Matcher.
type MatcherOption func(*Matcher)

// WithRand sets the tie-break source.
func WithRand(rng *rand.Rand) MatcherOption {
	return func(m *Matcher) {
		if rng != nil {
			m.rng = rng
		}
	}
}

// WithSeed makes tie-breaks reproducible.
func WithSeed(seed uint64) MatcherOption {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// NewMatcher builds a matcher over catalog. Without options ties are broken
// by a randomly seeded source.
func NewMatcher(catalog *Catalog, opts ...MatcherOption) *Matcher {
	m := &Matcher{catalog: catalog}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return m
}

// Catalog returns the catalog the matcher scores against.
func (m *Matcher) Catalog() *Catalog {
	return m.catalog
}

// TraitTokens splits free-text traits into lowercase, diacritic-folded,
// de-duplicated tokens. Hyphenated words are kept whole and also split.
func TraitTokens(traits ...string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(tok string) {
		tok = strings.Trim(tok, "-")
		if tok == "" {
			return
		}
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	for _, trait := range traits {
		words := strings.FieldsFunc(foldText(trait), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
		})
		for _, word := range words {
			add(word)
			if strings.Contains(word, "-") {
				for _, part := range strings.Split(word, "-") {
					add(part)
				}
			}
		}
	}
	return out
}

// Rank scores every voice against tokens and returns them best first, ties in
// id order. It returns nil when no token is recognized by any rule, meaning
// the caller should fall back to a default voice.
func (m *Matcher) Rank(tokens []string) []Scored {
	if len(tokens) == 0 {
		return nil
	}
	scored := make([]Scored, 0, m.catalog.Len())
	recognized := false
	for _, d := range m.catalog.entries {
		score, hit := scoreDescriptor(d, tokens)
		recognized = recognized || hit
		scored = append(scored, Scored{Descriptor: d, Score: score})
	}
	if !recognized {
		return nil
	}
	slices.SortStableFunc(scored, func(a, b Scored) int {
		return cmp.Or(cmp.Compare(b.Score, a.Score), cmp.Compare(a.ID, b.ID))
	})
	return scored
}

// Select picks the best voice for tokens, breaking ties at the top score
// uniformly at random. ok is false when there is no preference: no token was
// recognized or no voice scored above zero.
func (m *Matcher) Select(tokens []string) (Scored, bool) {
	ranked := m.Rank(tokens)
	if len(ranked) == 0 || ranked[0].Score <= 0 {
		return Scored{}, false
	}
	top := ranked[0].Score
	tied := 1
	for tied < len(ranked) && ranked[tied].Score == top {
		tied++
	}
	if tied == 1 {
		return ranked[0], true
	}
	m.mu.Lock()
	pick := m.rng.IntN(tied)
	m.mu.Unlock()
	return ranked[pick], true
}

func scoreDescriptor(d Descriptor, tokens []string) (int, bool) {
	score := 0
	recognized := false
	accent := strings.ToLower(d.Accent)
	region := strings.ToLower(d.Region)
	for _, tok := range tokens {
		if gender, ok := genderTokens[tok]; ok {
			recognized = true
			if gender == d.Gender {
				score += genderWeight
			} else {
				score -= genderWeight
			}
		}
		if bucket, ok := ageTokens[tok]; ok {
			recognized = true
			if bucket == d.AgeBucket {
				score += ageWeight
			}
		}
		if accents, ok := accentTokens[tok]; ok {
			recognized = true
			if slices.Contains(accents, d.Accent) {
				score += accentWeight
			}
		}
		if len(tok) >= 4 && (strings.Contains(accent, tok) || strings.Contains(region, tok)) {
			recognized = true
			score += substringWeight
		}
	}
	return score, recognized
}

// GenderFromTokens returns the gender most tokens point to, or "" when the
// tokens are silent or evenly split.
func GenderFromTokens(tokens []string) string {
	female, male := 0, 0
	for _, tok := range tokens {
		switch genderTokens[tok] {
		case Female:
			female++
		case Male:
			male++
		}
	}
	switch {
	case female > male:
		return Female
	case male > female:
		return Male
	default:
		return ""
	}
}
