package speakers

import (
	"math/rand/v2"
	"testing"
)

func TestCatalogShape(t *testing.T) {
	c := NewCatalog()
	if c.Len() != 109 {
		t.Fatalf("expected 109 voices, got %d", c.Len())
	}
	for i, d := range c.All() {
		if d.ID != i {
			t.Fatalf("ids must be dense: index %d has id %d", i, d.ID)
		}
		if d.Gender != Male && d.Gender != Female {
			t.Fatalf("voice %s has gender %q", d.Name, d.Gender)
		}
		if d.Pitch == "" {
			t.Fatalf("voice %s has no pitch category", d.Name)
		}
	}
	first, ok := c.Lookup(0)
	if !ok || first.Name != "p225" {
		t.Fatalf("unexpected first voice %+v", first)
	}
	if _, ok := c.Lookup(109); ok {
		t.Fatal("expected out-of-range lookup to fail")
	}
	if d, ok := c.LookupName("P376"); !ok || d.ID != 108 {
		t.Fatalf("unexpected lookup by name %+v %v", d, ok)
	}
}

func TestBucketForAge(t *testing.T) {
	cases := map[int]AgeBucket{0: AgeUnknown, 18: AgeYoung, 24: AgeYoung, 25: AgeMiddle, 40: AgeMiddle, 41: AgeOlder}
	for age, want := range cases {
		if got := BucketForAge(age); got != want {
			t.Fatalf("age %d: want %q got %q", age, want, got)
		}
	}
}

func TestCatalogFilter(t *testing.T) {
	c := NewCatalog()
	scots := c.Filter(Filter{Gender: "f", Accent: "scottish"})
	if len(scots) == 0 {
		t.Fatal("expected female scottish voices")
	}
	for _, d := range scots {
		if d.Gender != Female || d.Accent != "Scottish" {
			t.Fatalf("filter leaked %+v", d)
		}
	}
	if got := len(c.Filter(Filter{})); got != c.Len() {
		t.Fatalf("empty filter should return everything, got %d", got)
	}
	for _, d := range c.Filter(Filter{Pitch: PitchLow, Gender: Male}) {
		if d.Pitch != PitchLow {
			t.Fatalf("unexpected pitch %+v", d)
		}
	}
}

func TestPitchVariant(t *testing.T) {
	c := NewCatalog()
	for _, base := range c.All() {
		variant, ok := c.PitchVariant(base.ID, "")
		if !ok {
			t.Fatalf("no variant for %s", base.Name)
		}
		if variant.Gender != base.Gender || variant.Pitch == base.Pitch || variant.ID == base.ID {
			t.Fatalf("bad variant %+v for %+v", variant, base)
		}
		// No other candidate may be strictly closer in age.
		for _, other := range c.All() {
			if other.Gender != base.Gender || other.Pitch == base.Pitch || other.ID == base.ID {
				continue
			}
			if ageDistance(*base.Age, other) < ageDistance(*base.Age, variant) {
				t.Fatalf("%s is closer than %s to %s", other.Name, variant.Name, base.Name)
			}
			if ageDistance(*base.Age, other) == ageDistance(*base.Age, variant) && other.ID < variant.ID {
				t.Fatalf("tie must resolve to lower id: %s before %s", other.Name, variant.Name)
			}
		}
	}
	if _, ok := c.PitchVariant(-1, ""); ok {
		t.Fatal("expected unknown id to fail")
	}
}

func TestDefaultVoices(t *testing.T) {
	c := NewCatalog()
	if d := c.Default("F"); d.Gender != Female {
		t.Fatalf("female default has gender %q", d.Gender)
	}
	if d := c.Default("m"); d.Gender != Male {
		t.Fatalf("male default has gender %q", d.Gender)
	}
	if d := c.Default(""); d.Name != "p243" {
		t.Fatalf("unexpected narrator %s", d.Name)
	}
}

func TestMatcherRanksFemaleBritishAboveMaleScottish(t *testing.T) {
	c := NewCatalog()
	m := NewMatcher(c, WithSeed(1))
	ranked := m.Rank([]string{"female", "british"})
	if len(ranked) != c.Len() {
		t.Fatalf("expected full ranking, got %d", len(ranked))
	}
	score := map[int]int{}
	for _, s := range ranked {
		score[s.ID] = s.Score
	}
	femaleEnglish, _ := c.LookupName("p225")
	maleScottish, _ := c.LookupName("p237")
	if score[femaleEnglish.ID] <= score[maleScottish.ID] {
		t.Fatalf("female english (%d) must outrank male scottish (%d)", score[femaleEnglish.ID], score[maleScottish.ID])
	}
	best, ok := m.Select([]string{"female", "british"})
	if !ok || best.Gender != Female {
		t.Fatalf("unexpected selection %+v %v", best, ok)
	}
}

func TestMatcherNoPreference(t *testing.T) {
	m := NewMatcher(NewCatalog(), WithSeed(1))
	if got := m.Rank(nil); got != nil {
		t.Fatalf("empty query should return nil, got %d entries", len(got))
	}
	if got := m.Rank([]string{"quixotic", "zz"}); got != nil {
		t.Fatalf("unrecognized query should return nil, got %d entries", len(got))
	}
	if _, ok := m.Select([]string{"quixotic"}); ok {
		t.Fatal("expected no preference")
	}
}

func TestMatcherOppositeGenderPenalized(t *testing.T) {
	m := NewMatcher(NewCatalog(), WithSeed(1))
	for _, s := range m.Rank([]string{"male", "scottish", "edinburgh"}) {
		if s.Gender == Female && s.Score > 0 {
			t.Fatalf("female voice %s scored %d for a male query", s.Name, s.Score)
		}
	}
}

func TestMatcherSeededTieBreakIsReproducible(t *testing.T) {
	c := NewCatalog()
	tokens := []string{"female", "american"}
	pick := func() []int {
		m := NewMatcher(c, WithRand(rand.New(rand.NewPCG(7, 7))))
		var ids []int
		for range 20 {
			s, ok := m.Select(tokens)
			if !ok {
				t.Fatal("expected selection")
			}
			ids = append(ids, s.ID)
		}
		return ids
	}
	a, b := pick(), pick()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("seeded picks diverged at %d: %v vs %v", i, a, b)
		}
	}
	varied := false
	for _, id := range a[1:] {
		if id != a[0] {
			varied = true
		}
	}
	if !varied {
		t.Fatalf("expected ties to spread across voices, got %v", a)
	}
}

func TestTraitTokens(t *testing.T) {
	got := TraitTokens("Middle-aged WOMAN", "gravelly voice, woman", "Zoë")
	want := []string{"middle-aged", "middle", "aged", "woman", "gravelly", "voice", "zoe"}
	if len(got) != len(want) {
		t.Fatalf("want %v got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("want %v got %v", want, got)
		}
	}
}

func TestNameMatching(t *testing.T) {
	cases := []struct {
		a, b   string
		loose  bool
		strict bool
	}{
		{"Mr. Dursley", "dursley", true, true},
		{"Harry Potter", "Harry", true, false},
		{"Harry", "Barry", false, false},
		{"Hermione", "hermione", true, true},
		{"Ron Weasley", "Ginny Weasley", true, false},
		{"Mrs. Figg", "Mrs. Dursley", false, false},
		{"Professor Snape", "Professor McGonagall", false, false},
		{"Zoë", "Zoe", true, true},
		{"", "Harry", false, false},
	}
	for _, tc := range cases {
		if got := NamesMatch(tc.a, tc.b); got != tc.loose {
			t.Errorf("NamesMatch(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.loose)
		}
		if got := NamesMatchStrict(tc.a, tc.b); got != tc.strict {
			t.Errorf("NamesMatchStrict(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.strict)
		}
	}
}

func TestCanonicalAndDisplayName(t *testing.T) {
	if got := CanonicalName("  O'Brien,   the  Elder! "); got != "obrien the elder" {
		t.Fatalf("unexpected canonical name %q", got)
	}
	if got := DisplayName("  alice   liddell "); got != "Alice Liddell" {
		t.Fatalf("unexpected display name %q", got)
	}
	if got := DisplayName("McGonagall"); got != "McGonagall" {
		t.Fatalf("mixed case must be preserved, got %q", got)
	}
}

func TestGenderFromTokens(t *testing.T) {
	cases := []struct {
		traits []string
		want   string
	}{
		{[]string{"young woman", "british"}, Female},
		{[]string{"gravelly voice", "old man"}, Male},
		{[]string{"nervous"}, ""},
		{[]string{"male", "female"}, ""},
	}
	for _, tc := range cases {
		if got := GenderFromTokens(TraitTokens(tc.traits...)); got != tc.want {
			t.Fatalf("GenderFromTokens(%v) = %q, want %q", tc.traits, got, tc.want)
		}
	}
}

func TestMentions(t *testing.T) {
	text := CanonicalName(`"Good morning," said Mr. Dursley to the cat.`)
	if !Mentions(text, "Mr. Dursley") || !Mentions(text, "Vernon Dursley") {
		t.Fatal("expected Dursley mention")
	}
	if Mentions(text, "Dudley") {
		t.Fatal("Dudley is not mentioned")
	}
	if Mentions(text, "Mr. Figg") {
		t.Fatal("an honorific alone is not a mention")
	}
	if got := SignificantTokens("Mr. Vernon Dursley"); len(got) != 2 || got[0] != "vernon" || got[1] != "dursley" {
		t.Fatalf("unexpected significant tokens %v", got)
	}
}
