package analysis

import (
	"maps"
	"slices"
	"strings"
)

// DialogLine is one quoted utterance attributed to a character.
type DialogLine struct {
	Page      int
	Text      string
	Emotion   string
	Intensity float64
}

// Character accumulates everything the pipeline learns about one speaker.
// Records are created on first mention and only ever merged.
type Character struct {
	Name          string
	CanonicalName string
	Pages         map[int]struct{}
	Dialogs       []DialogLine
	Traits        map[string]struct{}
	VoiceProfile  *VoiceProfile
	SpeakerID     *int
}

// NewCharacter returns an empty record for name keyed by canonical.
func NewCharacter(name, canonical string) *Character {
	return &Character{
		Name:          name,
		CanonicalName: canonical,
		Pages:         map[int]struct{}{},
		Traits:        map[string]struct{}{},
	}
}

// AddPage records that the character appears in paragraph page.
func (c *Character) AddPage(page int) {
	if page < 0 {
		return
	}
	if c.Pages == nil {
		c.Pages = map[int]struct{}{}
	}
	c.Pages[page] = struct{}{}
}

// AddTraits merges non-empty, trimmed, lowercased traits into the set.
func (c *Character) AddTraits(traits ...string) {
	if c.Traits == nil {
		c.Traits = map[string]struct{}{}
	}
	for _, t := range traits {
		t = strings.ToLower(strings.Join(strings.Fields(t), " "))
		if t != "" {
			c.Traits[t] = struct{}{}
		}
	}
}

// SortedPages returns the page set in ascending order.
func (c *Character) SortedPages() []int {
	return slices.Sorted(maps.Keys(c.Pages))
}

// SortedTraits returns the trait set in lexical order.
func (c *Character) SortedTraits() []string {
	return slices.Sorted(maps.Keys(c.Traits))
}

// Clone returns a deep copy.
func (c *Character) Clone() *Character {
	if c == nil {
		return nil
	}
	out := &Character{
		Name:          c.Name,
		CanonicalName: c.CanonicalName,
		Pages:         maps.Clone(c.Pages),
		Dialogs:       slices.Clone(c.Dialogs),
		Traits:        maps.Clone(c.Traits),
		VoiceProfile:  c.VoiceProfile.Clone(),
	}
	if out.Pages == nil {
		out.Pages = map[int]struct{}{}
	}
	if out.Traits == nil {
		out.Traits = map[string]struct{}{}
	}
	if c.SpeakerID != nil {
		id := *c.SpeakerID
		out.SpeakerID = &id
	}
	return out
}

// Context is the state one pipeline run threads through its stages.
type Context struct {
	OwnerID             int64
	SubID               int64
	Fingerprint         string
	Paragraphs          []string
	Characters          map[string]*Character
	TotalDialogs        int
	ParagraphsProcessed int
}

// NewContext builds a fresh context for one chapter.
func NewContext(ownerID, subID int64, fingerprint string, paragraphs []string) *Context {
	return &Context{
		OwnerID:     ownerID,
		SubID:       subID,
		Fingerprint: fingerprint,
		Paragraphs:  paragraphs,
		Characters:  map[string]*Character{},
	}
}

// Clone deep-copies the mutable parts of the context. Paragraphs are shared;
// stages never modify them.
func (ac *Context) Clone() *Context {
	out := *ac
	out.Characters = make(map[string]*Character, len(ac.Characters))
	for key, ch := range ac.Characters {
		out.Characters[key] = ch.Clone()
	}
	return &out
}

// CharacterKeys returns the character map keys in lexical order so stages
// iterate deterministically.
func (ac *Context) CharacterKeys() []string {
	return slices.Sorted(maps.Keys(ac.Characters))
}

// SortedCharacters returns the characters ordered by key.
func (ac *Context) SortedCharacters() []*Character {
	keys := ac.CharacterKeys()
	out := make([]*Character, 0, len(keys))
	for _, k := range keys {
		out = append(out, ac.Characters[k])
	}
	return out
}

// DialogCount sums the dialog lines attached to characters.
func (ac *Context) DialogCount() int {
	n := 0
	for _, ch := range ac.Characters {
		n += len(ch.Dialogs)
	}
	return n
}
