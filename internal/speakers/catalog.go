package speakers

import (
	"cmp"
	"slices"
	"strings"
)

type row struct {
	name   string // corpus label, e.g. "p225"
	age    int    // 0 when unknown
	gender string // "M" or "F"
	accent string
	region string
}

// Gender codes.
const (
	Male   = "M"
	Female = "F"
)

// Pitch is the fixed pitch category of a voice. The synthesis backend cannot
// shift pitch continuously, so variants are chosen by category.
type Pitch string

const (
	PitchHigh   Pitch = "HIGH"
	PitchMedium Pitch = "MEDIUM"
	PitchLow    Pitch = "LOW"
)

// AgeBucket is the coarse age group used for matching.
type AgeBucket string

const (
	AgeUnknown AgeBucket = ""
	AgeYoung   AgeBucket = "young"
	AgeMiddle  AgeBucket = "middle"
	AgeOlder   AgeBucket = "older"
)

// BucketForAge maps an age in years to its bucket: young <25, middle 25-40,
// older >40.
func BucketForAge(age int) AgeBucket {
	switch {
	case age <= 0:
		return AgeUnknown
	case age < 25:
		return AgeYoung
	case age <= 40:
		return AgeMiddle
	default:
		return AgeOlder
	}
}

// Descriptor describes one catalog voice.
type Descriptor struct {
	ID        int
	Name      string
	Gender    string
	Age       *int
	AgeBucket AgeBucket
	Accent    string
	Region    string
	Pitch     Pitch
}

// Filter narrows Catalog.Filter; empty fields match everything.
type Filter struct {
	Gender string
	Pitch  Pitch
	Accent string
}

// Catalog is the immutable voice table. Safe for concurrent use.
type Catalog struct {
	entries []Descriptor
}

// NewCatalog builds the VCTK catalog.
func NewCatalog() *Catalog {
	entries := make([]Descriptor, len(vctkTable))
	for i, r := range vctkTable {
		d := Descriptor{
			ID:     i,
			Name:   r.name,
			Gender: r.gender,
			Accent: r.accent,
			Region: r.region,
			Pitch:  pitchCategoryFor(r.gender, r.age),
		}
		if r.age > 0 {
			age := r.age
			d.Age = &age
			d.AgeBucket = BucketForAge(age)
		}
		entries[i] = d
	}
	return &Catalog{entries: entries}
}

// pitchCategoryFor discretizes the corpus voices; younger speakers of each
// gender sit higher.
func pitchCategoryFor(gender string, age int) Pitch {
	if gender == Female {
		switch {
		case age > 0 && age < 22:
			return PitchHigh
		case age <= 28:
			return PitchMedium
		default:
			return PitchLow
		}
	}
	switch {
	case age > 0 && age < 21:
		return PitchHigh
	case age <= 23:
		return PitchMedium
	default:
		return PitchLow
	}
}

// Len returns the number of voices.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Lookup returns the voice with the given id.
func (c *Catalog) Lookup(id int) (Descriptor, bool) {
	if id < 0 || id >= len(c.entries) {
		return Descriptor{}, false
	}
	return c.entries[id], true
}

// LookupName finds a voice by corpus label ("p225"), case-insensitively.
func (c *Catalog) LookupName(name string) (Descriptor, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, d := range c.entries {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// All returns a copy of every voice in id order.
func (c *Catalog) All() []Descriptor {
	return slices.Clone(c.entries)
}

// Filter returns the voices matching every non-empty field of f.
func (c *Catalog) Filter(f Filter) []Descriptor {
	gender := strings.ToUpper(strings.TrimSpace(f.Gender))
	pitch := Pitch(strings.ToUpper(strings.TrimSpace(string(f.Pitch))))
	accent := strings.TrimSpace(f.Accent)
	var out []Descriptor
	for _, d := range c.entries {
		if gender != "" && d.Gender != gender {
			continue
		}
		if pitch != "" && d.Pitch != pitch {
			continue
		}
		if accent != "" && !strings.EqualFold(d.Accent, accent) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// PitchVariant returns the same-gender voice with a different pitch category
// whose age is closest to the voice id; ties go to the lower id. An empty
// gender means the gender of id.
func (c *Catalog) PitchVariant(id int, gender string) (Descriptor, bool) {
	base, ok := c.Lookup(id)
	if !ok {
		return Descriptor{}, false
	}
	gender = strings.ToUpper(strings.TrimSpace(gender))
	if gender == "" {
		gender = base.Gender
	}
	candidates := make([]Descriptor, 0, len(c.entries))
	for _, d := range c.entries {
		if d.ID == base.ID || d.Gender != gender || d.Pitch == base.Pitch {
			continue
		}
		candidates = append(candidates, d)
	}
	if len(candidates) == 0 {
		return Descriptor{}, false
	}
	baseAge := ageOf(base)
	best := slices.MinFunc(candidates, func(a, b Descriptor) int {
		return cmp.Or(
			cmp.Compare(ageDistance(baseAge, a), ageDistance(baseAge, b)),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return best, true
}

func ageOf(d Descriptor) int {
	if d.Age == nil {
		return -1
	}
	return *d.Age
}

func ageDistance(baseAge int, d Descriptor) int {
	age := ageOf(d)
	if baseAge < 0 || age < 0 {
		return 1 << 16
	}
	if age > baseAge {
		return age - baseAge
	}
	return baseAge - age
}

// Fallback voices used when matching expresses no preference.
const (
	defaultFemaleID   = 0  // p225, Southern England
	defaultMaleID     = 7  // p232, Southern England
	defaultNarratorID = 16 // p243, London
)

// Default returns the fallback voice for a gender code. Unknown or neutral
// genders get the narrator voice.
func (c *Catalog) Default(gender string) Descriptor {
	id := defaultNarratorID
	switch strings.ToUpper(strings.TrimSpace(gender)) {
	case Female:
		id = defaultFemaleID
	case Male:
		id = defaultMaleID
	}
	if d, ok := c.Lookup(id); ok {
		return d
	}
	return c.entries[0]
}
