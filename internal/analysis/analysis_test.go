package analysis

import (
	"math"
	"slices"
	"testing"
)

func TestCloneIsDeep(t *testing.T) {
	ac := NewContext(1, 2, "abc", []string{"p0"})
	alice := NewCharacter("Alice", "alice")
	alice.AddPage(0)
	alice.AddTraits("Young", "female")
	alice.Dialogs = append(alice.Dialogs, DialogLine{Page: 0, Text: "Hi", Emotion: "happy", Intensity: 0.8})
	alice.VoiceProfile = &VoiceProfile{Pitch: 1.2, EmotionBias: map[string]float64{"happy": 0.5}}
	id := 4
	alice.SpeakerID = &id
	ac.Characters["alice"] = alice

	clone := ac.Clone()
	c := clone.Characters["alice"]
	c.AddPage(9)
	c.AddTraits("brave")
	c.Dialogs[0].Text = "changed"
	c.VoiceProfile.EmotionBias["happy"] = 0.1
	*c.SpeakerID = 99
	clone.Characters["bob"] = NewCharacter("Bob", "bob")

	if _, ok := alice.Pages[9]; ok {
		t.Fatal("page set shared with clone")
	}
	if _, ok := alice.Traits["brave"]; ok {
		t.Fatal("trait set shared with clone")
	}
	if alice.Dialogs[0].Text != "Hi" {
		t.Fatal("dialog slice shared with clone")
	}
	if alice.VoiceProfile.EmotionBias["happy"] != 0.5 {
		t.Fatal("emotion bias shared with clone")
	}
	if *alice.SpeakerID != 4 {
		t.Fatal("speaker id shared with clone")
	}
	if len(ac.Characters) != 1 {
		t.Fatal("character map shared with clone")
	}
}

func TestSortedAccessors(t *testing.T) {
	c := NewCharacter("Alice", "alice")
	for _, p := range []int{5, 1, 3, 1, -2} {
		c.AddPage(p)
	}
	c.AddTraits("  Young   girl ", "", "curious", "young girl")
	if got := c.SortedPages(); !slices.Equal(got, []int{1, 3, 5}) {
		t.Fatalf("unexpected pages %v", got)
	}
	if got := c.SortedTraits(); !slices.Equal(got, []string{"curious", "young girl"}) {
		t.Fatalf("unexpected traits %v", got)
	}

	ac := NewContext(1, 1, "", nil)
	ac.Characters["zed"] = NewCharacter("Zed", "zed")
	ac.Characters["amy"] = NewCharacter("Amy", "amy")
	ac.Characters["amy"].Dialogs = []DialogLine{{}, {}}
	if got := ac.CharacterKeys(); !slices.Equal(got, []string{"amy", "zed"}) {
		t.Fatalf("unexpected key order %v", got)
	}
	if ac.DialogCount() != 2 {
		t.Fatalf("unexpected dialog count %d", ac.DialogCount())
	}
}

func TestVoiceProfileNormalize(t *testing.T) {
	p := &VoiceProfile{
		Pitch:  3,
		Speed:  0.1,
		Energy: math.NaN(),
		EmotionBias: map[string]float64{
			"happy": 1.7,
			"sad":   -0.2,
			"angry": 0.4,
			"weird": math.Inf(1),
		},
	}
	p.Normalize()
	if p.Pitch != 1.5 || p.Speed != 0.5 || p.Energy != 1.0 {
		t.Fatalf("unexpected scales %+v", p)
	}
	if p.EmotionBias["happy"] != 1 || p.EmotionBias["sad"] != 0 || p.EmotionBias["angry"] != 0.4 {
		t.Fatalf("unexpected bias %v", p.EmotionBias)
	}
	if _, ok := p.EmotionBias["weird"]; ok {
		t.Fatal("non-finite bias should be dropped")
	}
}

func TestDefaultVoiceProfileIsNeutral(t *testing.T) {
	p := DefaultVoiceProfile()
	if p.Pitch != 1 || p.Speed != 1 || p.Energy != 1 || p.EmotionBias == nil {
		t.Fatalf("unexpected default %+v", p)
	}
}
