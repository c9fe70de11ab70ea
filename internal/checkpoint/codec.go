package checkpoint

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"voicecast/internal/analysis"
)

// Checkpoint is an immutable snapshot of a chapter after a completed stage.
type Checkpoint struct {
	OwnerID           int64
	SubID             int64
	Timestamp         time.Time
	ContentHash       string
	LastCompletedStep int
	Characters        map[string]*analysis.Character
	TotalDialogs      int
	PagesProcessed    int
}

// FromContext snapshots ac after stage completedStep. Characters are deep
// copied and the timestamp is truncated to the millisecond precision of the
// wire format.
func FromContext(ac *analysis.Context, completedStep int, now time.Time) *Checkpoint {
	chars := make(map[string]*analysis.Character, len(ac.Characters))
	for k, ch := range ac.Characters {
		chars[k] = ch.Clone()
	}
	return &Checkpoint{
		OwnerID:           ac.OwnerID,
		SubID:             ac.SubID,
		Timestamp:         time.UnixMilli(now.UnixMilli()),
		ContentHash:       ac.Fingerprint,
		LastCompletedStep: completedStep,
		Characters:        chars,
		TotalDialogs:      ac.TotalDialogs,
		PagesProcessed:    ac.ParagraphsProcessed,
	}
}

// Restore rebuilds a run context from the checkpoint and the current
// paragraphs.
func (c *Checkpoint) Restore(paragraphs []string) *analysis.Context {
	ac := analysis.NewContext(c.OwnerID, c.SubID, c.ContentHash, paragraphs)
	for k, ch := range c.Characters {
		ac.Characters[k] = ch.Clone()
	}
	ac.TotalDialogs = c.TotalDialogs
	ac.ParagraphsProcessed = c.PagesProcessed
	return ac
}

type wireCheckpoint struct {
	OwnerID           *int64                   `json:"ownerId"`
	SubID             *int64                   `json:"subId"`
	Timestamp         int64                    `json:"timestamp"`
	ContentHash       contentHash              `json:"contentHash"`
	LastCompletedStep *int                     `json:"lastCompletedStep"`
	Characters        map[string]wireCharacter `json:"characters"`
	TotalDialogs      int                      `json:"totalDialogs"`
	PagesProcessed    int                      `json:"pagesProcessed"`
}

type wireCharacter struct {
	Name           string       `json:"name"`
	CanonicalName  string       `json:"canonicalName"`
	Traits         []string     `json:"traits"`
	PagesAppearing []int        `json:"pagesAppearing"`
	Dialogs        []wireDialog `json:"dialogs"`
	VoiceProfile   *wireVoice   `json:"voiceProfile"`
	SpeakerID      *int         `json:"speakerId"`
}

type wireDialog struct {
	Page      int     `json:"page"`
	Text      string  `json:"text"`
	Emotion   string  `json:"emotion"`
	Intensity float64 `json:"intensity"`
}

type wireVoice struct {
	Gender      string             `json:"gender"`
	Age         string             `json:"age"`
	Tone        string             `json:"tone"`
	Accent      string             `json:"accent,omitempty"`
	Pitch       float64            `json:"pitch"`
	Speed       float64            `json:"speed"`
	Energy      float64            `json:"energy"`
	EmotionBias map[string]float64 `json:"emotionBias,omitempty"`
}

// contentHash accepts either a JSON string or a JSON number; numbers are kept
// in their literal decimal form.
type contentHash string

func (h *contentHash) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*h = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*h = contentHash(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("contentHash must be a string or number: %w", err)
	}
	*h = contentHash(n.String())
	return nil
}

// Encode serializes a checkpoint to the on-disk JSON format.
func Encode(c *Checkpoint) ([]byte, error) {
	if c == nil {
		return nil, errors.New("checkpoint is nil")
	}
	owner, sub, step := c.OwnerID, c.SubID, c.LastCompletedStep
	w := wireCheckpoint{
		OwnerID:           &owner,
		SubID:             &sub,
		Timestamp:         c.Timestamp.UnixMilli(),
		ContentHash:       contentHash(c.ContentHash),
		LastCompletedStep: &step,
		Characters:        make(map[string]wireCharacter, len(c.Characters)),
		TotalDialogs:      c.TotalDialogs,
		PagesProcessed:    c.PagesProcessed,
	}
	for key, ch := range c.Characters {
		if ch == nil {
			continue
		}
		wc := wireCharacter{
			Name:           ch.Name,
			CanonicalName:  ch.CanonicalName,
			Traits:         ch.SortedTraits(),
			PagesAppearing: ch.SortedPages(),
			Dialogs:        make([]wireDialog, 0, len(ch.Dialogs)),
		}
		for _, d := range ch.Dialogs {
			wc.Dialogs = append(wc.Dialogs, wireDialog(d))
		}
		if p := ch.VoiceProfile; p != nil {
			wc.VoiceProfile = &wireVoice{
				Gender:      p.Gender,
				Age:         p.Age,
				Tone:        p.Tone,
				Accent:      p.Accent,
				Pitch:       p.Pitch,
				Speed:       p.Speed,
				Energy:      p.Energy,
				EmotionBias: maps.Clone(p.EmotionBias),
			}
		}
		if ch.SpeakerID != nil {
			id := *ch.SpeakerID
			wc.SpeakerID = &id
		}
		w.Characters[key] = wc
	}
	return json.MarshalIndent(w, "", "  ")
}

// Decode parses and validates the on-disk JSON format.
func Decode(data []byte) (*Checkpoint, error) {
	var w wireCheckpoint
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	switch {
	case w.OwnerID == nil || w.SubID == nil:
		return nil, errors.New("checkpoint missing ownerId or subId")
	case strings.TrimSpace(string(w.ContentHash)) == "":
		return nil, errors.New("checkpoint missing contentHash")
	case w.LastCompletedStep == nil || *w.LastCompletedStep < -1:
		return nil, errors.New("checkpoint has invalid lastCompletedStep")
	case w.Timestamp <= 0:
		return nil, errors.New("checkpoint has invalid timestamp")
	case w.TotalDialogs < 0 || w.PagesProcessed < 0:
		return nil, errors.New("checkpoint has negative counters")
	}

	c := &Checkpoint{
		OwnerID:           *w.OwnerID,
		SubID:             *w.SubID,
		Timestamp:         time.UnixMilli(w.Timestamp),
		ContentHash:       string(w.ContentHash),
		LastCompletedStep: *w.LastCompletedStep,
		Characters:        make(map[string]*analysis.Character, len(w.Characters)),
		TotalDialogs:      w.TotalDialogs,
		PagesProcessed:    w.PagesProcessed,
	}
	for key, wc := range w.Characters {
		if strings.TrimSpace(key) == "" {
			return nil, errors.New("checkpoint has a character with an empty key")
		}
		canonical := wc.CanonicalName
		if canonical == "" {
			canonical = key
		}
		name := wc.Name
		if name == "" {
			name = key
		}
		ch := analysis.NewCharacter(name, canonical)
		for _, p := range wc.PagesAppearing {
			ch.AddPage(p)
		}
		for _, t := range wc.Traits {
			ch.Traits[t] = struct{}{}
		}
		if len(wc.Dialogs) > 0 {
			ch.Dialogs = make([]analysis.DialogLine, 0, len(wc.Dialogs))
			for _, d := range wc.Dialogs {
				ch.Dialogs = append(ch.Dialogs, analysis.DialogLine(d))
			}
		}
		if v := wc.VoiceProfile; v != nil {
			ch.VoiceProfile = &analysis.VoiceProfile{
				Gender:      v.Gender,
				Age:         v.Age,
				Tone:        v.Tone,
				Accent:      v.Accent,
				Pitch:       v.Pitch,
				Speed:       v.Speed,
				Energy:      v.Energy,
				EmotionBias: v.EmotionBias,
			}
			if ch.VoiceProfile.EmotionBias == nil {
				ch.VoiceProfile.EmotionBias = map[string]float64{}
			}
		}
		if wc.SpeakerID != nil {
			id := *wc.SpeakerID
			ch.SpeakerID = &id
		}
		c.Characters[key] = ch
	}
	return c, nil
}
