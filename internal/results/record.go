package results

import "voicecast/internal/analysis"

type dialogRecord struct {
	Page      int     `json:"page"`
	Text      string  `json:"text"`
	Emotion   string  `json:"emotion"`
	Intensity float64 `json:"intensity"`
}

type voiceRecord struct {
	Gender      string             `json:"gender,omitempty"`
	Age         string             `json:"age,omitempty"`
	Tone        string             `json:"tone,omitempty"`
	Accent      string             `json:"accent,omitempty"`
	Pitch       float64            `json:"pitch"`
	Speed       float64            `json:"speed"`
	Energy      float64            `json:"energy"`
	EmotionBias map[string]float64 `json:"emotion_bias,omitempty"`
}

type record struct {
	Name          string
	CanonicalName string
	Traits        []string
	Pages         []int
	Dialogs       []dialogRecord
	VoiceProfile  *voiceRecord
}

func toRecord(ch *analysis.Character) record {
	rec := record{
		Name:          ch.Name,
		CanonicalName: ch.CanonicalName,
		Traits:        ch.SortedTraits(),
		Pages:         ch.SortedPages(),
		Dialogs:       make([]dialogRecord, 0, len(ch.Dialogs)),
	}
	for _, d := range ch.Dialogs {
		rec.Dialogs = append(rec.Dialogs, dialogRecord(d))
	}
	if p := ch.VoiceProfile; p != nil {
		rec.VoiceProfile = &voiceRecord{
			Gender: p.Gender, Age: p.Age, Tone: p.Tone, Accent: p.Accent,
			Pitch: p.Pitch, Speed: p.Speed, Energy: p.Energy, EmotionBias: p.EmotionBias,
		}
	}
	return rec
}

func (r record) character() *analysis.Character {
	ch := analysis.NewCharacter(r.Name, r.CanonicalName)
	ch.AddTraits(r.Traits...)
	for _, p := range r.Pages {
		ch.AddPage(p)
	}
	for _, d := range r.Dialogs {
		ch.Dialogs = append(ch.Dialogs, analysis.DialogLine(d))
	}
	if v := r.VoiceProfile; v != nil {
		ch.VoiceProfile = &analysis.VoiceProfile{
			Gender: v.Gender, Age: v.Age, Tone: v.Tone, Accent: v.Accent,
			Pitch: v.Pitch, Speed: v.Speed, Energy: v.Energy, EmotionBias: v.EmotionBias,
		}
		if ch.VoiceProfile.EmotionBias == nil {
			ch.VoiceProfile.EmotionBias = map[string]float64{}
		}
	}
	return ch
}
