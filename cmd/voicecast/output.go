package main

import (
	"fmt"
	"io"
	"strconv"

	"voicecast/internal/analysis"
	"voicecast/internal/speakers"
)

type voiceView struct {
	Gender      string             `json:"gender,omitempty"`
	Age         string             `json:"age,omitempty"`
	Tone        string             `json:"tone,omitempty"`
	Accent      string             `json:"accent,omitempty"`
	Pitch       float64            `json:"pitch"`
	Speed       float64            `json:"speed"`
	Energy      float64            `json:"energy"`
	EmotionBias map[string]float64 `json:"emotion_bias,omitempty"`
}

type characterView struct {
	Name        string     `json:"name"`
	Key         string     `json:"key"`
	Pages       []int      `json:"pages"`
	Dialogs     int        `json:"dialogs"`
	Traits      []string   `json:"traits"`
	SpeakerID   *int       `json:"speaker_id"`
	SpeakerName string     `json:"speaker_name,omitempty"`
	Voice       *voiceView `json:"voice_profile,omitempty"`
}

type chapterView struct {
	BookID     int64           `json:"book_id"`
	ChapterID  int64           `json:"chapter_id"`
	Status     string          `json:"status"`
	Message    string          `json:"message,omitempty"`
	Dialogs    int             `json:"dialogs"`
	Characters []characterView `json:"characters"`
}

func characterViews(catalog *speakers.Catalog, characters []*analysis.Character) []characterView {
	views := make([]characterView, 0, len(characters))
	for _, ch := range characters {
		if ch == nil {
			continue
		}
		view := characterView{
			Name:      ch.Name,
			Key:       ch.CanonicalName,
			Pages:     ch.SortedPages(),
			Dialogs:   len(ch.Dialogs),
			Traits:    ch.SortedTraits(),
			SpeakerID: ch.SpeakerID,
		}
		if ch.SpeakerID != nil {
			if d, ok := catalog.Lookup(*ch.SpeakerID); ok {
				view.SpeakerName = d.Name
			}
		}
		if p := ch.VoiceProfile; p != nil {
			view.Voice = &voiceView{
				Gender:      p.Gender,
				Age:         p.Age,
				Tone:        p.Tone,
				Accent:      p.Accent,
				Pitch:       p.Pitch,
				Speed:       p.Speed,
				Energy:      p.Energy,
				EmotionBias: p.EmotionBias,
			}
		}
		views = append(views, view)
	}
	return views
}

func renderCharacters(out io.Writer, views []characterView) {
	if len(views) == 0 {
		fmt.Fprintln(out, "No characters found")
		return
	}
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		speaker := "-"
		if v.SpeakerID != nil {
			speaker = strconv.Itoa(*v.SpeakerID)
			if v.SpeakerName != "" {
				speaker = fmt.Sprintf("%s (%s)", speaker, v.SpeakerName)
			}
		}
		voice := "-"
		if v.Voice != nil {
			voice = fmt.Sprintf("pitch %.2f speed %.2f energy %.2f", v.Voice.Pitch, v.Voice.Speed, v.Voice.Energy)
			if v.Voice.Tone != "" {
				voice += " " + v.Voice.Tone
			}
		}
		rows = append(rows, []string{
			v.Name,
			pagesLabel(v.Pages),
			strconv.Itoa(v.Dialogs),
			speaker,
			voice,
			joinLimited(v.Traits, 4),
		})
	}
	writeTable(out,
		[]string{"Character", "Pages", "Dialogs", "Speaker", "Voice", "Traits"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
	)
}

func pagesLabel(pages []int) string {
	labels := make([]string, 0, len(pages))
	for _, p := range pages {
		labels = append(labels, strconv.Itoa(p))
	}
	return joinLimited(labels, 8)
}
