package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
)

const jsonReminder = "\nEnsure the JSON is valid and contains no trailing commas."

// Prompt list limits keep known-name lists from crowding out the text.
const (
	maxKnownNamesInPrompt = 60
	maxDialogSamples      = 4
	maxDialogSampleChars  = 240
)

// CharacterSystemPrompt instructs the model for character discovery.
const CharacterSystemPrompt = `You are a character extraction engine for audiobook casting. List the characters who speak, act, or are directly described in the provided text, together with traits that help choose a voice. Output valid JSON only.`

// DialogSystemPrompt instructs the model for speaker attribution.
const DialogSystemPrompt = `You are a dialog extraction engine. Extract quoted speech and attribute it to the correct speaker. Output valid JSON only.`

// VoiceSystemPrompt instructs the model for voice profile suggestions.
const VoiceSystemPrompt = `You are a voice casting director for text-to-speech narration. Suggest a voice profile for one character based on the traits and dialog provided. Output valid JSON only.`

// UnknownSpeaker is the sentinel used when a line cannot be attributed.
const UnknownSpeaker = "unknown"

// Emotions is the vocabulary dialog lines are labelled with.
var Emotions = []string{"neutral", "happy", "sad", "angry", "surprised", "fearful", "excited", "worried", "curious", "defiant"}

func quoteList(names []string, limit int) string {
	if len(names) > limit {
		names = names[:limit]
	}
	if len(names) == 0 {
		return "[]"
	}
	data, err := json.Marshal(names)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func buildCharacterPrompt(text string, known, missingTraits []string) string {
	return fmt.Sprintf(`ALREADY KNOWN (skip these): %s
KNOWN BUT MISSING TRAITS (list again only if this text describes them): %s

RULES:
- Extract proper names exactly as written (e.g. "Harry Potter", "Hermione", "Mr. Dursley")
- Include titled characters and nicknames used as names (e.g. "the Queen", "Moody")
- Do NOT include pronouns, generic descriptions (the boy, the old man), or groups (the crowd)
- Do NOT split full names: if "Harry Potter" appears, do NOT list "Potter" separately
- Traits are short voice-relevant descriptors stated or clearly shown in the text:
  gender (male, female), age (child, young, middle-aged, elderly),
  accent or nationality (Scottish, American), voice quality ("gravelly voice", "soft-spoken")
- If no traits are evident, return an empty traits list

OUTPUT FORMAT (valid JSON only):
{"characters": [{"name": "Name", "traits": ["female", "young"]}]}

TEXT:
%s
%s`, quoteList(known, maxKnownNamesInPrompt), quoteList(missingTraits, maxKnownNamesInPrompt), text, jsonReminder)
}

func buildDialogPrompt(text string, speakers []string) string {
	return fmt.Sprintf(`CHARACTERS: %s

EXTRACTION RULES:
1. DIALOGS - Extract text within quotation marks ("..." or '...'):
   - Attribute each line to a character from the list above
   - Use attribution patterns: "said [Name]", "[Name] said", "[Name]:", and resolve pronouns to the nearest named character
   - If the speaker cannot be determined, use "%s"

2. EMOTION - For each line:
   - Choose one emotion: %s
   - Estimate intensity from 0.0 (very mild) to 1.0 (very intense)

OUTPUT FORMAT (valid JSON only):
{"dialogs": [{"speaker": "Name", "text": "dialog", "emotion": "neutral", "intensity": 0.5}]}

TEXT:
%s
%s`, quoteList(speakers, maxKnownNamesInPrompt), UnknownSpeaker, strings.Join(Emotions, ", "), text, jsonReminder)
}

func buildVoicePrompt(name string, traits []string, samples []string) string {
	var dialog strings.Builder
	if len(samples) == 0 {
		dialog.WriteString("(no dialog recorded)\n")
	}
	for _, s := range samples {
		dialog.WriteString("- \"")
		dialog.WriteString(s)
		dialog.WriteString("\"\n")
	}
	return fmt.Sprintf(`CHARACTER: %q
TRAITS: %s
SAMPLE DIALOG:
%s
VOICE MAPPING GUIDE:
- gravelly, deep, or commanding voice: pitch 0.8-0.9
- bright, light, or young voice: pitch 1.1-1.2
- nervous or anxious: speed 1.1-1.2, energy 0.8
- calm or measured: speed 0.9, energy 0.6
- energetic or excitable: energy 0.9-1.0
- gender and age follow the traits; use "neutral" when unknown

SPEAKER_ID (0-108 VCTK range):
- Female young: 10-30, Female adult: 31-50
- Male young: 51-70, Male adult: 71-90
- Elderly/character: 91-108

OUTPUT FORMAT (valid JSON only):
{
  "character": %q,
  "traits": ["trait1", "trait2"],
  "voice_profile": {
    "pitch": 1.0, "speed": 1.0, "energy": 1.0,
    "gender": "male|female|neutral",
    "age": "child|young|middle-aged|elderly",
    "tone": "brief description",
    "accent": "description or neutral",
    "speaker_id": 45,
    "emotion_bias": {"happy": 0.3, "sad": 0.1, "angry": 0.2, "neutral": 0.4, "fear": 0.1, "surprise": 0.4, "excited": 0.5, "disappointed": 0.1, "curious": 0.3, "defiant": 0.1}
  }
}
Use values in ranges: pitch/speed/energy 0.5-1.5; emotion_bias 0.0-1.0.
%s`, name, quoteList(traits, maxKnownNamesInPrompt), dialog.String(), name, jsonReminder)
}
