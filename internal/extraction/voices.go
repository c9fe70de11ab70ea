package extraction

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"

	"voicecast/internal/analysis"
	"voicecast/internal/inference"
	"voicecast/internal/logging"
	"voicecast/internal/stage"
	"voicecast/internal/textutil"
)

var errNoProfile = errors.New("reply has no voice_profile object")

// VoiceProfileAssignment asks for a voice profile per character.
type VoiceProfileAssignment struct {
	logger *slog.Logger
}

// NewVoiceProfileAssignment builds the final pipeline stage.
func NewVoiceProfileAssignment(logger *slog.Logger) *VoiceProfileAssignment {
	return &VoiceProfileAssignment{logger: logging.NewComponentLogger(logger, VoiceStageName)}
}

func (s *VoiceProfileAssignment) Name() string        { return VoiceStageName }
func (s *VoiceProfileAssignment) DisplayName() string { return "Voice profiles" }

type voiceProfileItem struct {
	Pitch       flexFloat            `json:"pitch"`
	Speed       flexFloat            `json:"speed"`
	Energy      flexFloat            `json:"energy"`
	Gender      string               `json:"gender"`
	Age         string               `json:"age"`
	Tone        string               `json:"tone"`
	Accent      string               `json:"accent"`
	SpeakerID   flexFloat            `json:"speaker_id"`
	EmotionBias map[string]flexFloat `json:"emotion_bias"`
}

type voiceReply struct {
	Traits  []string
	Profile voiceProfileItem
}

func parseVoiceReply(raw string) (voiceReply, error) {
	var reply voiceReply
	doc, err := parseDocument(raw)
	if err != nil {
		return reply, err
	}
	value, ok := doc["voice_profile"]
	if !ok {
		// Some models answer with the profile fields at the top level.
		if _, flat := doc["pitch"]; !flat {
			return reply, errNoProfile
		}
		value = doc
	}
	if _, isObject := value.(map[string]any); !isObject {
		return reply, errNoProfile
	}
	reply.Profile, err = decodeValue[voiceProfileItem](value, schemas().voice)
	if err != nil {
		return reply, err
	}
	if traits, err := decodeValue[flexStrings](doc["traits"], nil); err == nil {
		reply.Traits = traits
	}
	return reply, nil
}

// profile converts the reply into a clamped VoiceProfile.
func (v voiceProfileItem) profile() *analysis.VoiceProfile {
	p := analysis.DefaultVoiceProfile()
	p.Pitch = v.Pitch.Or(1.0)
	p.Speed = v.Speed.Or(1.0)
	p.Energy = v.Energy.Or(1.0)
	p.Gender = normalizeGender(v.Gender)
	p.Age = strings.ToLower(strings.TrimSpace(v.Age))
	if tone := strings.TrimSpace(v.Tone); tone != "" {
		p.Tone = tone
	}
	p.Accent = strings.TrimSpace(v.Accent)
	for label, weight := range v.EmotionBias {
		label = strings.ToLower(strings.TrimSpace(label))
		if label != "" && weight.Set {
			p.EmotionBias[label] = weight.Value
		}
	}
	p.Normalize()
	return p
}

// speakerHint returns the suggested catalog id when it is a non-negative integer.
func (v voiceProfileItem) speakerHint() *int {
	if !v.SpeakerID.Set {
		return nil
	}
	f := v.SpeakerID.Value
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return nil
	}
	id := int(f)
	return &id
}

func normalizeGender(g string) string {
	switch strings.ToLower(strings.TrimSpace(g)) {
	case "male", "m", "man":
		return "male"
	case "female", "f", "woman":
		return "female"
	case "":
		return ""
	default:
		return "neutral"
	}
}

func (s *VoiceProfileAssignment) Execute(ctx context.Context, client inference.Client, ac *analysis.Context, cfg stage.Config, progress stage.ProgressFunc) (*analysis.Context, error) {
	out := ac.Clone()
	logger := logging.WithContext(ctx, s.logger)
	keys := out.CharacterKeys()
	progress.Report(0, len(keys))

	defaulted := 0
	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ch := out.Characters[key]
		prompt := buildVoicePrompt(ch.Name, ch.SortedTraits(), dialogSamples(ch))
		raw, ok, err := ask(ctx, client, VoiceSystemPrompt, prompt, cfg)
		if err != nil {
			return nil, unitError(s.Name(), "character", i, len(keys), err)
		}
		var reply voiceReply
		var perr error
		if ok {
			reply, perr = parseVoiceReply(raw)
		}
		if !ok || perr != nil {
			warnUnusable(logger, "voice reply unusable; neutral profile assigned", "character uses the default voice profile", perr,
				logging.String("character", ch.Name))
			ch.VoiceProfile = analysis.DefaultVoiceProfile()
			ch.SpeakerID = nil
			defaulted++
			progress.Report(i+1, len(keys))
			continue
		}
		ch.AddTraits(reply.Traits...)
		ch.VoiceProfile = reply.Profile.profile()
		ch.SpeakerID = reply.Profile.speakerHint()
		progress.Report(i+1, len(keys))
	}

	logger.Debug("voice profiles assigned",
		logging.String(logging.FieldEventType, "stage_summary"),
		logging.Int("characters", len(keys)),
		logging.Int("defaulted", defaulted),
	)
	return out, nil
}

// dialogSamples picks the first few dialog lines, shortened, as prompt context.
func dialogSamples(ch *analysis.Character) []string {
	samples := make([]string, 0, maxDialogSamples)
	for _, line := range ch.Dialogs {
		if len(samples) == maxDialogSamples {
			break
		}
		samples = append(samples, textutil.Truncate(line.Text, maxDialogSampleChars))
	}
	return samples
}
