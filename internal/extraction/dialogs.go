package extraction

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"voicecast/internal/analysis"
	"voicecast/internal/inference"
	"voicecast/internal/logging"
	"voicecast/internal/speakers"
	"voicecast/internal/stage"
)

const (
	defaultEmotion   = "neutral"
	defaultIntensity = 0.5
	// Canonical words of a quote used to locate its paragraph.
	quoteProbeWords = 8
)

var emotionAliases = map[string]string{
	"joy": "happy", "joyful": "happy", "glad": "happy", "cheerful": "happy", "amused": "happy",
	"sadness": "sad", "unhappy": "sad", "disappointed": "sad", "melancholy": "sad",
	"anger": "angry", "furious": "angry", "annoyed": "angry", "irritated": "angry",
	"surprise": "surprised", "shocked": "surprised", "astonished": "surprised",
	"fear": "fearful", "afraid": "fearful", "scared": "fearful", "terrified": "fearful",
	"excitement": "excited", "enthusiastic": "excited", "eager": "excited",
	"anxious": "worried", "nervous": "worried", "concerned": "worried", "worry": "worried",
	"curiosity": "curious", "inquisitive": "curious", "puzzled": "curious",
	"defiance": "defiant", "stubborn": "defiant", "rebellious": "defiant",
	"calm": "neutral", "none": "neutral",
}

// DialogExtraction attributes quoted speech to known characters.
type DialogExtraction struct {
	logger *slog.Logger
}

// NewDialogExtraction builds the second pipeline stage.
func NewDialogExtraction(logger *slog.Logger) *DialogExtraction {
	return &DialogExtraction{logger: logging.NewComponentLogger(logger, DialogStageName)}
}

func (s *DialogExtraction) Name() string        { return DialogStageName }
func (s *DialogExtraction) DisplayName() string { return "Dialog extraction" }

type dialogItem struct {
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	Emotion   string    `json:"emotion"`
	Intensity flexFloat `json:"intensity"`
}

func parseDialogReply(raw string) ([]dialogItem, int, error) {
	doc, err := parseDocument(raw)
	if err != nil {
		return nil, 0, err
	}
	return decodeList[dialogItem](doc, "dialogs", schemas().dialog)
}

func (s *DialogExtraction) Execute(ctx context.Context, client inference.Client, ac *analysis.Context, cfg stage.Config, progress stage.ProgressFunc) (*analysis.Context, error) {
	out := ac.Clone()
	logger := logging.WithContext(ctx, s.logger)
	segments := SplitSegments(out.Paragraphs, cfg.MaxSegmentChars)
	progress.Report(0, len(segments))

	names := make([]string, 0, len(out.Characters))
	for _, ch := range out.SortedCharacters() {
		names = append(names, ch.Name)
	}

	unattributed := 0
	for _, seg := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, ok, err := ask(ctx, client, DialogSystemPrompt, buildDialogPrompt(seg.Text(), names), cfg)
		if err != nil {
			return nil, unitError(s.Name(), "segment", seg.Index, len(segments), err)
		}
		if !ok {
			warnUnusable(logger, "dialog reply empty; segment skipped", "segment contributes no dialog", nil,
				logging.Int("segment", seg.Index))
			progress.Report(seg.Index+1, len(segments))
			continue
		}
		items, rejected, perr := parseDialogReply(raw)
		if perr != nil {
			warnUnusable(logger, "dialog reply unusable; segment skipped", "segment contributes no dialog", perr,
				logging.Int("segment", seg.Index))
			progress.Report(seg.Index+1, len(segments))
			continue
		}
		if rejected > 0 {
			logger.Debug("dropped malformed dialog entries",
				logging.Int("segment", seg.Index),
				logging.Int("rejected", rejected),
			)
		}
		canon := canonicalParagraphs(seg)
		for _, item := range items {
			text := strings.TrimSpace(item.Text)
			if text == "" {
				continue
			}
			line := analysis.DialogLine{
				Page:      quotePage(seg, canon, text),
				Text:      text,
				Emotion:   NormalizeEmotion(item.Emotion),
				Intensity: analysis.ClampUnit(item.Intensity.Or(defaultIntensity)),
			}
			out.TotalDialogs++
			key := resolveCharacter(out, item.Speaker)
			ch, ok := out.Characters[key]
			if key == "" || !ok {
				unattributed++
				continue
			}
			ch.Dialogs = append(ch.Dialogs, line)
			ch.AddPage(line.Page)
		}
		progress.Report(seg.Index+1, len(segments))
	}

	logger.Debug("dialog extraction complete",
		logging.String(logging.FieldEventType, "stage_summary"),
		logging.Int("dialogs", out.TotalDialogs),
		logging.Int("unattributed", unattributed),
	)
	return out, nil
}

// NormalizeEmotion maps a model label onto the fixed vocabulary, falling
// back to neutral.
func NormalizeEmotion(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if slices.Contains(Emotions, label) {
		return label
	}
	if mapped, ok := emotionAliases[label]; ok {
		return mapped
	}
	return defaultEmotion
}

// quotePage returns the paragraph holding the quote, or the segment start
// when it cannot be located.
func quotePage(seg Segment, canon []string, quote string) int {
	words := strings.Fields(speakers.CanonicalName(quote))
	if len(words) == 0 {
		return seg.Start
	}
	probe := " " + strings.Join(words[:min(len(words), quoteProbeWords)], " ") + " "
	for i, text := range canon {
		if strings.Contains(" "+text+" ", probe) {
			return seg.Page(i)
		}
	}
	return seg.Start
}
