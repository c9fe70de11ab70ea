package extraction

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"voicecast/internal/analysis"
	"voicecast/internal/inference"
	"voicecast/internal/logging"
	"voicecast/internal/speakers"
	"voicecast/internal/stage"
)

// CharacterExtraction discovers characters segment by segment and records
// their traits and the paragraphs they appear in.
type CharacterExtraction struct {
	logger *slog.Logger
}

// NewCharacterExtraction builds the first pipeline stage.
func NewCharacterExtraction(logger *slog.Logger) *CharacterExtraction {
	return &CharacterExtraction{logger: logging.NewComponentLogger(logger, CharacterStageName)}
}

func (s *CharacterExtraction) Name() string        { return CharacterStageName }
func (s *CharacterExtraction) DisplayName() string { return "Character extraction" }

// characterItem is one entry of the "characters" list. Models sometimes
// answer with bare names, so a plain string decodes as a name with no traits.
type characterItem struct {
	Name   string
	Traits []string
}

func (c *characterItem) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		c.Name = strings.TrimSpace(name)
		return nil
	}
	var obj struct {
		Name   string      `json:"name"`
		Traits flexStrings `json:"traits"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	c.Name = strings.TrimSpace(obj.Name)
	c.Traits = obj.Traits
	return nil
}

func parseCharacterReply(raw string) ([]characterItem, int, error) {
	doc, err := parseDocument(raw)
	if err != nil {
		return nil, 0, err
	}
	return decodeList[characterItem](doc, "characters", schemas().character)
}

func (s *CharacterExtraction) Execute(ctx context.Context, client inference.Client, ac *analysis.Context, cfg stage.Config, progress stage.ProgressFunc) (*analysis.Context, error) {
	out := ac.Clone()
	logger := logging.WithContext(ctx, s.logger)
	segments := SplitSegments(out.Paragraphs, cfg.MaxSegmentChars)
	progress.Report(0, len(segments))

	for _, seg := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		known, missing := knownNames(out)
		raw, ok, err := ask(ctx, client, CharacterSystemPrompt, buildCharacterPrompt(seg.Text(), known, missing), cfg)
		if err != nil {
			return nil, unitError(s.Name(), "segment", seg.Index, len(segments), err)
		}
		canon := canonicalParagraphs(seg)
		if ok {
			items, rejected, perr := parseCharacterReply(raw)
			switch {
			case perr != nil:
				warnUnusable(logger, "character reply unusable; segment skipped", "segment adds no new characters", perr,
					logging.Int("segment", seg.Index))
			case rejected > 0:
				logger.Debug("dropped malformed character entries",
					logging.Int("segment", seg.Index),
					logging.Int("rejected", rejected),
				)
			}
			for _, item := range items {
				mergeCharacter(out, item, seg, canon)
			}
		} else {
			warnUnusable(logger, "character reply empty; segment skipped", "segment adds no new characters", nil,
				logging.Int("segment", seg.Index))
		}
		for _, ch := range out.Characters {
			for _, page := range mentionPages(seg, canon, ch.Name) {
				ch.AddPage(page)
			}
		}
		out.ParagraphsProcessed = max(out.ParagraphsProcessed, seg.End)
		progress.Report(seg.Index+1, len(segments))
	}

	logger.Debug("character extraction complete",
		logging.String(logging.FieldEventType, "stage_summary"),
		logging.Int("characters", len(out.Characters)),
		logging.Int("segments", len(segments)),
	)
	return out, nil
}

// knownNames splits discovered display names into those with traits, which
// the model may skip, and those it should list again to backfill traits.
func knownNames(ac *analysis.Context) (known, missingTraits []string) {
	for _, ch := range ac.SortedCharacters() {
		if len(ch.Traits) == 0 {
			missingTraits = append(missingTraits, ch.Name)
			continue
		}
		known = append(known, ch.Name)
	}
	return known, missingTraits
}

// mergeCharacter folds one reply entry into ac, creating a record when the
// name resolves to nobody. The first display name seen is kept.
func mergeCharacter(ac *analysis.Context, item characterItem, seg Segment, canon []string) {
	canonical := speakers.CanonicalName(item.Name)
	if ignoredName(canonical) {
		return
	}
	key := resolveCharacter(ac, item.Name)
	ch, ok := ac.Characters[key]
	if key == "" || !ok {
		key = canonical
		ch = analysis.NewCharacter(speakers.DisplayName(item.Name), canonical)
		ac.Characters[key] = ch
	}
	ch.AddTraits(item.Traits...)
	pages := mentionPages(seg, canon, item.Name)
	if len(pages) == 0 {
		pages = []int{seg.Start}
	}
	for _, p := range pages {
		ch.AddPage(p)
	}
}
