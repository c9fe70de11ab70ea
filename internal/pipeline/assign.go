package pipeline

import (
	"log/slog"

	"voicecast/internal/analysis"
	"voicecast/internal/logging"
	"voicecast/internal/speakers"
)

// assignSpeakers casts every character onto a catalog voice. Trait matching
// wins; a valid model hint is used only when matching has no preference;
// otherwise the gender default applies.
func (o *Orchestrator) assignSpeakers(logger *slog.Logger, ac *analysis.Context) {
	if o.matcher == nil {
		return
	}
	catalog := o.matcher.Catalog()
	for _, ch := range ac.SortedCharacters() {
		tokens := speakers.TraitTokens(characterTraits(ch)...)
		var (
			chosen speakers.Descriptor
			reason string
			found  bool
		)
		if best, ok := o.matcher.Select(tokens); ok {
			chosen, reason, found = best.Descriptor, "trait match", true
		} else if ch.SpeakerID != nil {
			if d, ok := catalog.Lookup(*ch.SpeakerID); ok {
				chosen, reason, found = d, "model suggestion", true
			}
		}
		if !found {
			gender := speakers.GenderFromTokens(tokens)
			chosen, reason = catalog.Default(gender), "default voice"
		}
		id := chosen.ID
		ch.SpeakerID = &id

		attrs := logging.DecisionAttrs("speaker_assignment", chosen.Name, reason)
		attrs = append(attrs,
			logging.String("character", ch.Name),
			logging.Int("speaker_id", id),
		)
		logger.Debug("speaker assigned", logging.Args(attrs...)...)
	}
}

func characterTraits(ch *analysis.Character) []string {
	traits := ch.SortedTraits()
	if p := ch.VoiceProfile; p != nil {
		traits = append(traits, p.Gender, p.Age, p.Accent)
	}
	return traits
}
