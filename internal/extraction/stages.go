package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"voicecast/internal/inference"
	"voicecast/internal/logging"
	"voicecast/internal/stage"
)

// Stage identifiers, in pipeline order.
const (
	CharacterStageName = "character_extraction"
	DialogStageName    = "dialog_extraction"
	VoiceStageName     = "voice_profiles"
)

// Stages returns the fixed, ordered stage list.
func Stages(logger *slog.Logger) []stage.Stage {
	return []stage.Stage{
		NewCharacterExtraction(logger),
		NewDialogExtraction(logger),
		NewVoiceProfileAssignment(logger),
	}
}

// ask sends one prompt. ok is false when the model returned nothing usable;
// that is not an error. Any other failure is returned unchanged so the
// orchestrator can fail the stage.
func ask(ctx context.Context, client inference.Client, system, user string, cfg stage.Config) (string, bool, error) {
	raw, err := client.Generate(ctx, system, user, cfg.MaxTokens, cfg.Temperature)
	switch {
	case err == nil:
		return raw, strings.TrimSpace(raw) != "", nil
	case errors.Is(err, inference.ErrEmptyResponse):
		return "", false, nil
	default:
		return "", false, err
	}
}

func unitError(stageName, unit string, index, total int, err error) error {
	return fmt.Errorf("%s: %s %d/%d: %w", stageName, unit, index+1, total, err)
}

// warnUnusable logs a reply that contributed nothing.
func warnUnusable(logger *slog.Logger, msg, impact string, reason error, attrs ...logging.Attr) {
	cause := "empty response"
	if reason != nil {
		cause = reason.Error()
	}
	attrs = append(attrs,
		logging.String("reason", cause),
		logging.String(logging.FieldErrorHint, "check the model output; a lower temperature or larger max_tokens may help"),
		logging.String(logging.FieldImpact, impact),
	)
	logging.WarnWithContext(logger, msg, "reply_unusable", attrs...)
}
