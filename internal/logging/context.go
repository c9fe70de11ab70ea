package logging

import (
	"context"
	"log/slog"

	"voicecast/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldOwnerID is the standardized key for the book identifier.
	FieldOwnerID = "book_id"
	// FieldSubID is the standardized key for the chapter identifier.
	FieldSubID = "chapter_id"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies a log line for filtering (stage_start, checkpoint_saved, ...).
	FieldEventType = "event_type"
	// FieldErrorHint carries the next step an operator should take.
	FieldErrorHint = "error_hint"
	// FieldDecisionType names the kind of decision recorded by DecisionAttrs.
	FieldDecisionType = "decision_type"
	// FieldProgressPercent is the overall pipeline percentage.
	FieldProgressPercent = "progress_percent"
	// FieldProgressStep is the display name of the running step.
	FieldProgressStep = "progress_step"
	// FieldProgressMessage is the human-readable progress line.
	FieldProgressMessage = "progress_message"
	// FieldImpact states what a warning costs the user.
	FieldImpact = "impact"
	// FieldDuration is the elapsed time of a run or stage.
	FieldDuration = "duration"
	// FieldSessionID identifies one CLI invocation across log lines.
	FieldSessionID = "session_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if ref, ok := services.DocumentFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldOwnerID, ref.OwnerID), slog.Int64(FieldSubID, ref.SubID))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
