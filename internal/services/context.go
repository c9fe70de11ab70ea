package services

import "context"

type contextKey string

const (
	documentKey  contextKey = "document"
	stageKey     contextKey = "stage"
	requestIDKey contextKey = "request_id"
)

// DocumentRef identifies the book and chapter a run is working on.
type DocumentRef struct {
	OwnerID int64
	SubID   int64
}

// WithDocument annotates context with the owning book and chapter identifiers.
func WithDocument(ctx context.Context, ownerID, subID int64) context.Context {
	return context.WithValue(ctx, documentKey, DocumentRef{OwnerID: ownerID, SubID: subID})
}

// DocumentFromContext extracts the document reference if present.
func DocumentFromContext(ctx context.Context) (DocumentRef, bool) {
	ref, ok := ctx.Value(documentKey).(DocumentRef)
	return ref, ok
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
