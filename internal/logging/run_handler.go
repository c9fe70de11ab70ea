package logging

import (
	"context"
	"log/slog"
)

// runHandler stamps every record with the session id and, for records logged
// with a context, the book, chapter, stage and correlation id carried by that
// context. Keys already bound through With are not repeated.
type runHandler struct {
	base      slog.Handler
	sessionID string
	bound     map[string]bool
}

func newRunHandler(base slog.Handler, sessionID string) slog.Handler {
	if base == nil {
		return NoopHandler{}
	}
	return &runHandler{base: base, sessionID: sessionID}
}

func (h *runHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *runHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.sessionID != "" && !h.bound[FieldSessionID] {
		record.AddAttrs(slog.String(FieldSessionID, h.sessionID))
	}
	if ctx != nil {
		present := map[string]bool{}
		record.Attrs(func(a slog.Attr) bool {
			present[a.Key] = true
			return true
		})
		for _, attr := range ContextFields(ctx) {
			if h.bound[attr.Key] || present[attr.Key] {
				continue
			}
			record.AddAttrs(attr)
		}
	}
	return h.base.Handle(ctx, record)
}

func (h *runHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := make(map[string]bool, len(h.bound)+len(attrs))
	for k := range h.bound {
		bound[k] = true
	}
	for _, a := range attrs {
		bound[a.Key] = true
	}
	return &runHandler{base: h.base.WithAttrs(attrs), sessionID: h.sessionID, bound: bound}
}

func (h *runHandler) WithGroup(name string) slog.Handler {
	return &runHandler{base: h.base.WithGroup(name), sessionID: h.sessionID, bound: h.bound}
}
