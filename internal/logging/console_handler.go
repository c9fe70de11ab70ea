package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// prettyHandler renders records for a human reading the terminal. INFO
// records show a short field summary; DEBUG records dump every attribute.
type prettyHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	attrs     []slog.Attr
	groups    []string
	addSource bool
	lastSeen  map[string]map[string]string
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &prettyHandler{
		mu:        &sync.Mutex{},
		writer:    w,
		level:     lvl,
		addSource: addSource,
		lastSeen:  make(map[string]map[string]string),
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	if !h.Enabled(context.Background(), record.Level) {
		return nil
	}
	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	attrs := collectAttrs(h.groups, h.attrs, record)
	var component string
	var subj subject
	shown := make([]kv, 0, len(attrs))
	for _, attr := range attrs {
		switch attr.key {
		case FieldComponent:
			component = rawString(attr.value)
			continue
		case FieldOwnerID:
			subj.book = rawString(attr.value)
		case FieldSubID:
			subj.chapter = rawString(attr.value)
		case FieldStage:
			subj.stage = rawString(attr.value)
		}
		shown = append(shown, attr)
	}

	message := strings.TrimSpace(record.Message)
	if message == "" {
		message = "(no message)"
	}

	var buf bytes.Buffer
	buf.Grow(256 + len(attrs)*32)

	h.mu.Lock()
	defer h.mu.Unlock()
	if record.Level < slog.LevelInfo {
		h.writeDebug(&buf, timestamp, record.Level, component, subj, message, record.Source(), attrs)
	} else {
		h.writeInfo(&buf, timestamp, record.Level, component, subj, message, record.Source(), shown)
	}
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *prettyHandler) writeInfo(buf *bytes.Buffer, ts time.Time, level slog.Level, component string, subj subject, message string, src *slog.Source, attrs []kv) {
	writeLogHeader(buf, ts, level, component, subj, message, h.addSource, src)
	fields, hidden := selectInfoFields(attrs, 0, true)
	summaryKey := infoSummaryKey(component, subj)
	fields, hidden = h.filterRepeatedInfo(summaryKey, fields, hidden, level)
	if len(fields) == 0 && hidden == 0 {
		buf.WriteByte('\n')
		return
	}
	buf.WriteByte('\n')
	for _, field := range fields {
		buf.WriteString("    - ")
		buf.WriteString(field.label)
		buf.WriteString(": ")
		buf.WriteString(field.value)
		buf.WriteByte('\n')
	}
	if hidden > 0 {
		buf.WriteString("    + ")
		buf.WriteString(strconv.Itoa(hidden))
		buf.WriteString(" more field")
		if hidden != 1 {
			buf.WriteByte('s')
		}
		buf.WriteString(" hidden")
		buf.WriteByte('\n')
	}
}

func (h *prettyHandler) writeDebug(buf *bytes.Buffer, ts time.Time, level slog.Level, component string, subj subject, message string, src *slog.Source, attrs []kv) {
	writeLogHeader(buf, ts, level, component, subj, message, h.addSource, src)
	if len(attrs) == 0 {
		buf.WriteByte('\n')
		return
	}
	buf.WriteByte('\n')
	for _, kv := range attrs {
		if kv.key == "" {
			continue
		}
		buf.WriteString("    ")
		buf.WriteString(kv.key)
		buf.WriteString(": ")
		buf.WriteString(formatValue(kv.value))
		buf.WriteByte('\n')
	}
}

func writeLogHeader(buf *bytes.Buffer, ts time.Time, level slog.Level, component string, subj subject, message string, addSource bool, src *slog.Source) {
	buf.WriteString(formatTimestamp(ts))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(level))
	if component != "" {
		buf.WriteString(" [")
		buf.WriteString(component)
		buf.WriteByte(']')
	}
	if text := subj.String(); text != "" {
		buf.WriteByte(' ')
		buf.WriteString(text)
	}
	if message != "" {
		buf.WriteString(" - ")
		buf.WriteString(message)
	}
	if addSource && src != nil {
		buf.WriteString(" [")
		buf.WriteString(filepath.Base(src.File))
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(src.Line))
		buf.WriteByte(']')
	}
}

// subject is the book/chapter/stage a record is about.
type subject struct {
	book    string
	chapter string
	stage   string
}

func (s subject) String() string {
	parts := make([]string, 0, 3)
	if book := strings.TrimSpace(s.book); book != "" {
		parts = append(parts, "Book "+book)
	}
	if chapter := strings.TrimSpace(s.chapter); chapter != "" {
		parts = append(parts, "Chapter "+chapter)
	}
	text := strings.Join(parts, " · ")
	if stage := strings.TrimSpace(s.stage); stage != "" {
		if text == "" {
			return stage
		}
		text += " (" + stage + ")"
	}
	return text
}

// filterRepeatedInfo drops INFO fields whose value has not changed since the
// last record about the same subject. WARN and above always print in full but
// still refresh what was last seen.
func (h *prettyHandler) filterRepeatedInfo(key string, fields []infoField, hidden int, level slog.Level) ([]infoField, int) {
	if key == "" || len(fields) == 0 {
		return fields, hidden
	}
	seen := h.lastSeen[key]
	if seen == nil {
		seen = make(map[string]string, len(fields))
		h.lastSeen[key] = seen
	}
	kept := fields[:0:0]
	for _, field := range fields {
		prev, ok := seen[field.label]
		seen[field.label] = field.value
		if level <= slog.LevelInfo && ok && prev == field.value {
			continue
		}
		kept = append(kept, field)
	}
	return kept, hidden
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(slices.Clip(h.attrs), attrs...)
	return &next
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(slices.Clip(h.groups), name)
	return &next
}

type kv struct {
	key   string
	value slog.Value
}

// collectAttrs flattens handler and record attributes into dotted keys. A
// later value for a key replaces the earlier one in place.
func collectAttrs(groups []string, bound []slog.Attr, record slog.Record) []kv {
	var out []kv
	index := make(map[string]int, record.NumAttrs()+len(bound))
	var add func(prefix string, attr slog.Attr)
	add = func(prefix string, attr slog.Attr) {
		if attr.Equal(slog.Attr{}) {
			return
		}
		value := attr.Value.Resolve()
		key := attr.Key
		if prefix != "" && key != "" {
			key = prefix + "." + key
		} else if key == "" {
			key = prefix
		}
		if value.Kind() == slog.KindGroup {
			for _, member := range value.Group() {
				add(key, member)
			}
			return
		}
		if key == "" {
			return
		}
		if pos, ok := index[key]; ok {
			out[pos].value = value
			return
		}
		index[key] = len(out)
		out = append(out, kv{key: key, value: value})
	}
	prefix := strings.Join(groups, ".")
	for _, attr := range bound {
		add(prefix, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		add(prefix, attr)
		return true
	})
	return out
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
