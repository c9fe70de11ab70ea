package logging

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
)

type infoField struct {
	label string
	value string
}

const infoAttrLimit = 8

// infoHighlightKeys are shown first, in this order, on INFO and above.
var infoHighlightKeys = []string{
	FieldEventType,
	FieldDecisionType,
	"decision_result",
	"decision_reason",
	FieldProgressStep,
	FieldProgressPercent,
	FieldProgressMessage,
	"status",
	"error_message",
	FieldErrorHint,
	FieldImpact,
	"character_count",
	"dialog_count",
	"segment",
	"segment_count",
	"resume_step",
	"character",
	"speaker",
	"stage_duration",
	"reason",
}

// selectInfoFields returns formatted info-level fields and a count of hidden entries.
// limit=0 means no limit. includeDebug controls whether debug-only keys are allowed.
func selectInfoFields(attrs []kv, limit int, includeDebug bool) ([]infoField, int) {
	if len(attrs) == 0 {
		return nil, 0
	}
	if limit < 0 {
		limit = 0
	}
	used := make([]bool, len(attrs))
	result := make([]infoField, 0, infoAttrLimit)
	hidden := 0

	accept := func(idx int) {
		attr := attrs[idx]
		used[idx] = true
		if skipInfoKey(attr.key) {
			return
		}
		if !includeDebug && isDebugOnlyKey(attr.key) {
			hidden++
			return
		}
		val := formatValueForKey(attr.key, attr.value)
		if !includeDebug && shouldHideInfoValue(attr.key, val) {
			hidden++
			return
		}
		if limit > 0 && len(result) >= limit {
			hidden++
			return
		}
		result = append(result, infoField{label: displayLabel(attr.key), value: val})
	}

	for _, key := range infoHighlightKeys {
		for idx, attr := range attrs {
			if !used[idx] && attr.key == key {
				accept(idx)
				break
			}
		}
	}
	for idx := range attrs {
		if !used[idx] {
			accept(idx)
		}
	}
	return result, hidden
}

func formatValueForKey(key string, v slog.Value) string {
	v = v.Resolve()
	switch {
	case isDurationKey(key) && v.Kind() == slog.KindDuration:
		return formatDurationHuman(v.Duration())
	case isPercentKey(key) && v.Kind() == slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', 1, 64) + "%"
	case v.Kind() == slog.KindBool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	}
	value := formatValue(v)
	if key == "error" || key == "error_message" {
		value = truncateErrorValue(value)
	}
	return value
}

func formatDurationHuman(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}

func isDurationKey(key string) bool {
	return strings.HasSuffix(key, "_duration") ||
		strings.HasSuffix(key, "_elapsed") ||
		key == "elapsed" ||
		key == "duration" ||
		key == "backoff"
}

func isPercentKey(key string) bool {
	return strings.HasSuffix(key, "_percent")
}

func truncateErrorValue(value string) string {
	value = strings.TrimSpace(value)
	const maxLen = 200
	if len(value) > maxLen {
		value = value[:maxLen] + "…"
	}
	return value
}

func skipInfoKey(key string) bool {
	switch key {
	case "", FieldOwnerID, FieldSubID, FieldStage, FieldComponent:
		return true
	default:
		return false
	}
}

func isDebugOnlyKey(key string) bool {
	switch key {
	case "", FieldCorrelationID, FieldSessionID, "fingerprint", "task_id", "prompt_chars", "response_chars", "score":
		return true
	}
	return strings.Contains(key, "_path") || strings.Contains(key, "_dir")
}

func shouldHideInfoValue(key, value string) bool {
	switch key {
	case "error_message", "error", FieldErrorHint, FieldImpact:
		return false
	}
	return len(value) > 120
}

func displayLabel(key string) string {
	switch key {
	case FieldEventType:
		return "Event"
	case FieldDecisionType, "decision_result":
		return "Decision"
	case "decision_reason", "reason":
		return "Reason"
	case FieldErrorHint:
		return "Hint"
	case FieldImpact:
		return "Impact"
	case FieldProgressStep:
		return "Step"
	case FieldProgressPercent:
		return "Progress"
	case FieldProgressMessage:
		return "Message"
	case "character_count":
		return "Characters"
	case "dialog_count":
		return "Dialogs"
	case "segment_count":
		return "Segments"
	case "stage_duration":
		return "Duration"
	default:
		return titleizeKey(key)
	}
}

func titleizeKey(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for i, part := range parts {
		if part == "" {
			continue
		}
		lower := strings.ToLower(part)
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

// infoSummaryKey scopes repeated-field suppression to one chapter (or one
// component when a record has no chapter).
func infoSummaryKey(component string, subj subject) string {
	if subj.book != "" || subj.chapter != "" {
		return subj.book + "/" + subj.chapter
	}
	return component
}
