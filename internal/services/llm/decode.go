package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// DecodeLLMJSON decodes a model reply into target. It accepts code-fenced
// JSON, JSON surrounded by prose, and near-JSON that jsonrepair can fix.
func DecodeLLMJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}
	if err := json.Unmarshal([]byte(trimmed), target); err == nil {
		return nil
	}
	candidate := objectSpan(stripCodeFence(trimmed))
	if candidate == "" {
		return fmt.Errorf("no JSON object in payload (snippet: %s)", snippet(trimmed))
	}
	if err := json.Unmarshal([]byte(candidate), target); err == nil {
		return nil
	}
	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		return fmt.Errorf("repair payload: %w (snippet: %s)", err, snippet(candidate))
	}
	if err := json.Unmarshal([]byte(repaired), target); err != nil {
		return fmt.Errorf("%w (repaired snippet: %s)", err, snippet(repaired))
	}
	return nil
}

func stripCodeFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	body := strings.TrimLeft(content[3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

// objectSpan returns the text from the first '{' to the last '}'.
func objectSpan(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}

// snippet collapses whitespace and cuts content to a loggable length.
func snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	if runes := []rune(clean); len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return clean
}
