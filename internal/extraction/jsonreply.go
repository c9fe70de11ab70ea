package extraction

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

var (
	errNoJSON    = errors.New("reply contains no JSON object")
	errNotObject = errors.New("reply JSON is not an object")
)

// ExtractJSONObject returns the first balanced {...} span in raw. Braces
// inside JSON strings, including escaped quotes, are ignored. ok is false
// when raw holds no complete object.
func ExtractJSONObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}
	for start >= 0 {
		if end, ok := matchBrace(raw, start); ok {
			return raw[start : end+1], true
		}
		// Unbalanced from here; an object may still start later.
		next := strings.IndexByte(raw[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func matchBrace(raw string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// parseDocument isolates and parses the reply object, repairing near-JSON.
func parseDocument(raw string) (map[string]any, error) {
	span, ok := ExtractJSONObject(raw)
	if !ok {
		return nil, errNoJSON
	}
	var doc any
	if err := json.Unmarshal([]byte(span), &doc); err != nil {
		fixed, repairErr := jsonrepair.JSONRepair(span)
		if repairErr != nil {
			return nil, fmt.Errorf("repair reply: %w", repairErr)
		}
		if err := json.Unmarshal([]byte(fixed), &doc); err != nil {
			return nil, fmt.Errorf("decode repaired reply: %w", err)
		}
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return obj, nil
}

// decodeList reads doc[key] as an array and decodes every element that
// passes item validation into T. A missing key is an empty list; a key that
// is present but not an array is an error.
func decodeList[T any](doc map[string]any, key string, item *jsonschema.Resolved) ([]T, int, error) {
	value, present := doc[key]
	if !present || value == nil {
		return nil, 0, nil
	}
	list, ok := value.([]any)
	if !ok {
		return nil, 0, fmt.Errorf("reply field %q is not an array", key)
	}
	out := make([]T, 0, len(list))
	rejected := 0
	for _, elem := range list {
		v, err := decodeValue[T](elem, item)
		if err != nil {
			rejected++
			continue
		}
		out = append(out, v)
	}
	return out, rejected, nil
}

// decodeValue validates a generic JSON value against schema and decodes it into T.
func decodeValue[T any](value any, schema *jsonschema.Resolved) (T, error) {
	var out T
	if schema != nil {
		if err := schema.Validate(value); err != nil {
			return out, err
		}
	}
	data, err := json.Marshal(value)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}

// flexFloat decodes a JSON number or a numeric string. Anything else leaves
// it unset.
type flexFloat struct {
	Value float64
	Set   bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" {
		return nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return nil
		}
		s = strings.TrimSpace(str)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	f.Value, f.Set = v, true
	return nil
}

// Or returns the decoded value or fallback when unset.
func (f flexFloat) Or(fallback float64) float64 {
	if !f.Set {
		return fallback
	}
	return f.Value
}

// flexStrings decodes either a JSON array of strings or a single
// comma-separated string.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, "[") {
		var raw []any
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		for _, v := range raw {
			if str, ok := v.(string); ok && strings.TrimSpace(str) != "" {
				*f = append(*f, strings.TrimSpace(str))
			}
		}
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	for part := range strings.SplitSeq(str, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*f = append(*f, part)
		}
	}
	return nil
}
