package extraction

import (
	"encoding/json"
	"testing"
)

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"plain", `{"a":1}`, `{"a":1}`, true},
		{"fenced", "Here you go:\n```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`, true},
		{"brace in string", `x {"t":"a } b \" {"} y`, `{"t":"a } b \" {"}`, true},
		{"first unbalanced", `{"broken": {"ok":true}`, `{"ok":true}`, true},
		{"none", "no json here", "", false},
		{"truncated", `{"a": [1, 2`, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tc.raw)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("ExtractJSONObject(%q) = %q, %v; want %q, %v", tc.raw, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestParseDocumentRepairsNearJSON(t *testing.T) {
	doc, err := parseDocument(`Sure! {"characters": [{"name": "Alice", "traits": ["curious",],},]}`)
	if err != nil {
		t.Fatalf("expected trailing commas to be repaired: %v", err)
	}
	list, ok := doc["characters"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("unexpected document %v", doc)
	}
	if _, err := parseDocument("nothing"); err != errNoJSON {
		t.Fatalf("expected errNoJSON, got %v", err)
	}
}

func TestDecodeListSkipsInvalidItems(t *testing.T) {
	doc := map[string]any{"dialogs": []any{
		map[string]any{"speaker": "Alice", "text": "Hi", "intensity": "0.7"},
		map[string]any{"speaker": "Bob"},
		"stray",
	}}
	items, rejected, err := decodeList[dialogItem](doc, "dialogs", schemas().dialog)
	if err != nil {
		t.Fatalf("decodeList: %v", err)
	}
	if len(items) != 1 || rejected != 2 {
		t.Fatalf("want 1 item and 2 rejected, got %d and %d", len(items), rejected)
	}
	if items[0].Intensity.Or(0) != 0.7 {
		t.Fatalf("numeric string intensity not decoded: %+v", items[0].Intensity)
	}
	if _, _, err := decodeList[dialogItem](map[string]any{"dialogs": "nope"}, "dialogs", schemas().dialog); err == nil {
		t.Fatal("expected a non-array field to fail")
	}
	if items, _, err := decodeList[dialogItem](map[string]any{}, "dialogs", schemas().dialog); err != nil || len(items) != 0 {
		t.Fatalf("missing key should be empty, got %v %v", items, err)
	}
}

func TestFlexStrings(t *testing.T) {
	var fromList, fromString flexStrings
	if err := json.Unmarshal([]byte(`["brave", " ", "kind"]`), &fromList); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`"brave, kind,"`), &fromString); err != nil {
		t.Fatal(err)
	}
	for _, got := range []flexStrings{fromList, fromString} {
		if len(got) != 2 || got[0] != "brave" || got[1] != "kind" {
			t.Fatalf("unexpected traits %v", got)
		}
	}
}

func TestFlexFloatIgnoresGarbage(t *testing.T) {
	var f flexFloat
	if err := json.Unmarshal([]byte(`"loud"`), &f); err != nil {
		t.Fatal(err)
	}
	if f.Set || f.Or(0.5) != 0.5 {
		t.Fatalf("non-numeric string must leave value unset: %+v", f)
	}
}
