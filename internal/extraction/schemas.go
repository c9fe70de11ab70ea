package extraction

import (
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// Reply item schemas pin down the shape of each element and leave unknown
// fields alone, since models routinely add commentary keys. Each node is
// built fresh because a resolved schema must be a tree.

func typed(types ...string) *jsonschema.Schema {
	if len(types) == 1 {
		return &jsonschema.Schema{Type: types[0]}
	}
	return &jsonschema.Schema{Types: types}
}

// numeric accepts numbers and numeric strings; flexFloat sorts them out.
func numeric() *jsonschema.Schema { return typed("number", "string", "null") }

func optionalString() *jsonschema.Schema { return typed("string", "null") }

func characterItemSchema() *jsonschema.Schema {
	return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{
		typed("string"),
		{
			Type:     "object",
			Required: []string{"name"},
			Properties: map[string]*jsonschema.Schema{
				"name": typed("string"),
				"traits": {AnyOf: []*jsonschema.Schema{
					{Type: "array", Items: typed("string")},
					typed("string"),
					typed("null"),
				}},
			},
		},
	}}
}

func dialogItemSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:     "object",
		Required: []string{"text"},
		Properties: map[string]*jsonschema.Schema{
			"speaker":   optionalString(),
			"text":      typed("string"),
			"emotion":   optionalString(),
			"intensity": numeric(),
		},
	}
}

func voiceProfileSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"pitch":      numeric(),
			"speed":      numeric(),
			"energy":     numeric(),
			"gender":     optionalString(),
			"age":        optionalString(),
			"tone":       optionalString(),
			"accent":     optionalString(),
			"speaker_id": typed("integer", "number", "string", "null"),
			"emotion_bias": {
				Types:                []string{"object", "null"},
				AdditionalProperties: numeric(),
			},
		},
	}
}

type resolvedSchemas struct {
	character *jsonschema.Resolved
	dialog    *jsonschema.Resolved
	voice     *jsonschema.Resolved
}

// schemas resolves the reply schemas once. They are static, so a resolution
// error is a programming mistake.
var schemas = sync.OnceValue(func() resolvedSchemas {
	return resolvedSchemas{
		character: mustResolve(characterItemSchema()),
		dialog:    mustResolve(dialogItemSchema()),
		voice:     mustResolve(voiceProfileSchema()),
	}
})

func mustResolve(s *jsonschema.Schema) *jsonschema.Resolved {
	r, err := s.Resolve(nil)
	if err != nil {
		panic("extraction: invalid reply schema: " + err.Error())
	}
	return r
}
