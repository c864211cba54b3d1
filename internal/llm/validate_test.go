package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func questionSchema() *Schema {
	return &Schema{
		Name:        "test-question",
		Description: "A single quiz question",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text":     map[string]any{"type": "string", "minLength": 1},
				"category": map[string]any{"type": "string", "enum": []any{"Remembering", "Applying"}},
				"options": map[string]any{
					"type":     "array",
					"minItems": 2,
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"text":    map[string]any{"type": "string"},
							"correct": map[string]any{"type": "boolean"},
						},
						"required": []any{"text", "correct"},
					},
				},
			},
			"required": []any{"text", "options"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{"valid", `{"text":"What is chlorophyll?","category":"Remembering","options":[{"text":"A pigment","correct":true},{"text":"A sugar","correct":false}]}`, true},
		{"optional field omitted", `{"text":"Why?","options":[{"text":"a","correct":true},{"text":"b","correct":false}]}`, true},
		{"missing required", `{"text":"Why?"}`, false},
		{"wrong type", `{"text":"Why?","options":"a or b"}`, false},
		{"enum violation", `{"text":"Why?","category":"Guessing","options":[{"text":"a","correct":true},{"text":"b","correct":false}]}`, false},
		{"too few options", `{"text":"Why?","options":[{"text":"a","correct":true}]}`, false},
		{"nested required", `{"text":"Why?","options":[{"text":"a"},{"text":"b","correct":false}]}`, false},
		{"malformed", `{not json}`, false},
		{"empty", ``, false},
		{"whitespace", "  \n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(questionSchema(), json.RawMessage(tt.raw))
			if tt.valid {
				if err != nil {
					t.Fatalf("expected no error, got: %v", err)
				}
				return
			}
			var invErr *ErrInvalidResponse
			if !errors.As(err, &invErr) {
				t.Fatalf("expected ErrInvalidResponse, got: %T (%v)", err, err)
			}
			if string(invErr.Content) != tt.raw {
				t.Fatalf("expected offending content to be kept, got %q", invErr.Content)
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`not even json`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateJSON_ReusesCompiledSchema(t *testing.T) {
	s := questionSchema()
	s.Name = "test-question-cache"
	raw := []byte(`{"text":"Why?","options":[{"text":"a","correct":true},{"text":"b","correct":false}]}`)

	for range 2 {
		if err := ValidateJSON(s, raw); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, ok := compiledSchemas.Load(s.Name); !ok {
		t.Fatal("expected compiled schema to be cached")
	}
}
