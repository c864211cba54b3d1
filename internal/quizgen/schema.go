package quizgen

import "github.com/abhisek/quizgen/internal/llm"

func questionItemSchema(requireExplanation bool) map[string]any {
	required := []any{"question_text", "options"}
	if requireExplanation {
		required = append(required, "explanation")
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question_text": map[string]any{
				"type":        "string",
				"description": "The question shown to the player",
			},
			"source_quote": map[string]any{
				"type":        "string",
				"description": "Verbatim excerpt from the source text that justifies the correct answer",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "Why the correct option is correct in the context of the source",
			},
			"options": map[string]any{
				"type":     "array",
				"minItems": OptionsPerQuestion,
				"maxItems": OptionsPerQuestion,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"option_text": map[string]any{"type": "string"},
						"is_correct":  map[string]any{"type": "boolean"},
					},
					"required": []any{"option_text", "is_correct"},
				},
			},
		},
		"required": required,
	}
}

// QuestionSetSchema is the shape every category generation must return.
var QuestionSetSchema = &llm.Schema{
	Name:        "question-set",
	Description: "A batch of multiple-choice questions grounded in a source text",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":  "array",
				"items": questionItemSchema(false),
			},
		},
		"required": []any{"questions"},
	},
}

// RefinedSetSchema is the shape the refinement pass must return. Unlike
// QuestionSetSchema every question needs an explanation.
var RefinedSetSchema = &llm.Schema{
	Name:        "refined-question-set",
	Description: "An edited batch of multiple-choice questions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":  "array",
				"items": questionItemSchema(true),
			},
		},
		"required": []any{"questions"},
	},
}
