package quizgen

import (
	"fmt"
	"strings"
)

// OptionsPerQuestion is the fixed number of answer choices.
const OptionsPerQuestion = 4

// StructuralValidator checks the multiple-choice shape: text present,
// exactly four non-empty options and exactly one correct option.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *Question) *ValidationError {
	if strings.TrimSpace(q.Text) == "" {
		return &ValidationError{Validator: v.Name(), Message: "question_text is empty"}
	}
	if len(q.Options) != OptionsPerQuestion {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("expected %d options, got %d", OptionsPerQuestion, len(q.Options)),
		}
	}

	correct := 0
	for i, o := range q.Options {
		if strings.TrimSpace(o.Text) == "" {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("option %d has empty text", i),
			}
		}
		if o.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("expected exactly one correct option, got %d", correct),
		}
	}
	return nil
}

// ExplanationValidator requires a non-empty explanation. It runs at
// generation so a slot the refiner restores to its original still has one.
type ExplanationValidator struct{}

func (v *ExplanationValidator) Name() string { return "explanation" }

func (v *ExplanationValidator) Validate(q *Question) *ValidationError {
	if strings.TrimSpace(q.Explanation) == "" {
		return &ValidationError{Validator: v.Name(), Message: "explanation is empty"}
	}
	return nil
}
