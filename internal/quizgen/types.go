package quizgen

import (
	"fmt"
	"strings"
)

// Option is one answer choice of a Question.
type Option struct {
	Text      string `json:"option_text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question is a generated multiple-choice question.
type Question struct {
	Text        string   `json:"question_text"`
	SourceQuote string   `json:"source_quote"`
	Explanation string   `json:"explanation"`
	Options     []Option `json:"options"`

	// Category records which taxonomy category produced the question.
	// It is never sent to or read from the LLM.
	Category Category `json:"-"`
}

// CorrectIndex returns the index of the first correct option, or -1.
func (q Question) CorrectIndex() int {
	for i, o := range q.Options {
		if o.IsCorrect {
			return i
		}
	}
	return -1
}

// questionSet is the JSON envelope exchanged with the LLM.
type questionSet struct {
	Questions []Question `json:"questions"`
}

// Category is a cognitive-taxonomy tier used to bias question style.
type Category string

const (
	Remembering   Category = "remembering"
	Understanding Category = "understanding"
	Applying      Category = "applying"
	Analyzing     Category = "analyzing"
)

// Categories lists every category in canonical order.
var Categories = []Category{Remembering, Understanding, Applying, Analyzing}

// ParseCategory converts a user-supplied name into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case Remembering, Understanding, Applying, Analyzing:
		return c, nil
	}
	return "", fmt.Errorf("unknown taxonomy category %q", s)
}

// categorySpec is the prompt phrasing and sampling temperature of a category.
type categorySpec struct {
	instruction string
	temperature float64
}

// spec returns the category's prompt phrasing and default temperature.
// Unrecognized categories fall back to remembering.
func (c Category) spec() categorySpec {
	switch c {
	case Understanding:
		return categorySpec{
			instruction: "Write questions that test comprehension: the learner must explain, paraphrase, " +
				"summarize or compare ideas from the text, not just recall a phrase.",
			temperature: 0.3,
		}
	case Applying:
		return categorySpec{
			instruction: "Write questions that test application: present a new, concrete scenario not " +
				"described in the text and ask which option correctly applies a principle from it.",
			temperature: 0.7,
		}
	case Analyzing:
		return categorySpec{
			instruction: "Write questions that test analysis: the learner must infer relationships, causes, " +
				"assumptions or implications that the text supports but does not state outright.",
			temperature: 0.7,
		}
	default:
		return categorySpec{
			instruction: "Write questions that test recall: the learner must remember specific facts, " +
				"terms, names, dates or definitions stated in the text.",
			temperature: 0.3,
		}
	}
}

// Difficulty selects a blend of categories.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ParseDifficulty converts a user-supplied name into a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if _, err := d.Blend(); err != nil {
		return "", err
	}
	return d, nil
}

// Weight is one category's share of a quiz.
type Weight struct {
	Category Category
	Fraction float64
}

// Blend returns the weighted category mix for the difficulty. The order of
// the returned slice is the category processing order.
func (d Difficulty) Blend() ([]Weight, error) {
	switch d {
	case Easy:
		return []Weight{{Remembering, 1.0}}, nil
	case Medium:
		return []Weight{{Understanding, 0.5}, {Remembering, 0.3}, {Applying, 0.2}}, nil
	case Hard:
		return []Weight{{Analyzing, 0.6}, {Applying, 0.4}}, nil
	}
	return nil, fmt.Errorf("unknown difficulty %q", string(d))
}
