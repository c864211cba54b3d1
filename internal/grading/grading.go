// Package grading scores a played quiz.
package grading

import (
	"github.com/samber/lo"

	"github.com/abhisek/quizgen/internal/store"
)

// Unanswered marks a question the player skipped.
const Unanswered = -1

// QuestionResult is the outcome for one question.
type QuestionResult struct {
	Chosen  int // option index, or Unanswered
	Correct int // index of the correct option, -1 if the question has none
	IsRight bool
}

// Result is the outcome of one play-through.
type Result struct {
	Correct     int
	Total       int
	Score       float64 // Correct / Total, 0 for an empty quiz
	PerQuestion []QuestionResult
}

// Grade scores answers against questions. answers[i] is the chosen option
// index for questions[i]. Missing, negative and out-of-range answers count
// as wrong.
func Grade(questions []store.StoredQuestion, answers []int) Result {
	per := lo.Map(questions, func(q store.StoredQuestion, i int) QuestionResult {
		chosen := Unanswered
		if i < len(answers) && answers[i] >= 0 && answers[i] < len(q.Options) {
			chosen = answers[i]
		}
		correct := q.CorrectIndex()
		return QuestionResult{
			Chosen:  chosen,
			Correct: correct,
			IsRight: chosen != Unanswered && chosen == correct,
		}
	})

	res := Result{
		Correct:     lo.CountBy(per, func(r QuestionResult) bool { return r.IsRight }),
		Total:       len(questions),
		PerQuestion: per,
	}
	if res.Total > 0 {
		res.Score = float64(res.Correct) / float64(res.Total)
	}
	return res
}

// Letter returns the display label for option index i: A, B, C, ...
func Letter(i int) string {
	if i < 0 || i >= 26 {
		return "?"
	}
	return string(rune('A' + i))
}

// ParseLetter converts a player's answer ("b", "B", "2") into an option
// index for a question with n options. It returns Unanswered for anything
// else.
func ParseLetter(s string, n int) int {
	if len(s) != 1 {
		return Unanswered
	}
	c := s[0]
	var i int
	switch {
	case c >= 'a' && c <= 'z':
		i = int(c - 'a')
	case c >= 'A' && c <= 'Z':
		i = int(c - 'A')
	case c >= '1' && c <= '9':
		i = int(c - '1')
	default:
		return Unanswered
	}
	if i >= n {
		return Unanswered
	}
	return i
}
