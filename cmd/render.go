package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"

	"github.com/abhisek/quizgen/internal/grading"
	"github.com/abhisek/quizgen/internal/store"
	"github.com/abhisek/quizgen/internal/ui/theme"
)

type jsonOption struct {
	Text      string `json:"option_text"`
	IsCorrect bool   `json:"is_correct"`
}

type jsonQuestion struct {
	Category    string       `json:"category"`
	Text        string       `json:"question_text"`
	SourceQuote string       `json:"source_quote"`
	Explanation string       `json:"explanation"`
	Options     []jsonOption `json:"options"`
}

type jsonQuiz struct {
	ID         string         `json:"id,omitempty"`
	Title      string         `json:"title"`
	Difficulty string         `json:"difficulty"`
	Requested  int            `json:"requested_count"`
	Refined    bool           `json:"refined"`
	Questions  []jsonQuestion `json:"questions"`
}

func writeQuizJSON(w io.Writer, meta store.QuizMeta, qs []store.StoredQuestion) error {
	out := jsonQuiz{
		ID:         meta.ID,
		Title:      meta.Title,
		Difficulty: meta.Difficulty,
		Requested:  meta.RequestedCount,
		Refined:    meta.Refined,
		Questions: lo.Map(qs, func(q store.StoredQuestion, _ int) jsonQuestion {
			return jsonQuestion{
				Category:    q.Category,
				Text:        q.Text,
				SourceQuote: q.SourceQuote,
				Explanation: q.Explanation,
				Options: lo.Map(q.Options, func(o store.StoredOption, _ int) jsonOption {
					return jsonOption{Text: o.Text, IsCorrect: o.IsCorrect}
				}),
			}
		}),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printQuizHeader(w io.Writer, meta store.QuizMeta) {
	fmt.Fprintln(w, theme.Title.Render(meta.Title))
	details := fmt.Sprintf("%s · %d of %d questions", meta.Difficulty, meta.QuestionCount, meta.RequestedCount)
	if meta.Refined {
		details += " · refined"
	}
	if meta.ID != "" {
		details += " · " + meta.ID
	}
	fmt.Fprintln(w, theme.Subtitle.Render(details))
	fmt.Fprintln(w)
}

// printQuestion writes one question. With reveal set, the correct option is
// highlighted and the quote and explanation follow.
func printQuestion(w io.Writer, n, total int, q store.StoredQuestion, reveal bool) {
	fmt.Fprintf(w, "%s %s\n", theme.Selected.Render(fmt.Sprintf("%d/%d", n, total)), theme.Hint.Render(q.Category))
	fmt.Fprintln(w, q.Text)
	for i, o := range q.Options {
		line := fmt.Sprintf("  %s) %s", grading.Letter(i), o.Text)
		if reveal && o.IsCorrect {
			line = theme.Correct.Render(line)
		}
		fmt.Fprintln(w, line)
	}
	if reveal {
		printExplanation(w, q)
	}
	fmt.Fprintln(w)
}

func printExplanation(w io.Writer, q store.StoredQuestion) {
	if q.SourceQuote != "" {
		fmt.Fprintln(w, theme.Quote.Render("“"+q.SourceQuote+"”"))
	}
	if q.Explanation != "" {
		fmt.Fprintln(w, theme.Hint.Render(q.Explanation))
	}
}

func printQuiz(w io.Writer, meta store.QuizMeta, qs []store.StoredQuestion) {
	printQuizHeader(w, meta)
	for i, q := range qs {
		printQuestion(w, i+1, len(qs), q, true)
	}
}

// titleFrom derives a short title from the first line of the source text.
func titleFrom(src string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(src), "\n")
	line = strings.TrimSpace(line)
	if r := []rune(line); len(r) > 60 {
		line = strings.TrimSpace(string(r[:57])) + "..."
	}
	if line == "" {
		return "Untitled quiz"
	}
	return line
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}
