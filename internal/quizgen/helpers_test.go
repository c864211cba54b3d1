package quizgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/quizgen/internal/llm"
)

// questionsJSON returns n distinct, valid questions whose texts start with
// prefix.
func questionsJSON(prefix string, n int) string {
	var set questionSet
	for i := 0; i < n; i++ {
		set.Questions = append(set.Questions, Question{
			Text:        fmt.Sprintf("%s question %d?", prefix, i),
			SourceQuote: "quote",
			Explanation: "because the text says so",
			Options: []Option{
				{Text: "w"},
				{Text: "x", IsCorrect: true},
				{Text: "y"},
				{Text: "z"},
			},
		})
	}
	b, _ := json.Marshal(set)
	return string(b)
}

// promptCategory and promptCount read back what buildGeneratorMessage wrote.
func promptCategory(msg string) Category {
	const marker = "Cognitive skill: "
	i := strings.Index(msg, marker)
	if i < 0 {
		return ""
	}
	rest := msg[i+len(marker):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	return Category(rest)
}

func promptCount(msg string) int {
	var n int
	fmt.Sscanf(msg, "Write %d questions", &n)
	return n
}

// quizLLM fakes both pipeline stages. Generation requests are answered by
// gen; refinement requests echo the input with reworded text.
func quizLLM(gen func(ctx context.Context, cat Category, count int) (string, error)) *llm.FuncProvider {
	return llm.NewFuncProvider(func(ctx context.Context, req llm.Request) (string, error) {
		msg := req.Messages[0].Content
		if req.System == refinerSystemPrompt {
			return echoRefined(msg)
		}
		return gen(ctx, promptCategory(msg), promptCount(msg))
	})
}

func echoRefined(msg string) (string, error) {
	const marker = "Questions to edit:\n"
	i := strings.Index(msg, marker)
	if i < 0 {
		return "", fmt.Errorf("no questions in refine prompt")
	}
	var set questionSet
	if err := json.Unmarshal([]byte(msg[i+len(marker):]), &set); err != nil {
		return "", err
	}
	for i := range set.Questions {
		set.Questions[i].Text = "Refined: " + set.Questions[i].Text
		set.Questions[i].Explanation = "Refined explanation."
	}
	b, err := json.Marshal(set)
	return string(b), err
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 42
	return cfg
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
