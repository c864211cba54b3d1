package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizgen/internal/llm"
)

func echoGenerator(_ context.Context, cat Category, count int) (string, error) {
	return questionsJSON(string(cat), count), nil
}

// categoryOf recovers the category from a question text written by
// questionsJSON, with or without the refiner's prefix.
func categoryOf(q Question) Category {
	text := strings.TrimPrefix(q.Text, "Refined: ")
	name, _, _ := strings.Cut(text, " ")
	return Category(name)
}

func runs(cats []Category) int {
	n := 0
	for i := range cats {
		if i == 0 || cats[i] != cats[i-1] {
			n++
		}
	}
	return n
}

func TestGenerateQuizFromSource_ShufflesAcrossCategories(t *testing.T) {
	svc := NewService(quizLLM(echoGenerator), llm.NewMockEmbedder(nil), testConfig(), nil)

	res, err := svc.GenerateQuizFromSource(context.Background(), Request{
		Difficulty: Medium,
		TotalCount: 10,
		SourceText: "The water cycle moves water between oceans, air and land.",
	})
	require.NoError(t, err)
	require.Len(t, res.Questions, 10)
	assert.True(t, res.Refined)

	var got []Category
	counts := map[Category]int{}
	for _, q := range res.Questions {
		assert.Equal(t, categoryOf(q), q.Category, "category tag survives refinement")
		got = append(got, q.Category)
		counts[q.Category]++
	}
	assert.Equal(t, map[Category]int{Understanding: 5, Remembering: 3, Applying: 2}, counts)

	var concatenated []Category
	for _, w := range []Weight{{Understanding, .5}, {Remembering, .3}, {Applying, .2}} {
		for i := 0; i < counts[w.Category]; i++ {
			concatenated = append(concatenated, w.Category)
		}
	}
	assert.NotEqual(t, concatenated, got)
	assert.Greater(t, runs(got), 3, "output is clustered by category: %v", got)
}

func TestGenerateQuizFromSource_SameSeedSameOrder(t *testing.T) {
	order := func() []string {
		svc := NewService(quizLLM(echoGenerator), llm.NewMockEmbedder(nil), testConfig(), nil)
		res, err := svc.GenerateQuizFromSource(context.Background(), Request{Difficulty: Medium, TotalCount: 10, SourceText: "src"})
		require.NoError(t, err)
		var out []string
		for _, q := range res.Questions {
			out = append(out, q.Text)
		}
		return out
	}
	assert.Equal(t, order(), order())
}

func TestGenerateQuizFromSource_SkipRefine(t *testing.T) {
	p := quizLLM(echoGenerator)
	cfg := testConfig()
	cfg.SkipRefine = true

	res, err := NewService(p, llm.NewMockEmbedder(nil), cfg, nil).GenerateQuizFromSource(context.Background(), Request{
		Difficulty: Hard,
		TotalCount: 5,
		SourceText: "src",
	})
	require.NoError(t, err)
	assert.Len(t, res.Questions, 5)
	assert.False(t, res.Refined)
	// one call per active category, none for refinement
	assert.Equal(t, 2, p.CallCount())
	for _, c := range p.Calls {
		assert.NotEqual(t, refinerSystemPrompt, c.System)
	}
}

func TestGenerateQuizFromSource_RefineFailureKeepsComposedQuiz(t *testing.T) {
	p := llm.NewFuncProvider(func(ctx context.Context, req llm.Request) (string, error) {
		if req.System == refinerSystemPrompt {
			return "", &llm.ErrProviderUnavailable{Err: errors.New("overloaded")}
		}
		msg := req.Messages[0].Content
		return echoGenerator(ctx, promptCategory(msg), promptCount(msg))
	})

	res, err := NewService(p, llm.NewMockEmbedder(nil), testConfig(), nil).GenerateQuizFromSource(context.Background(), Request{
		Difficulty: Easy,
		TotalCount: 4,
		SourceText: "src",
	})
	require.NoError(t, err)
	assert.False(t, res.Refined)
	require.Len(t, res.Questions, 4)
	for _, q := range res.Questions {
		assert.False(t, strings.HasPrefix(q.Text, "Refined: "))
	}
}

func TestGenerateQuizFromSource_RestoredSlotsKeepExplanations(t *testing.T) {
	// Every other generated question lacks an explanation, and the editor
	// strips all of them so every refined slot falls back to its original.
	gen := func(_ context.Context, cat Category, count int) (string, error) {
		var set questionSet
		if err := json.Unmarshal([]byte(questionsJSON(string(cat), count)), &set); err != nil {
			return "", err
		}
		for i := range set.Questions {
			if i%2 == 1 {
				set.Questions[i].Explanation = ""
			}
		}
		return mustJSON(set), nil
	}
	p := llm.NewFuncProvider(func(ctx context.Context, req llm.Request) (string, error) {
		msg := req.Messages[0].Content
		if req.System != refinerSystemPrompt {
			return gen(ctx, promptCategory(msg), promptCount(msg))
		}
		raw, err := echoRefined(msg)
		if err != nil {
			return "", err
		}
		var set questionSet
		if err := json.Unmarshal([]byte(raw), &set); err != nil {
			return "", err
		}
		for i := range set.Questions {
			set.Questions[i].Explanation = ""
		}
		return mustJSON(set), nil
	})

	svc := NewService(p, llm.NewMockEmbedder(nil), testConfig(), nil)
	res, err := svc.GenerateQuizFromSource(context.Background(), Request{Difficulty: Easy, TotalCount: 4, SourceText: "src"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Questions)
	assert.False(t, res.Refined)
	for _, q := range res.Questions {
		assert.NotEmpty(t, strings.TrimSpace(q.Explanation), "question %q", q.Text)
	}
}

func TestGenerateQuizFromSource_EmbeddingErrorPropagates(t *testing.T) {
	emb := llm.NewMockEmbedder(nil)
	emb.Err = &llm.ErrProviderUnavailable{Err: errors.New("no route")}
	p := quizLLM(echoGenerator)

	res, err := NewService(p, emb, testConfig(), nil).GenerateQuizFromSource(context.Background(), Request{
		Difficulty: Easy,
		TotalCount: 3,
		SourceText: "src",
	})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrEmbedding)

	var unavailable *llm.ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavailable)
	for _, c := range p.Calls {
		assert.NotEqual(t, refinerSystemPrompt, c.System, "refine must not run after a fatal error")
	}
}

func TestGenerateQuizFromSource_UnknownDifficulty(t *testing.T) {
	svc := NewService(llm.NewMockProvider(), llm.NewMockEmbedder(nil), testConfig(), nil)
	_, err := svc.GenerateQuizFromSource(context.Background(), Request{Difficulty: "extreme", TotalCount: 3})
	assert.Error(t, err)
}

func TestServicePlan(t *testing.T) {
	svc := NewService(llm.NewMockProvider(), llm.NewMockEmbedder(nil), testConfig(), nil)
	plans, err := svc.Plan(Request{Difficulty: Hard, TotalCount: 10})
	require.NoError(t, err)
	assert.Equal(t, []CategoryPlan{
		{Category: Analyzing, Weight: 0.6, Needed: 6, Requested: 11},
		{Category: Applying, Weight: 0.4, Needed: 4, Requested: 8},
	}, plans)
}
