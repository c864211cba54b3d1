package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizgen/internal/quizgen"
	"github.com/abhisek/quizgen/internal/store"
)

type genFunc func(ctx context.Context, req quizgen.Request) (*quizgen.Result, error)

func (f genFunc) GenerateQuizFromSource(ctx context.Context, req quizgen.Request) (*quizgen.Result, error) {
	return f(ctx, req)
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createQuiz(t *testing.T, repo store.QuizRepo, count int) string {
	t.Helper()
	id, err := repo.Create(context.Background(), store.NewQuiz{
		Title:          "Photosynthesis",
		Difficulty:     "easy",
		RequestedCount: count,
		SourceText:     "Plants turn light into sugar.",
	})
	require.NoError(t, err)
	return id
}

func question(text string, cat quizgen.Category) quizgen.Question {
	return quizgen.Question{
		Text:        text,
		SourceQuote: "Plants turn light into sugar.",
		Explanation: "Stated directly.",
		Category:    cat,
		Options: []quizgen.Option{
			{Text: "Water"}, {Text: "Sugar", IsCorrect: true}, {Text: "Salt"}, {Text: "Oil"},
		},
	}
}

func TestRunner_SavesGeneratedQuiz(t *testing.T) {
	s := openStore(t)
	repo := s.QuizRepo()
	id := createQuiz(t, repo, 3)

	gen := genFunc(func(_ context.Context, req quizgen.Request) (*quizgen.Result, error) {
		assert.Equal(t, 3, req.TotalCount)
		return &quizgen.Result{
			Questions: []quizgen.Question{
				question("What do plants make?", quizgen.Remembering),
				question("Why do plants need light?", quizgen.Understanding),
			},
			Refined: true,
		}, nil
	})
	r := NewRunner(context.Background(), gen, repo, 4, nil)

	done := make(chan Outcome, 1)
	require.NoError(t, r.Submit(Job{QuizID: id, Request: quizgen.Request{Difficulty: quizgen.Easy, TotalCount: 3}, Done: done}))
	out := <-done
	r.Close()

	require.NoError(t, out.Err)
	assert.Equal(t, Outcome{QuizID: id, Questions: 2, Refined: true}, out)

	quiz, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, quiz)
	assert.Equal(t, store.StatusReady, quiz.Status)
	assert.True(t, quiz.Refined)
	require.Len(t, quiz.Questions, 2)
	assert.Equal(t, "What do plants make?", quiz.Questions[0].Text)
	assert.Equal(t, "understanding", quiz.Questions[1].Category)
	assert.Equal(t, 1, quiz.Questions[1].CorrectIndex())
}

func TestRunner_MarksFailures(t *testing.T) {
	tests := []struct {
		name    string
		result  *quizgen.Result
		err     error
		wantErr error
	}{
		{"embedding failure", nil, fmt.Errorf("%w: category remembering: boom", quizgen.ErrEmbedding), quizgen.ErrEmbedding},
		{"empty quiz", &quizgen.Result{}, nil, ErrNoQuestions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openStore(t)
			repo := s.QuizRepo()
			id := createQuiz(t, repo, 5)

			gen := genFunc(func(context.Context, quizgen.Request) (*quizgen.Result, error) {
				return tt.result, tt.err
			})
			r := NewRunner(context.Background(), gen, repo, 1, nil)
			done := make(chan Outcome, 1)
			require.NoError(t, r.Submit(Job{QuizID: id, Done: done}))
			out := <-done
			r.Close()

			assert.ErrorIs(t, out.Err, tt.wantErr)

			quiz, err := repo.Get(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, store.StatusFailed, quiz.Status)
			assert.Equal(t, out.Err.Error(), quiz.ErrorMessage)
			assert.Empty(t, quiz.Questions)
		})
	}
}

func TestRunner_CancelledContextMarksFailed(t *testing.T) {
	s := openStore(t)
	repo := s.QuizRepo()
	id := createQuiz(t, repo, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := genFunc(func(ctx context.Context, _ quizgen.Request) (*quizgen.Result, error) {
		return nil, ctx.Err()
	})
	r := NewRunner(ctx, gen, repo, 1, nil)
	done := make(chan Outcome, 1)
	require.NoError(t, r.Submit(Job{QuizID: id, Done: done}))
	out := <-done
	r.Close()

	assert.ErrorIs(t, out.Err, context.Canceled)
	quiz, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, quiz.Status)
}

func TestRunner_CancelledDuringSaveMarksFailed(t *testing.T) {
	s := openStore(t)
	repo := s.QuizRepo()
	id := createQuiz(t, repo, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Generation finishes but the runner context is gone before the save.
	gen := genFunc(func(context.Context, quizgen.Request) (*quizgen.Result, error) {
		cancel()
		return &quizgen.Result{Questions: []quizgen.Question{question("What do plants make?", quizgen.Remembering)}}, nil
	})
	r := NewRunner(ctx, gen, repo, 1, nil)
	done := make(chan Outcome, 1)
	require.NoError(t, r.Submit(Job{QuizID: id, Done: done}))
	out := <-done
	r.Close()

	require.Error(t, out.Err)
	assert.ErrorIs(t, out.Err, context.Canceled)

	quiz, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, quiz.Status)
	assert.Equal(t, out.Err.Error(), quiz.ErrorMessage)
	assert.Empty(t, quiz.Questions)
}

func TestRunner_SubmitWhenFull(t *testing.T) {
	s := openStore(t)
	repo := s.QuizRepo()

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	gen := genFunc(func(context.Context, quizgen.Request) (*quizgen.Result, error) {
		once.Do(func() { close(started) })
		<-release
		return &quizgen.Result{Questions: []quizgen.Question{question("q?", quizgen.Remembering)}}, nil
	})
	r := NewRunner(context.Background(), gen, repo, 1, nil)

	ids := []string{createQuiz(t, repo, 1), createQuiz(t, repo, 1), createQuiz(t, repo, 1)}

	require.NoError(t, r.Submit(Job{QuizID: ids[0]}))
	<-started // first job is off the queue and running
	require.NoError(t, r.Submit(Job{QuizID: ids[1]}))
	assert.ErrorIs(t, r.Submit(Job{QuizID: ids[2]}), ErrQueueFull)

	close(release)
	r.Close()

	for i, want := range []store.QuizStatus{store.StatusReady, store.StatusReady, store.StatusGenerating} {
		quiz, err := repo.Get(context.Background(), ids[i])
		require.NoError(t, err)
		assert.Equal(t, want, quiz.Status, "quiz %d", i)
	}
}

func TestRunner_CloseDrainsQueue(t *testing.T) {
	s := openStore(t)
	repo := s.QuizRepo()

	var mu sync.Mutex
	calls := 0
	gen := genFunc(func(context.Context, quizgen.Request) (*quizgen.Result, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return &quizgen.Result{Questions: []quizgen.Question{question("q?", quizgen.Applying)}}, nil
	})
	r := NewRunner(context.Background(), gen, repo, 8, nil)

	var ids []string
	for i := 0; i < 5; i++ {
		id := createQuiz(t, repo, 1)
		ids = append(ids, id)
		require.NoError(t, r.Submit(Job{QuizID: id}))
	}
	r.Close()
	r.Close() // idempotent

	assert.Equal(t, 5, calls)
	for _, id := range ids {
		quiz, err := repo.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, store.StatusReady, quiz.Status)
	}
	assert.ErrorIs(t, r.Submit(Job{QuizID: ids[0]}), ErrClosed)
}

func TestRunner_SaveErrorReported(t *testing.T) {
	s := openStore(t)
	gen := genFunc(func(context.Context, quizgen.Request) (*quizgen.Result, error) {
		return &quizgen.Result{Questions: []quizgen.Question{question("q?", quizgen.Remembering)}}, nil
	})
	r := NewRunner(context.Background(), gen, s.QuizRepo(), 1, nil)

	done := make(chan Outcome, 1)
	require.NoError(t, r.Submit(Job{QuizID: "missing", Done: done}))
	out := <-done
	r.Close()

	require.Error(t, out.Err)
	assert.True(t, errors.Is(out.Err, store.ErrQuizNotFound), "got %v", out.Err)
}

func TestToStored(t *testing.T) {
	got := ToStored([]quizgen.Question{
		question("first?", quizgen.Analyzing),
		question("second?", quizgen.Applying),
	})
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Position)
	assert.Equal(t, 1, got[1].Position)
	assert.Equal(t, "analyzing", got[0].Category)
	assert.Equal(t, "Stated directly.", got[1].Explanation)
	assert.Equal(t, []store.StoredOption{
		{Text: "Water"}, {Text: "Sugar", IsCorrect: true}, {Text: "Salt"}, {Text: "Oil"},
	}, got[0].Options)
	assert.Empty(t, ToStored(nil))
}
