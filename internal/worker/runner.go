// Package worker runs quiz generation in the background and persists the
// outcome.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/abhisek/quizgen/internal/quizgen"
	"github.com/abhisek/quizgen/internal/store"
)

var (
	// ErrQueueFull is returned by Submit when no queue slot is free.
	ErrQueueFull = errors.New("generation queue is full")

	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("runner is closed")

	// ErrNoQuestions is recorded when generation succeeded but every
	// category came back empty.
	ErrNoQuestions = errors.New("no questions generated")
)

// DefaultQueueSize is the queue capacity used when none is given.
const DefaultQueueSize = 16

// Generator produces the questions for one request.
type Generator interface {
	GenerateQuizFromSource(ctx context.Context, req quizgen.Request) (*quizgen.Result, error)
}

// Job asks the runner to fill an existing quiz row.
type Job struct {
	QuizID  string
	Request quizgen.Request

	// Done, when non-nil, receives the outcome once the quiz is saved or
	// marked failed. It should be buffered; the runner does not wait on it.
	Done chan<- Outcome
}

// Outcome reports how a job ended.
type Outcome struct {
	QuizID    string
	Questions int
	Refined   bool
	Err       error
}

// Runner processes generation jobs one at a time from a bounded queue.
type Runner struct {
	gen     Generator
	quizzes store.QuizRepo
	logger  *zap.Logger

	ctx     context.Context
	pending chan Job
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewRunner starts a runner. ctx bounds every job; cancelling it aborts
// in-flight generation and the aborted quizzes are marked failed.
func NewRunner(ctx context.Context, gen Generator, quizzes store.QuizRepo, queueSize int, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	r := &Runner{
		gen:     gen,
		quizzes: quizzes,
		logger:  logger,
		ctx:     ctx,
		pending: make(chan Job, queueSize),
		done:    make(chan struct{}),
	}
	go r.processLoop()
	return r
}

// Submit enqueues a job without blocking.
func (r *Runner) Submit(job Job) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrClosed
	}

	select {
	case r.pending <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting jobs and waits for queued ones to finish.
func (r *Runner) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.pending)
	}
	r.mu.Unlock()
	<-r.done
}

func (r *Runner) processLoop() {
	defer close(r.done)
	for job := range r.pending {
		out := r.run(job)
		if job.Done != nil {
			select {
			case job.Done <- out:
			default:
				r.logger.Warn("job outcome dropped", zap.String("quiz_id", job.QuizID))
			}
		}
	}
}

func (r *Runner) run(job Job) Outcome {
	log := r.logger.With(zap.String("quiz_id", job.QuizID))
	out := Outcome{QuizID: job.QuizID}

	res, err := r.gen.GenerateQuizFromSource(r.ctx, job.Request)
	if err == nil && len(res.Questions) == 0 {
		err = ErrNoQuestions
	}
	if err != nil {
		out.Err = err
		log.Error("quiz generation failed", zap.Error(err))
		// The quiz row must leave the generating state even after cancellation.
		if merr := r.quizzes.MarkFailed(context.WithoutCancel(r.ctx), job.QuizID, err.Error()); merr != nil {
			log.Error("could not mark quiz failed", zap.Error(merr))
		}
		return out
	}

	if err := r.quizzes.SaveQuestions(r.ctx, job.QuizID, res.Refined, ToStored(res.Questions)); err != nil {
		out.Err = fmt.Errorf("save questions: %w", err)
		log.Error("could not save quiz", zap.Error(err))
		if merr := r.quizzes.MarkFailed(context.WithoutCancel(r.ctx), job.QuizID, out.Err.Error()); merr != nil {
			log.Error("could not mark quiz failed", zap.Error(merr))
		}
		return out
	}

	out.Questions = len(res.Questions)
	out.Refined = res.Refined
	if out.Questions < job.Request.TotalCount {
		log.Warn("quiz is shorter than requested",
			zap.Int("requested", job.Request.TotalCount),
			zap.Int("generated", out.Questions),
		)
	} else {
		log.Info("quiz ready", zap.Int("questions", out.Questions), zap.Bool("refined", res.Refined))
	}
	return out
}

// ToStored converts generated questions to their persisted form, keeping
// order as play position.
func ToStored(qs []quizgen.Question) []store.StoredQuestion {
	return lo.Map(qs, func(q quizgen.Question, i int) store.StoredQuestion {
		return store.StoredQuestion{
			Position:    i,
			Category:    string(q.Category),
			Text:        q.Text,
			SourceQuote: q.SourceQuote,
			Explanation: q.Explanation,
			Options: lo.Map(q.Options, func(o quizgen.Option, _ int) store.StoredOption {
				return store.StoredOption{Text: o.Text, IsCorrect: o.IsCorrect}
			}),
		}
	})
}
