package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact match when non-empty
}

// QuizStatus tracks a quiz through background generation.
type QuizStatus string

const (
	StatusGenerating QuizStatus = "generating"
	StatusReady      QuizStatus = "ready"
	StatusFailed     QuizStatus = "failed"
)

// NewQuiz is the input for creating a quiz row before generation starts.
type NewQuiz struct {
	Title            string
	Difficulty       string
	RequestedCount   int
	TaxonomyOverride string
	SourceText       string
}

// QuizMeta is the list view of a quiz.
type QuizMeta struct {
	ID               string
	Title            string
	Difficulty       string
	RequestedCount   int
	TaxonomyOverride string
	Status           QuizStatus
	Refined          bool
	QuestionCount    int
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Quiz is a quiz with its source text and questions in play order.
type Quiz struct {
	QuizMeta
	SourceText string
	Questions  []StoredQuestion
}

// StoredQuestion is a persisted multiple-choice question.
type StoredQuestion struct {
	Position    int
	Category    string
	Text        string
	SourceQuote string
	Explanation string
	Options     []StoredOption
}

// StoredOption is one answer choice of a StoredQuestion.
type StoredOption struct {
	Text      string
	IsCorrect bool
}

// CorrectIndex returns the index of the first correct option, or -1.
func (q StoredQuestion) CorrectIndex() int {
	for i, o := range q.Options {
		if o.IsCorrect {
			return i
		}
	}
	return -1
}

// Attempt is one completed play-through of a quiz.
type Attempt struct {
	ID        string
	QuizID    string
	Player    string
	Correct   int
	Total     int
	Duration  time.Duration
	CreatedAt time.Time
}

// Score returns the fraction of correct answers in [0, 1].
func (a Attempt) Score() float64 {
	if a.Total == 0 {
		return 0
	}
	return float64(a.Correct) / float64(a.Total)
}

// LeaderboardEntry is a ranked attempt.
type LeaderboardEntry struct {
	Rank int
	Attempt
}

// QuizRepo persists quizzes and their questions.
type QuizRepo interface {
	// Create inserts a quiz in the generating state and returns its ID.
	Create(ctx context.Context, q NewQuiz) (string, error)

	// SaveQuestions replaces the questions of a quiz and marks it ready.
	SaveQuestions(ctx context.Context, quizID string, refined bool, questions []StoredQuestion) error

	// MarkFailed records a generation failure.
	MarkFailed(ctx context.Context, quizID string, reason string) error

	// Get returns a quiz with its questions, or nil if it does not exist.
	Get(ctx context.Context, quizID string) (*Quiz, error)

	// List returns the most recent quizzes first.
	List(ctx context.Context, limit int) ([]QuizMeta, error)

	// Delete removes a quiz with its questions and attempts.
	Delete(ctx context.Context, quizID string) error
}

// AttemptRepo persists quiz attempts.
type AttemptRepo interface {
	// Record stores an attempt and returns its ID.
	Record(ctx context.Context, a Attempt) (string, error)

	// Leaderboard ranks attempts on a quiz by score, then by duration.
	Leaderboard(ctx context.Context, quizID string, limit int) ([]LeaderboardEntry, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates token usage for one purpose label.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates token usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	// LLMUsageByPurpose aggregates usage per purpose label.
	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)

	// LLMUsageByModel aggregates usage per model.
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
}
