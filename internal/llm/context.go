package llm

import "context"

type contextKey string

const purposeKey contextKey = "llm_purpose"

// Purpose labels recorded with every call.
const (
	PurposeQuestionGen = "question-gen"
	PurposeRefine      = "quiz-refine"
	PurposeEmbedding   = "embedding"
)

// WithPurpose attaches a purpose label to the context for event logging.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom extracts the purpose label from the context, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}

// purposeOr returns the purpose on ctx, or fallback when none was set.
func purposeOr(ctx context.Context, fallback string) string {
	if p := PurposeFrom(ctx); p != "unknown" {
		return p
	}
	return fallback
}
