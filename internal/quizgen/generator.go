package quizgen

import "context"

// Generator produces candidate questions for one taxonomy category.
type Generator interface {
	// Generate asks for count questions of the given category about
	// sourceText. It never fails: an LLM, parse or schema failure yields an
	// empty result. Questions failing a validator are dropped individually.
	// count <= 0 returns nil without contacting the LLM.
	Generate(ctx context.Context, category Category, count int, sourceText string) []Question
}
