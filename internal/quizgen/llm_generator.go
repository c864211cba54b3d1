package quizgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/quizgen/internal/llm"
)

// LLMGenerator implements Generator using the LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
	logger   *zap.Logger
}

// NewGenerator creates a new LLMGenerator with the given provider and config.
func NewGenerator(provider llm.Provider, cfg Config, logger *zap.Logger) *LLMGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMGenerator{provider: provider, config: cfg, logger: logger}
}

// Generate produces up to count questions for the category.
func (g *LLMGenerator) Generate(ctx context.Context, category Category, count int, sourceText string) []Question {
	if count <= 0 {
		return nil
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeQuestionGen)
	if g.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.CallTimeout)
		defer cancel()
	}

	log := g.logger.With(zap.String("category", string(category)), zap.Int("requested", count))

	raw, err := llm.Complete(ctx, g.provider, llm.CompletionRequest{
		System:      generatorSystemPrompt,
		Human:       buildGeneratorMessage(category, count, sourceText),
		Temperature: g.config.temperature(category),
		MaxTokens:   g.config.MaxTokens,
		JSON:        true,
	})
	if err != nil {
		log.Warn("category generation failed", zap.Error(err))
		return nil
	}

	parsed, err := decodeQuestions(raw, QuestionSetSchema)
	if err != nil {
		log.Warn("could not parse generated questions",
			zap.String("raw_output", raw),
			zap.Error(err),
		)
		return nil
	}

	out := make([]Question, 0, len(parsed))
	for i := range parsed {
		q := parsed[i]
		if verr := validate(&q, g.config.Validators); verr != nil {
			log.Debug("dropping invalid question", zap.Int("index", i), zap.Error(verr))
			continue
		}
		q.Category = category
		out = append(out, q)
	}

	log.Debug("category generated", zap.Int("parsed", len(parsed)), zap.Int("valid", len(out)))
	return out
}

// decodeQuestions cleans raw LLM text, checks it against schema and
// unmarshals the question list. A bare JSON array is accepted as the list.
func decodeQuestions(raw string, schema *llm.Schema) ([]Question, error) {
	cleaned := Clean(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("empty response")
	}
	if strings.HasPrefix(cleaned, "[") {
		cleaned = `{"questions":` + cleaned + `}`
	}

	if err := llm.ValidateJSON(schema, []byte(cleaned)); err != nil {
		return nil, err
	}

	var set questionSet
	if err := json.Unmarshal([]byte(cleaned), &set); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return set.Questions, nil
}
