package quizgen

import (
	"context"
	"encoding/json"
	"slices"

	"go.uber.org/zap"

	"github.com/abhisek/quizgen/internal/llm"
)

// Refiner makes one editing pass over a composed quiz.
type Refiner struct {
	provider   llm.Provider
	config     Config
	validators []Validator
	logger     *zap.Logger
}

// NewRefiner creates a Refiner. Refined questions must pass cfg.Validators
// plus an explanation check.
func NewRefiner(provider llm.Provider, cfg Config, logger *zap.Logger) *Refiner {
	if logger == nil {
		logger = zap.NewNop()
	}
	validators := slices.Clone(cfg.Validators)
	if !slices.ContainsFunc(validators, func(v Validator) bool { return v.Name() == "explanation" }) {
		validators = append(validators, &ExplanationValidator{})
	}
	return &Refiner{provider: provider, config: cfg, validators: validators, logger: logger}
}

// Refine returns an edited copy of qs with the same length and order, and
// whether any edit was applied. Any failure of the pass as a whole returns
// qs unchanged. A single refined question that fails validation is replaced
// by its original.
func (r *Refiner) Refine(ctx context.Context, qs []Question) ([]Question, bool) {
	if len(qs) == 0 {
		return qs, false
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeRefine)
	if r.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.CallTimeout)
		defer cancel()
	}

	payload, err := json.MarshalIndent(questionSet{Questions: qs}, "", "  ")
	if err != nil {
		r.logger.Warn("refine skipped: cannot serialize questions", zap.Error(err))
		return qs, false
	}

	raw, err := llm.Complete(ctx, r.provider, llm.CompletionRequest{
		System:      refinerSystemPrompt,
		Human:       buildRefinerMessage(string(payload)),
		Temperature: r.config.RefineTemperature,
		MaxTokens:   r.config.RefineMaxTokens,
		JSON:        true,
	})
	if err != nil {
		r.logger.Warn("refine failed, keeping original questions", zap.Error(err))
		return qs, false
	}

	refined, err := decodeQuestions(raw, RefinedSetSchema)
	if err != nil {
		r.logger.Warn("could not parse refined questions, keeping original questions",
			zap.String("raw_output", raw),
			zap.Error(err),
		)
		return qs, false
	}
	if len(refined) != len(qs) {
		r.logger.Warn("refined set changed size, keeping original questions",
			zap.Int("input", len(qs)),
			zap.Int("output", len(refined)),
		)
		return qs, false
	}

	out := make([]Question, len(qs))
	kept := 0
	for i := range refined {
		q := refined[i]
		if verr := validate(&q, r.validators); verr != nil {
			r.logger.Debug("refined question invalid, keeping original", zap.Int("index", i), zap.Error(verr))
			out[i] = qs[i]
			kept++
			continue
		}
		if q.SourceQuote == "" {
			q.SourceQuote = qs[i].SourceQuote
		}
		q.Category = qs[i].Category
		out[i] = q
	}

	return out, kept < len(qs)
}
