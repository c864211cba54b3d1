package quizgen

import "time"

// Config controls the generation pipeline.
type Config struct {
	// Validators run on every generated question, in order; the first
	// failure drops the question.
	Validators []Validator

	// OversampleFactor and OversamplePad size each category request:
	// requested = ceil(needed * OversampleFactor) + OversamplePad.
	OversampleFactor float64
	OversamplePad    int

	// SimilarityThreshold is the cosine cutoff above which a later question
	// is dropped as a near-duplicate of an earlier one.
	SimilarityThreshold float64

	// Temperatures overrides the per-category sampling temperature.
	Temperatures map[Category]float64

	// MaxTokens is the token budget for one category's response.
	MaxTokens int

	// RefineTemperature and RefineMaxTokens apply to the refinement pass.
	RefineTemperature float64
	RefineMaxTokens   int

	// CallTimeout bounds each LLM call. Zero means no per-call timeout.
	CallTimeout time.Duration

	// MaxConcurrency bounds concurrent category calls. Zero or less means
	// one goroutine per category.
	MaxConcurrency int

	// Seed makes the final shuffle reproducible when non-zero.
	Seed uint64

	// SkipRefine disables the refinement pass.
	SkipRefine bool
}

// DefaultConfig returns a Config with the standard validator chain
// and recommended defaults.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&ExplanationValidator{},
		},
		OversampleFactor:    1.5,
		OversamplePad:       2,
		SimilarityThreshold: DefaultSimilarityThreshold,
		MaxTokens:           4096,
		RefineTemperature:   0.2,
		RefineMaxTokens:     8192,
		CallTimeout:         60 * time.Second,
	}
}

// temperature returns the sampling temperature for c.
func (c Config) temperature(cat Category) float64 {
	if t, ok := c.Temperatures[cat]; ok {
		return t
	}
	return cat.spec().temperature
}
