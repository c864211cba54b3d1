package quizgen

import (
	"context"

	"go.uber.org/zap"

	"github.com/abhisek/quizgen/internal/llm"
)

// Result is the output of one generation request.
type Result struct {
	Questions []Question
	// Refined reports whether the refinement pass changed the questions.
	Refined bool
}

// Service is the single entry point for quiz generation: compose, then
// refine. It holds no per-request state and is safe for concurrent use.
type Service struct {
	composer *Composer
	refiner  *Refiner
	config   Config
	logger   *zap.Logger
}

// NewService wires the default generator, composer and refiner.
func NewService(provider llm.Provider, embedder llm.Embedder, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	gen := NewGenerator(provider, cfg, logger)
	return &Service{
		composer: NewComposer(gen, embedder, cfg, logger),
		refiner:  NewRefiner(provider, cfg, logger),
		config:   cfg,
		logger:   logger,
	}
}

// Plan exposes the composer's per-category counts for req.
func (s *Service) Plan(req Request) ([]CategoryPlan, error) {
	return s.composer.Plan(req)
}

// GenerateQuizFromSource composes a quiz from req and refines it.
func (s *Service) GenerateQuizFromSource(ctx context.Context, req Request) (*Result, error) {
	composed, err := s.composer.Compose(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.config.SkipRefine {
		return &Result{Questions: composed}, nil
	}

	refined, changed := s.refiner.Refine(ctx, composed)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Result{Questions: refined, Refined: changed}, nil
}
