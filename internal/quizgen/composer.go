package quizgen

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/quizgen/internal/llm"
)

// ErrEmbedding marks a fatal embedding failure. Without embeddings there is
// no deduplication, so the whole request fails.
var ErrEmbedding = errors.New("embedding failed")

// Request describes one quiz to generate.
type Request struct {
	Difficulty Difficulty
	TotalCount int
	SourceText string

	// TaxonomyOverride, when set, replaces the difficulty blend with this
	// single category at weight 1.0.
	TaxonomyOverride Category
}

// CategoryPlan is how many questions one category contributes.
type CategoryPlan struct {
	Category  Category
	Weight    float64
	Needed    int // target count in the final quiz
	Requested int // oversampled count asked of the generator; 0 when Needed is 0
}

// Composer fans generation out across categories, deduplicates each
// category, truncates it to its share and shuffles the union.
type Composer struct {
	generator Generator
	embedder  llm.Embedder
	config    Config
	logger    *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewComposer creates a Composer. A zero cfg.Seed gives a randomly seeded
// shuffle.
func NewComposer(gen Generator, embedder llm.Embedder, cfg Config, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Composer{
		generator: gen,
		embedder:  embedder,
		config:    cfg,
		logger:    logger,
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Plan computes the per-category counts for req. Each category's share is
// rounded independently, so the needed counts may not sum to TotalCount;
// this is not corrected.
func (c *Composer) Plan(req Request) ([]CategoryPlan, error) {
	weights := []Weight{{req.TaxonomyOverride, 1.0}}
	if req.TaxonomyOverride == "" {
		var err error
		weights, err = req.Difficulty.Blend()
		if err != nil {
			return nil, err
		}
	}

	plans := make([]CategoryPlan, 0, len(weights))
	for _, w := range weights {
		p := CategoryPlan{
			Category: w.Category,
			Weight:   w.Fraction,
			Needed:   int(math.Round(float64(req.TotalCount) * w.Fraction)),
		}
		if p.Needed > 0 {
			p.Requested = c.oversample(p.Needed)
		}
		plans = append(plans, p)
	}
	return plans, nil
}

func (c *Composer) oversample(needed int) int {
	// The epsilon keeps 10*1.1 from rounding up to 12.
	scaled := math.Ceil(float64(needed)*c.config.OversampleFactor - 1e-9)
	return int(scaled) + c.config.OversamplePad
}

// Compose generates the quiz body. The result may be shorter than
// TotalCount when categories under-produce; that is not an error. Only
// embedding failures and cancellation of ctx are returned as errors.
func (c *Composer) Compose(ctx context.Context, req Request) ([]Question, error) {
	plans, err := c.Plan(req)
	if err != nil {
		return nil, err
	}

	results := make([][]Question, len(plans))

	g, gctx := errgroup.WithContext(ctx)
	if c.config.MaxConcurrency > 0 {
		g.SetLimit(c.config.MaxConcurrency)
	}
	for i, p := range plans {
		if p.Needed <= 0 {
			continue
		}
		g.Go(func() error {
			qs, err := c.composeCategory(gctx, p, req.SourceText)
			if err != nil {
				return err
			}
			results[i] = qs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Error("quiz composition failed", zap.Error(err))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := lo.Flatten(results)
	c.shuffle(out)

	c.logger.Info("quiz composed",
		zap.String("difficulty", string(req.Difficulty)),
		zap.Int("requested", req.TotalCount),
		zap.Int("composed", len(out)),
	)
	return out, nil
}

// composeCategory runs generate, embed, filter and truncate for one category.
func (c *Composer) composeCategory(ctx context.Context, p CategoryPlan, sourceText string) ([]Question, error) {
	log := c.logger.With(zap.String("category", string(p.Category)))

	qs := c.generator.Generate(ctx, p.Category, p.Requested, sourceText)
	if len(qs) == 0 {
		log.Warn("category produced no questions", zap.Int("needed", p.Needed))
		return nil, nil
	}

	embedCtx := llm.WithPurpose(ctx, llm.PurposeEmbedding)
	if c.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		embedCtx, cancel = context.WithTimeout(embedCtx, c.config.CallTimeout)
		defer cancel()
	}

	texts := lo.Map(qs, func(q Question, _ int) string { return q.Text })
	vecs, err := c.embedder.EmbedBatch(embedCtx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: category %s: %w", ErrEmbedding, p.Category, err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: category %s: got %d vectors for %d texts",
			ErrEmbedding, p.Category, len(vecs), len(texts))
	}

	unique := FilterUnique(qs, vecs, c.config.SimilarityThreshold)
	if len(unique) > p.Needed {
		unique = unique[:p.Needed]
	}

	log.Debug("category composed",
		zap.Int("generated", len(qs)),
		zap.Int("unique", len(unique)),
		zap.Int("needed", p.Needed),
	)
	return unique, nil
}

func (c *Composer) shuffle(qs []Question) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rng.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
}
