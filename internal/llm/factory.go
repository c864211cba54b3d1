package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/quizgen/internal/store"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with retry and logging middleware.
// eventRepo may be nil, in which case calls are only logged through logger.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, logger *zap.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller → retry → logging → base
	logged := WithLogging(base, eventRepo, logger)
	retried := WithRetry(logged, cfg.Retry)

	return retried, nil
}

// NewEmbedder creates the embedding backend selected by cfg, wrapped with
// retry and logging middleware.
func NewEmbedder(ctx context.Context, cfg Config, eventRepo store.EventRepo, logger *zap.Logger) (Embedder, error) {
	var base Embedder
	var err error

	name := cfg.EmbeddingProvider()
	switch name {
	case "openai":
		key := firstNonEmpty(cfg.Embedding.APIKey, cfg.OpenAI.APIKey)
		base, err = NewOpenAIEmbedder(key, cfg.Embedding.Model, firstNonEmpty(cfg.Embedding.BaseURL, cfg.OpenAI.BaseURL))
	case "gemini":
		key := firstNonEmpty(cfg.Embedding.APIKey, cfg.Gemini.APIKey)
		base, err = NewGeminiEmbedder(ctx, key, cfg.Embedding.Model, firstNonEmpty(cfg.Embedding.BaseURL, cfg.Gemini.BaseURL))
	case "langchain":
		key := firstNonEmpty(cfg.Embedding.APIKey, cfg.OpenAI.APIKey)
		base, err = NewLangChainOpenAIEmbedder(key, cfg.Embedding.Model, cfg.Embedding.BaseURL)
	case "mock":
		return NewMockEmbedder(nil), nil
	case "anthropic":
		return nil, fmt.Errorf("anthropic has no embedding API")
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s embedder: %w", name, err)
	}

	logged := WithEmbedLogging(base, eventRepo, logger)
	return WithEmbedRetry(logged, cfg.Retry), nil
}

// NewProviderFromEnv resolves configuration from QUIZGEN_* variables, or
// from the standard vendor API key variables when no QUIZGEN provider key
// is set, and builds both the completion provider and the embedder.
func NewProviderFromEnv(ctx context.Context, eventRepo store.EventRepo, logger *zap.Logger) (Provider, Embedder, Config, error) {
	cfg := ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		discovered, ok := DiscoverConfig()
		if !ok {
			return nil, nil, Config{}, err
		}
		discovered.Embedding = cfg.Embedding
		if verr := discovered.Validate(); verr != nil {
			return nil, nil, Config{}, verr
		}
		cfg = discovered
	}

	provider, err := NewProvider(ctx, cfg, eventRepo, logger)
	if err != nil {
		return nil, nil, Config{}, err
	}
	embedder, err := NewEmbedder(ctx, cfg, eventRepo, logger)
	if err != nil {
		return nil, nil, Config{}, err
	}
	return provider, embedder, cfg, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
