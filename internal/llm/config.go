package llm

import (
	"fmt"
	"os"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which completion provider to use.
	// Values: "anthropic", "openai", "gemini", "openrouter", "mock"
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Embedding  EmbeddingConfig
	Retry      RetryConfig

	// Timeout is the maximum duration for a single LLM request
	// (including retries). Default: 60s.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey  string
	Model   string // Default: "claude-haiku"
	BaseURL string // Optional. Proxy or gateway in front of the Messages API.
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for OpenRouter or compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey  string
	Model   string // Default: "gemini-flash"
	BaseURL string // Optional. Override for the Gemini API endpoint.
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "google/gemini-2.0-flash-exp"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// EmbeddingConfig selects the embedding backend used for semantic
// deduplication. Anthropic has no embedding API, so when the completion
// provider is anthropic an explicit embedding provider must be set.
type EmbeddingConfig struct {
	// Provider values: "openai", "gemini", "langchain", "mock".
	// Empty means "same as the completion provider".
	Provider string
	Model    string
	// BaseURL targets any OpenAI-compatible embedding host (Ollama, vLLM)
	// for the langchain backend. For openai and gemini it overrides the
	// completion provider's BaseURL.
	BaseURL string
	// APIKey overrides the key taken from the matching completion config.
	APIKey string
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "openai",
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: "google/gemini-2.0-flash-exp",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if p := os.Getenv("QUIZGEN_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
	}

	if k := os.Getenv("QUIZGEN_ANTHROPIC_API_KEY"); k != "" {
		cfg.Anthropic.APIKey = k
	}
	if m := os.Getenv("QUIZGEN_ANTHROPIC_MODEL"); m != "" {
		cfg.Anthropic.Model = m
	}
	if u := os.Getenv("QUIZGEN_ANTHROPIC_BASE_URL"); u != "" {
		cfg.Anthropic.BaseURL = u
	}

	if k := os.Getenv("QUIZGEN_OPENAI_API_KEY"); k != "" {
		cfg.OpenAI.APIKey = k
	}
	if m := os.Getenv("QUIZGEN_OPENAI_MODEL"); m != "" {
		cfg.OpenAI.Model = m
	}
	if u := os.Getenv("QUIZGEN_OPENAI_BASE_URL"); u != "" {
		cfg.OpenAI.BaseURL = u
	}

	if k := os.Getenv("QUIZGEN_GEMINI_API_KEY"); k != "" {
		cfg.Gemini.APIKey = k
	}
	if m := os.Getenv("QUIZGEN_GEMINI_MODEL"); m != "" {
		cfg.Gemini.Model = m
	}
	if u := os.Getenv("QUIZGEN_GEMINI_BASE_URL"); u != "" {
		cfg.Gemini.BaseURL = u
	}

	if k := os.Getenv("QUIZGEN_OPENROUTER_API_KEY"); k != "" {
		cfg.OpenRouter.APIKey = k
	}
	if m := os.Getenv("QUIZGEN_OPENROUTER_MODEL"); m != "" {
		cfg.OpenRouter.Model = m
	}

	if p := os.Getenv("QUIZGEN_EMBED_PROVIDER"); p != "" {
		cfg.Embedding.Provider = p
	}
	if m := os.Getenv("QUIZGEN_EMBED_MODEL"); m != "" {
		cfg.Embedding.Model = m
	}
	if u := os.Getenv("QUIZGEN_EMBED_BASE_URL"); u != "" {
		cfg.Embedding.BaseURL = u
	}
	if k := os.Getenv("QUIZGEN_EMBED_API_KEY"); k != "" {
		cfg.Embedding.APIKey = k
	}

	return cfg
}

// DiscoverConfig probes standard API key env vars in priority order
// (OpenAI → Gemini → Anthropic → OpenRouter) and returns a Config for the
// first provider whose key is found. Returns (Config{}, false) if none found.
// OpenAI and Gemini come first because they also serve embeddings.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = "openai"
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = "gemini"
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = "anthropic"
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = "openrouter"
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// EmbeddingProvider returns the effective embedding backend name.
func (c Config) EmbeddingProvider() string {
	if c.Embedding.Provider != "" {
		return c.Embedding.Provider
	}
	if c.Provider == "openrouter" {
		// OpenRouter does not serve embeddings; fall back to OpenAI.
		return "openai"
	}
	return c.Provider
}

// Validate checks that the selected providers have their required API keys set.
func (c Config) Validate() error {
	switch c.Provider {
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("QUIZGEN_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("QUIZGEN_OPENAI_API_KEY is required for the openai provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("QUIZGEN_GEMINI_API_KEY is required for the gemini provider")
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("QUIZGEN_OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case "mock":
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}

	switch c.EmbeddingProvider() {
	case "openai":
		if c.Embedding.APIKey == "" && c.OpenAI.APIKey == "" {
			return fmt.Errorf("QUIZGEN_OPENAI_API_KEY or QUIZGEN_EMBED_API_KEY is required for openai embeddings")
		}
	case "gemini":
		if c.Embedding.APIKey == "" && c.Gemini.APIKey == "" {
			return fmt.Errorf("QUIZGEN_GEMINI_API_KEY or QUIZGEN_EMBED_API_KEY is required for gemini embeddings")
		}
	case "langchain":
		if c.Embedding.BaseURL == "" && c.Embedding.APIKey == "" && c.OpenAI.APIKey == "" {
			return fmt.Errorf("langchain embeddings need QUIZGEN_EMBED_BASE_URL or an API key")
		}
	case "mock":
	case "anthropic":
		return fmt.Errorf("anthropic has no embedding API; set QUIZGEN_EMBED_PROVIDER")
	default:
		return fmt.Errorf("unknown embedding provider: %q", c.EmbeddingProvider())
	}
	return nil
}
