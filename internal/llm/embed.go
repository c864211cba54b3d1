package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// Embedder turns a batch of texts into vectors. The result is
// order-preserving: vectors[i] belongs to texts[i].
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelID returns the embedding model identifier.
	ModelID() string
}

const (
	defaultOpenAIEmbeddingModel = string(openai.SmallEmbedding3)
	defaultGeminiEmbeddingModel = "text-embedding-004"
)

// OpenAIEmbedder implements Embedder with the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

// NewOpenAIEmbedder creates an embedder against OpenAI or a compatible host.
func NewOpenAIEmbedder(apiKey, model, baseURL string) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = defaultOpenAIEmbeddingModel
	}
	return &OpenAIEmbedder{client: openai.NewClientWithConfig(config), model: model}, nil
}

func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, &ErrInvalidResponse{
			Err: fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data)),
		}
	}

	// The API reports an index per item; place by index rather than by
	// arrival order.
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, &ErrInvalidResponse{Err: fmt.Errorf("embedding index %d out of range", d.Index)}
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

func (e *OpenAIEmbedder) ModelID() string { return e.model }

// GeminiEmbedder implements Embedder with the Gemini embedContent API.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

// NewGeminiEmbedder creates a Gemini embedding client.
func NewGeminiEmbedder(ctx context.Context, apiKey, model, baseURL string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := newGeminiClient(ctx, apiKey, baseURL)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = defaultGeminiEmbeddingModel
	}
	return &GeminiEmbedder{client: client, model: model}, nil
}

func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: t}}}
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, mapGeminiError(err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, &ErrInvalidResponse{
			Err: fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings)),
		}
	}

	out := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb != nil {
			out[i] = emb.Values
		}
	}
	return out, nil
}

func (e *GeminiEmbedder) ModelID() string { return e.model }

// LangChainEmbedder adapts a langchaingo embeddings.Embedder. It is the
// route for self-hosted OpenAI-compatible embedding servers such as Ollama.
type LangChainEmbedder struct {
	inner embeddings.Embedder
	model string
}

// NewLangChainEmbedder wraps an existing langchaingo embedder.
func NewLangChainEmbedder(inner embeddings.Embedder, model string) *LangChainEmbedder {
	return &LangChainEmbedder{inner: inner, model: model}
}

// NewLangChainOpenAIEmbedder builds a langchaingo OpenAI-compatible client
// and wraps it.
func NewLangChainOpenAIEmbedder(apiKey, model, baseURL string) (*LangChainEmbedder, error) {
	if model == "" {
		model = defaultOpenAIEmbeddingModel
	}
	if apiKey == "" {
		// Local servers ignore the token but the client requires one.
		apiKey = "unused"
	}

	opts := []lcopenai.Option{
		lcopenai.WithToken(apiKey),
		lcopenai.WithEmbeddingModel(model),
	}
	if baseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(baseURL))
	}

	client, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create langchain openai client: %w", err)
	}
	emb, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("create langchain embedder: %w", err)
	}
	return NewLangChainEmbedder(emb, model), nil
}

func (e *LangChainEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := e.inner.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, &ErrProviderUnavailable{Err: err}
	}
	if len(vecs) != len(texts) {
		return nil, &ErrInvalidResponse{
			Err: fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vecs)),
		}
	}
	return vecs, nil
}

func (e *LangChainEmbedder) ModelID() string { return e.model }

// RetryEmbedder retries transient embedding failures using the same policy
// as RetryProvider.
type RetryEmbedder struct {
	inner  Embedder
	config RetryConfig
}

// WithEmbedRetry wraps an Embedder with retry logic.
func WithEmbedRetry(e Embedder, cfg RetryConfig) Embedder {
	return &RetryEmbedder{inner: e, config: cfg}
}

func (r *RetryEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := retryDo(ctx, r.config, func() error {
		var err error
		out, err = r.inner.EmbedBatch(ctx, texts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RetryEmbedder) ModelID() string { return r.inner.ModelID() }
