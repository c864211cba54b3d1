package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/quizgen/internal/store"
)

// LoggingProvider is a decorator that records every LLM request as an event
// and as a debug log line.
type LoggingProvider struct {
	inner     Provider
	eventRepo store.EventRepo
	logger    *zap.Logger
}

// WithLogging wraps a Provider with event logging. Either repo or logger
// may be nil.
func WithLogging(p Provider, repo store.EventRepo, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingProvider{inner: p, eventRepo: repo, logger: logger}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	latencyMs := time.Since(start).Milliseconds()

	data := store.LLMRequestEventData{
		Provider:    l.inner.ModelID(),
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		LatencyMs:   latencyMs,
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}

	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.Model = resp.Model
		data.ResponseBody = string(resp.Content)
	}

	if err != nil {
		data.ErrorMessage = err.Error()
	}

	l.logger.Debug("llm request",
		zap.String("purpose", purpose),
		zap.String("model", data.Model),
		zap.Int64("latency_ms", latencyMs),
		zap.Int("input_tokens", data.InputTokens),
		zap.Int("output_tokens", data.OutputTokens),
		zap.Error(err),
	)
	record(ctx, l.eventRepo, l.logger, data)

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// LoggingEmbedder records every embedding batch as an LLM event with the
// "embedding" purpose unless the context already carries one.
type LoggingEmbedder struct {
	inner     Embedder
	eventRepo store.EventRepo
	logger    *zap.Logger
}

// WithEmbedLogging wraps an Embedder with event logging.
func WithEmbedLogging(e Embedder, repo store.EventRepo, logger *zap.Logger) Embedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingEmbedder{inner: e, eventRepo: repo, logger: logger}
}

func (l *LoggingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vecs, err := l.inner.EmbedBatch(ctx, texts)
	latencyMs := time.Since(start).Milliseconds()

	data := store.LLMRequestEventData{
		Provider:    l.inner.ModelID(),
		Model:       l.inner.ModelID(),
		Purpose:     purposeOr(ctx, PurposeEmbedding),
		LatencyMs:   latencyMs,
		Success:     err == nil,
		RequestBody: fmt.Sprintf("[embed] %d texts", len(texts)),
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}

	l.logger.Debug("embedding request",
		zap.String("model", data.Model),
		zap.Int("texts", len(texts)),
		zap.Int64("latency_ms", latencyMs),
		zap.Error(err),
	)
	record(ctx, l.eventRepo, l.logger, data)

	return vecs, err
}

func (l *LoggingEmbedder) ModelID() string { return l.inner.ModelID() }

// record appends the event but never fails the request if logging fails.
func record(ctx context.Context, repo store.EventRepo, logger *zap.Logger, data store.LLMRequestEventData) {
	if repo == nil {
		return
	}
	// The request context may already be done (timeouts); the event is
	// still worth keeping.
	if err := repo.AppendLLMRequest(context.WithoutCancel(ctx), data); err != nil {
		logger.Warn("failed to log LLM request event", zap.Error(err))
	}
}

// serializeRequest builds a readable representation of the LLM request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n", m.Role)
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	if req.Schema != nil {
		schemaDef, err := json.Marshal(req.Schema.Definition)
		if err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n", req.Schema.Name)
			b.Write(schemaDef)
			b.WriteString("\n")
		}
	}

	return b.String()
}
