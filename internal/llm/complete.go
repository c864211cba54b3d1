package llm

import (
	"context"
	"fmt"
)

// CompletionRequest is the plain text-in/text-out form used by the quiz
// pipeline: one system prompt, one human prompt, and a temperature.
type CompletionRequest struct {
	System      string
	Human       string
	Temperature float64
	MaxTokens   int
	// JSON switches on the backend's JSON mode where one exists.
	JSON bool
}

// Complete sends a single-turn, schema-less request through p and returns
// the raw completion text. No cleaning or validation is applied.
func Complete(ctx context.Context, p Provider, req CompletionRequest) (string, error) {
	resp, err := p.Generate(ctx, Request{
		System: req.System,
		Messages: []Message{
			{Role: RoleUser, Content: req.Human},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		JSON:        req.JSON,
	})
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", &ErrInvalidResponse{Err: fmt.Errorf("nil response from %s", p.ModelID())}
	}
	if resp.StopReason == "max_tokens" {
		return "", &ErrMaxTokensExceeded{Content: resp.Content}
	}
	return string(resp.Content), nil
}
