package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestOpenAIServer replies to every request with status and body, and
// records each decoded request body.
func newTestOpenAIServer(t *testing.T, status int, body any) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var seen []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		seen = append(seen, req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return server, &seen
}

func newTestOpenAIProvider(t *testing.T, baseURL string) *OpenAIProvider {
	t.Helper()
	p, err := NewOpenAIProvider(OpenAIConfig{
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		BaseURL: baseURL + "/v1",
	})
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}
	return p
}

func chatCompletion(message map[string]any, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{
			{"index": 0, "message": message, "finish_reason": finish},
		},
		"usage": map[string]any{
			"prompt_tokens":     400,
			"completion_tokens": 250,
			"total_tokens":      650,
		},
	}
}

func TestOpenAIProvider_HappyPath(t *testing.T) {
	server, seen := newTestOpenAIServer(t, http.StatusOK, chatCompletion(map[string]any{
		"role":    "assistant",
		"content": `{"questions":[{"text":"What pigment absorbs light?"}]}`,
	}, "stop"))

	p := newTestOpenAIProvider(t, server.URL)
	resp, err := p.Generate(context.Background(), quizRequest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.InputTokens != 400 || resp.Usage.OutputTokens != 250 {
		t.Fatalf("unexpected usage: %+v", resp.Usage)
	}
	if resp.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp.StopReason)
	}

	req := (*seen)[0]
	msgs := req["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(msgs))
	}
	if role := msgs[0].(map[string]any)["role"]; role != "system" {
		t.Fatalf("expected first message to be system, got %v", role)
	}
	if _, ok := req["response_format"]; ok {
		t.Fatal("expected no response_format without JSON or Schema")
	}
}

func TestOpenAIProvider_JSONMode(t *testing.T) {
	server, seen := newTestOpenAIServer(t, http.StatusOK, chatCompletion(map[string]any{
		"role":    "assistant",
		"content": `{"questions":[]}`,
	}, "stop"))

	p := newTestOpenAIProvider(t, server.URL)
	req := quizRequest
	req.JSON = true
	if _, err := p.Generate(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	format, ok := (*seen)[0]["response_format"].(map[string]any)
	if !ok {
		t.Fatal("expected response_format in request")
	}
	if format["type"] != "json_object" {
		t.Fatalf("expected json_object response format, got %v", format["type"])
	}
}

func TestOpenAIProvider_LengthFinish(t *testing.T) {
	server, _ := newTestOpenAIServer(t, http.StatusOK, chatCompletion(map[string]any{
		"role":    "assistant",
		"content": `{"questions":[{"te`,
	}, "length"))

	p := newTestOpenAIProvider(t, server.URL)
	resp, err := p.Generate(context.Background(), quizRequest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StopReason != "max_tokens" {
		t.Fatalf("expected stop reason 'max_tokens', got %q", resp.StopReason)
	}
}

func TestOpenAIProvider_Refusal(t *testing.T) {
	server, _ := newTestOpenAIServer(t, http.StatusOK, chatCompletion(map[string]any{
		"role":    "assistant",
		"content": "",
		"refusal": "I can't help with that.",
	}, "stop"))

	p := newTestOpenAIProvider(t, server.URL)
	_, err := p.Generate(context.Background(), quizRequest)
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got: %T (%v)", err, err)
	}
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	body := chatCompletion(nil, "stop")
	body["choices"] = []any{}
	server, _ := newTestOpenAIServer(t, http.StatusOK, body)

	p := newTestOpenAIProvider(t, server.URL)
	_, err := p.Generate(context.Background(), quizRequest)
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got: %T (%v)", err, err)
	}
}

func TestOpenAIProvider_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"rate limit", http.StatusTooManyRequests, func(err error) bool {
			var e *ErrRateLimit
			return errors.As(err, &e)
		}},
		{"server error", http.StatusInternalServerError, func(err error) bool {
			var e *ErrProviderUnavailable
			return errors.As(err, &e)
		}},
		{"bad key", http.StatusUnauthorized, func(err error) bool {
			var e *ErrBadRequest
			return errors.As(err, &e) && e.StatusCode == http.StatusUnauthorized
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newTestOpenAIServer(t, tt.status, map[string]any{
				"error": map[string]any{"type": "error", "message": tt.name},
			})
			p := newTestOpenAIProvider(t, server.URL)
			_, err := p.Generate(context.Background(), quizRequest)
			if err == nil || !tt.check(err) {
				t.Fatalf("unexpected error mapping: %T (%v)", err, err)
			}
		})
	}
}

func TestOpenAIProvider_ModelMapping(t *testing.T) {
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "gpt-mini"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "gpt-4.1-mini" {
		t.Fatalf("expected 'gpt-4.1-mini', got %q", p.ModelID())
	}
	if _, err := NewOpenAIProvider(OpenAIConfig{Model: "gpt-4o"}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}
