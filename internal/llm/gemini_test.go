package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-lite", "gemini-2.5-flash-lite"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"}, // Pass-through
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func newTestGeminiProvider(t *testing.T, handler http.HandlerFunc) *GeminiProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewGeminiProvider(context.Background(), GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-flash",
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("NewGeminiProvider: %v", err)
	}
	return p
}

func geminiResponse(text, finish string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"role":  "model",
				"parts": []map[string]any{{"text": text}},
			},
			"finishReason": finish,
		}},
		"usageMetadata": map[string]any{
			"promptTokenCount":     300,
			"candidatesTokenCount": 120,
			"totalTokenCount":      420,
		},
	}
}

func TestGeminiProvider_JSONMode(t *testing.T) {
	var path string
	var body map[string]any
	p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(geminiResponse(`{"questions":[]}`, "STOP"))
	})

	req := quizRequest
	req.JSON = true
	resp, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"questions":[]}` {
		t.Fatalf("unexpected content: %s", resp.Content)
	}
	if resp.Usage.TotalTokens != 420 {
		t.Fatalf("expected 420 total tokens, got %d", resp.Usage.TotalTokens)
	}
	if resp.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp.StopReason)
	}
	if !strings.Contains(path, "gemini-2.5-flash") {
		t.Fatalf("expected resolved model in path, got %q", path)
	}
	gc, _ := body["generationConfig"].(map[string]any)
	if gc["responseMimeType"] != "application/json" {
		t.Fatalf("expected JSON mime type, got %v", gc["responseMimeType"])
	}
}

func TestGeminiProvider_SafetyBlock(t *testing.T) {
	p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(geminiResponse("", "SAFETY"))
	})

	_, err := p.Generate(context.Background(), quizRequest)
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got: %T (%v)", err, err)
	}
}

func TestGeminiBlockReason(t *testing.T) {
	tests := []struct {
		name   string
		result *genai.GenerateContentResponse
		want   string
	}{
		{"clean", &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonStop}},
		}, ""},
		{"prompt blocked", &genai.GenerateContentResponse{
			PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
		}, string(genai.BlockedReasonSafety)},
		{"recitation", &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonRecitation}},
		}, string(genai.FinishReasonRecitation)},
		{"no candidates", &genai.GenerateContentResponse{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := geminiBlockReason(tt.result); got != tt.want {
				t.Errorf("geminiBlockReason() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMapGeminiStopReason(t *testing.T) {
	truncated := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonMaxTokens}},
	}
	if got := mapGeminiStopReason(truncated); got != "max_tokens" {
		t.Errorf("expected 'max_tokens', got %q", got)
	}
	if got := mapGeminiStopReason(&genai.GenerateContentResponse{}); got != "end" {
		t.Errorf("expected 'end', got %q", got)
	}
}

func TestMapGeminiError(t *testing.T) {
	wrap := func(e error) error { return fmt.Errorf("generate: %w", e) }

	var rl *ErrRateLimit
	if err := mapGeminiError(wrap(genai.APIError{Code: 429})); !errors.As(err, &rl) {
		t.Errorf("429: expected ErrRateLimit, got %T", err)
	}
	var bad *ErrBadRequest
	if err := mapGeminiError(wrap(genai.APIError{Code: 403})); !errors.As(err, &bad) {
		t.Errorf("403: expected ErrBadRequest, got %T", err)
	}
	var unavail *ErrProviderUnavailable
	if err := mapGeminiError(wrap(genai.APIError{Code: 503})); !errors.As(err, &unavail) {
		t.Errorf("503: expected ErrProviderUnavailable, got %T", err)
	}
	if err := mapGeminiError(errors.New("dial tcp: connection refused")); !errors.As(err, &unavail) {
		t.Errorf("network: expected ErrProviderUnavailable, got %T", err)
	}
}

func TestBuildGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"text":     map[string]any{"type": "string"},
						"category": map[string]any{"type": "string", "enum": []any{"Remembering", "Understanding"}},
						"correct":  map[string]any{"type": "boolean"},
					},
					"required": []any{"text", "category"},
				},
			},
		},
		"required": []any{"questions"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != genai.TypeObject {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	questions := schema.Properties["questions"]
	if questions == nil || questions.Type != genai.TypeArray {
		t.Fatalf("expected ARRAY for questions, got %+v", questions)
	}
	item := questions.Items
	if item.Type != genai.TypeObject || len(item.Properties) != 3 {
		t.Fatalf("unexpected item schema: %+v", item)
	}
	if len(item.Properties["category"].Enum) != 2 {
		t.Fatalf("expected 2 enum values, got %d", len(item.Properties["category"].Enum))
	}
	if item.Properties["correct"].Type != genai.TypeBoolean {
		t.Fatalf("expected BOOLEAN for correct, got %s", item.Properties["correct"].Type)
	}
	if len(item.Required) != 2 || len(schema.Required) != 1 {
		t.Fatalf("unexpected required fields: %v / %v", item.Required, schema.Required)
	}
}
