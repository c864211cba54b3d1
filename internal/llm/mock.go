package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider is a deterministic Provider for testing.
// It returns canned responses in FIFO order and records all requests.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// Text is a shorthand for a MockResponse carrying raw completion text.
func Text(s string) MockResponse {
	return MockResponse{Content: json.RawMessage(s)}
}

// Generate returns the next canned response or ErrProviderUnavailable if
// the queue is empty.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if len(m.responses) == 0 {
		return nil, &ErrProviderUnavailable{Err: nil}
	}

	resp := m.responses[0]
	m.responses = m.responses[1:]

	if resp.Err != nil {
		return nil, resp.Err
	}

	return &Response{
		Content:    resp.Content,
		Usage:      resp.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// FuncProvider answers each request with fn. Unlike MockProvider the reply
// can depend on the request, which suits concurrent callers whose arrival
// order is not fixed.
type FuncProvider struct {
	mu    sync.Mutex
	fn    func(ctx context.Context, req Request) (string, error)
	Calls []Request
}

// NewFuncProvider creates a FuncProvider.
func NewFuncProvider(fn func(ctx context.Context, req Request) (string, error)) *FuncProvider {
	return &FuncProvider{fn: fn}
}

func (f *FuncProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, req)
	f.mu.Unlock()

	text, err := f.fn(ctx, req)
	if err != nil {
		return nil, err
	}
	return &Response{Content: json.RawMessage(text), Model: "func", StopReason: "end"}, nil
}

func (f *FuncProvider) ModelID() string { return "func" }

// CallCount returns the number of Generate calls made.
func (f *FuncProvider) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

const mockEmbeddingDim = 256

// MockEmbedder is a deterministic Embedder for testing. Texts listed in
// Vectors get those vectors. Any other text gets a one-hot vector on an
// axis assigned at first sight, so identical texts have similarity 1 and
// distinct texts have similarity 0.
type MockEmbedder struct {
	mu      sync.Mutex
	Vectors map[string][]float32
	Err     error
	Calls   [][]string
	axes    map[string]int
}

// NewMockEmbedder creates a MockEmbedder with optional fixed vectors.
func NewMockEmbedder(vectors map[string][]float32) *MockEmbedder {
	if vectors == nil {
		vectors = map[string][]float32{}
	}
	return &MockEmbedder{Vectors: vectors, axes: map[string]int{}}
}

func (m *MockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, append([]string(nil), texts...))
	if m.Err != nil {
		return nil, m.Err
	}

	if m.axes == nil {
		m.axes = map[string]int{}
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := m.Vectors[t]; ok {
			out[i] = v
			continue
		}
		axis, ok := m.axes[t]
		if !ok {
			axis = len(m.axes) % mockEmbeddingDim
			m.axes[t] = axis
		}
		v := make([]float32, mockEmbeddingDim)
		v[axis] = 1
		out[i] = v
	}
	return out, nil
}

func (m *MockEmbedder) ModelID() string { return "mock-embed" }

// CallCount returns the number of EmbedBatch calls made.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
