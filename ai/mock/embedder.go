package mock

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/poiesic/signlex/ai"
)

// DefaultModel is the model tag reported by MockEmbedder.
const DefaultModel = "mock-embedding"

// DefaultDimension is the length of vectors produced by MockEmbedder.
const DefaultDimension = 16

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields.
type MockEmbedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	// If nil, uses fixed vectors or the default deterministic behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, each text is embedded like EmbedText.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	mu        sync.Mutex
	model     string
	dim       int
	fixed     map[string][]float32
	callCount int
}

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Note: Returns concrete type to allow test assertions via GetMockEmbedder().
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		model: DefaultModel,
		dim:   DefaultDimension,
		fixed: make(map[string][]float32),
	}
}

// WithVector pins the vector returned for text. The vector is normalized.
func (m *MockEmbedder) WithVector(text string, vector []float32) *MockEmbedder {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixed[text] = ai.NormalizeVector(vector)
	return m
}

// WithModel changes the reported model tag.
func (m *MockEmbedder) WithModel(model string) *MockEmbedder {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = model
	return m
}

// WithDimension changes the length of generated vectors.
func (m *MockEmbedder) WithDimension(dim int) *MockEmbedder {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dim = dim
	return m
}

// Model returns the model tag.
func (m *MockEmbedder) Model() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

// EmbedText returns the pinned vector for text, or a deterministic one
// derived from its hash.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.callCount++
	fn := m.EmbedTextFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	return m.vectorFor(text), nil
}

// EmbedTexts embeds every text in order.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.callCount++
	fn := m.EmbedTextsFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, texts)
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = m.vectorFor(text)
	}
	return embeddings, nil
}

// CallCount returns the number of times any embedding method was called.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

func (m *MockEmbedder) vectorFor(text string) []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.fixed[text]; ok {
		return append([]float32(nil), v...)
	}
	return generateDeterministicVector(text, m.dim)
}

// generateDeterministicVector creates a deterministic embedding vector from text.
// It uses FNV hash to ensure the same text always produces the same vector.
func generateDeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		// Simple pseudo-random generation based on seed and index
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000)/500.0 - 1.0
	}
	return ai.NormalizeVector(vector)
}
