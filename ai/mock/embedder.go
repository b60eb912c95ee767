package mock

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"github.com/poiesic/docsearch/ai"
	"github.com/poiesic/docsearch/core"
)

// MockEmbedder is a test double for ai.Provider and ai.Embedder.
// It allows custom behavior injection via function fields.
type MockEmbedder struct {
	// InvokeFunc is called by Invoke and EmbedText if set.
	// If nil, uses default deterministic behavior.
	InvokeFunc func(ctx context.Context, text string) ([]float32, error)

	// Dimension is the length of generated vectors.
	Dimension int

	mu        sync.Mutex
	callCount int
}

var (
	_ ai.Provider = (*MockEmbedder)(nil)
	_ ai.Embedder = (*MockEmbedder)(nil)
)

// NewMockEmbedder creates a mock embedder producing core.DefaultDimension vectors.
// Note: Returns concrete type to allow test assertions.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Dimension: core.DefaultDimension}
}

// WithInvokeFunc sets InvokeFunc and returns the mock for chaining.
func (m *MockEmbedder) WithInvokeFunc(fn func(ctx context.Context, text string) ([]float32, error)) *MockEmbedder {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InvokeFunc = fn
	return m
}

// WithDimension sets the vector length and returns the mock for chaining.
func (m *MockEmbedder) WithDimension(dim int) *MockEmbedder {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Dimension = dim
	return m
}

// Invoke returns the raw hashed vector for text.
func (m *MockEmbedder) Invoke(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.callCount++
	fn := m.InvokeFunc
	dim := m.Dimension
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Default: bag-of-words feature hashing so texts sharing words are close
	return HashVector(text, dim), nil
}

// EmbedText returns the normalized hashed vector for text.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vector, err := m.Invoke(ctx, text)
	if err != nil {
		return nil, err
	}
	return ai.NormalizeVector(vector), nil
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.InvokeFunc = nil
}

// HashVector builds an unnormalized feature-hashed vector from the
// lowercased words of text. Each word adds +1 or -1 to one bucket chosen by
// its FNV hash. Text without words yields the zero vector.
func HashVector(text string, dim int) []float32 {
	vector := make([]float32, dim)
	if dim <= 0 {
		return vector
	}

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, word := range words {
		h := fnv.New64a()
		h.Write([]byte(word))
		sum := h.Sum64()

		bucket := int(sum % uint64(dim))
		if sum&(1<<63) != 0 {
			vector[bucket]--
		} else {
			vector[bucket]++
		}
	}
	return vector
}
