package ai

import "context"

// Provider is a raw embedding backend such as Bedrock Titan or an
// OpenAI-compatible server. Invoke performs exactly one request and returns
// the vector as produced by the model, without retries or normalization.
// Implementations must map provider throttling to ErrThrottled.
type Provider interface {
	Invoke(ctx context.Context, text string) ([]float32, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, text string) ([]float32, error)

// Invoke calls f(ctx, text).
func (f ProviderFunc) Invoke(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector is unit length unless the model produced a zero vector.
	EmbedText(ctx context.Context, text string) ([]float32, error)
}
