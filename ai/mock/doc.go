// Package mock provides a test double for the ai.Provider and ai.Embedder interfaces.
//
// The default behavior hashes each lowercased word of the input into one
// vector bucket, so two texts that share words produce nearby vectors and
// identical texts produce identical vectors. This makes end-to-end retrieval
// tests meaningful without a real model.
//
// # Usage in Tests
//
//	embedder := mock.NewMockEmbedder().WithDimension(64)
//	vec, err := embedder.EmbedText(ctx, "cremation grounds")
//
//	// Inject throttling
//	embedder.WithInvokeFunc(func(ctx context.Context, text string) ([]float32, error) {
//	    return nil, ai.ErrThrottled
//	})
//
//	count := embedder.CallCount()
package mock
