package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docsearch/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider implements ai.Provider using OpenAI-compatible embedding APIs.
type Provider struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

var _ ai.Provider = (*Provider)(nil)

// NewProvider creates a provider using the host, token and model from config.
func NewProvider(config *ai.Config) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	token := config.Token
	if token == "" {
		// Local OpenAI-compatible services ignore the token but the client requires one
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(token),
		openai.WithEmbeddingModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return NewProviderWithEmbedder(embedder), nil
}

// NewProviderWithEmbedder wraps an existing langchaingo embedder.
func NewProviderWithEmbedder(embedder embeddings.Embedder) *Provider {
	return &Provider{
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-provider"),
	}
}

// Invoke generates the raw embedding for a single text.
func (p *Provider) Invoke(ctx context.Context, text string) ([]float32, error) {
	p.logger.Debug("generating embedding", "length", len(text))

	vectors, err := p.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		if isRateLimited(err) {
			return nil, fmt.Errorf("%w: %v", ai.ErrThrottled, err)
		}
		p.logger.Error("failed to generate embedding", "err", err)
		return nil, err
	}

	if len(vectors) == 0 || len(vectors[0]) == 0 {
		p.logger.Warn("embedder returned empty result")
		return nil, ai.ErrEmptyEmbedding
	}

	return vectors[0], nil
}

// isRateLimited recognizes HTTP 429 responses. langchaingo surfaces API
// failures as formatted errors, so the status is matched on the message.
func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests")
}
