package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/docsearch/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	vectors [][]float32
	err     error
	texts   []string
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	f.texts = texts
	return f.vectors, f.err
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if len(f.vectors) == 0 {
		return nil, f.err
	}
	return f.vectors[0], f.err
}

func TestProvider_Invoke(t *testing.T) {
	fake := &fakeEmbedder{vectors: [][]float32{{1, 2, 3}}}
	p := NewProviderWithEmbedder(fake)

	vec, err := p.Invoke(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
	assert.Equal(t, []string{"hello"}, fake.texts)
}

func TestProvider_RateLimitMapsToThrottled(t *testing.T) {
	for _, msg := range []string{
		"API returned unexpected status code: 429: Rate limit reached",
		"too many requests",
	} {
		p := NewProviderWithEmbedder(&fakeEmbedder{err: errors.New(msg)})
		_, err := p.Invoke(context.Background(), "hello")
		assert.ErrorIs(t, err, ai.ErrThrottled, msg)
	}
}

func TestProvider_OtherError(t *testing.T) {
	cause := errors.New("API returned unexpected status code: 401")
	p := NewProviderWithEmbedder(&fakeEmbedder{err: cause})

	_, err := p.Invoke(context.Background(), "hello")
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ai.ErrThrottled)
}

func TestProvider_EmptyResult(t *testing.T) {
	p := NewProviderWithEmbedder(&fakeEmbedder{})
	_, err := p.Invoke(context.Background(), "hello")
	assert.ErrorIs(t, err, ai.ErrEmptyEmbedding)
}

func TestNewProvider_ValidatesConfig(t *testing.T) {
	_, err := NewProvider(ai.NewConfig(ai.WithProvider(ai.ProviderOpenAI), ai.WithHost("")))
	assert.Error(t, err)

	p, err := NewProvider(ai.NewConfig(
		ai.WithProvider(ai.ProviderOpenAI),
		ai.WithHost("http://localhost:11434"),
		ai.WithModel("nomic-embed-text"),
	))
	require.NoError(t, err)
	assert.NotNil(t, p)
}
