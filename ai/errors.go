package ai

import "errors"

var (
	// ErrThrottled is returned by a Provider when the backend rejected the
	// request because of rate limiting. It is the only retryable failure.
	ErrThrottled = errors.New("provider throttled request")

	// ErrProviderRequired is returned when no Provider is supplied.
	ErrProviderRequired = errors.New("embedding provider required")

	// ErrUnknownProvider is returned when a Config names an unsupported provider.
	ErrUnknownProvider = errors.New("unknown embedding provider")

	// ErrEmptyEmbedding is returned when a provider answers with no vector.
	ErrEmptyEmbedding = errors.New("provider returned empty embedding")
)
