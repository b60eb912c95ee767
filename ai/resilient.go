package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/docsearch/backoff"
	"github.com/poiesic/docsearch/core"
	"golang.org/x/time/rate"
)

// ResilientEmbedder wraps a Provider with throttling retries, an optional
// client-side rate limit, dimension checking and L2 normalization.
type ResilientEmbedder struct {
	provider    Provider
	dimension   int
	maxAttempts int
	baseDelay   time.Duration
	limiter     *rate.Limiter
	sleep       backoff.Sleeper
	logger      *slog.Logger
}

var _ Embedder = (*ResilientEmbedder)(nil)

// Option configures a ResilientEmbedder.
type Option func(*ResilientEmbedder) error

// WithEmbedderDimension sets the expected vector length.
// Zero disables the check. Default is core.DefaultDimension.
func WithEmbedderDimension(dim int) Option {
	return func(e *ResilientEmbedder) error {
		if dim < 0 {
			return fmt.Errorf("dimension cannot be negative: %d", dim)
		}
		e.dimension = dim
		return nil
	}
}

// WithRetryPolicy sets the throttling retry budget and the first backoff wait.
// Default is 5 attempts starting at 1s.
func WithRetryPolicy(maxAttempts int, baseDelay time.Duration) Option {
	return func(e *ResilientEmbedder) error {
		if maxAttempts < 1 {
			return backoff.ErrInvalidMaxAttempts
		}
		e.maxAttempts = maxAttempts
		e.baseDelay = baseDelay
		return nil
	}
}

// WithRateLimit caps outbound requests at rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(e *ResilientEmbedder) error {
		if rps <= 0 {
			e.limiter = nil
			return nil
		}
		if burst < 1 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		return nil
	}
}

// WithSleeper replaces the backoff wait. Used by tests to record waits.
func WithSleeper(sleep backoff.Sleeper) Option {
	return func(e *ResilientEmbedder) error {
		if sleep == nil {
			sleep = backoff.Sleep
		}
		e.sleep = sleep
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *ResilientEmbedder) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger.With("component", "embedder")
		return nil
	}
}

// NewResilientEmbedder creates an Embedder on top of a raw Provider.
func NewResilientEmbedder(provider Provider, opts ...Option) (*ResilientEmbedder, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}
	e := &ResilientEmbedder{
		provider:    provider,
		dimension:   core.DefaultDimension,
		maxAttempts: 5,
		baseDelay:   time.Second,
		sleep:       backoff.Sleep,
		logger:      slog.Default().With("component", "embedder"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Dimension returns the expected vector length, or 0 if unchecked.
func (e *ResilientEmbedder) Dimension() int {
	return e.dimension
}

// EmbedText returns the unit-length embedding of text.
//
// Throttled calls are retried with exponential backoff. After maxAttempts
// throttled calls the result is a *core.EmbeddingError wrapping
// core.ErrMaxRetriesExceeded. Any other provider failure is returned
// immediately as a non-retryable *core.EmbeddingError.
func (e *ResilientEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	b := backoff.New(e.baseDelay, e.maxAttempts)
	var lastErr error

	for !b.Exhausted() {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, &core.EmbeddingError{Attempts: b.Attempt(), Err: err}
			}
		}

		vector, err := e.provider.Invoke(ctx, text)
		if err == nil {
			if verr := core.ValidateVector(vector, e.dimension); verr != nil {
				return nil, &core.EmbeddingError{Attempts: b.Attempt() + 1, Err: verr}
			}
			return NormalizeVector(vector), nil
		}

		if !errors.Is(err, ErrThrottled) {
			e.logger.Error("embedding request failed", "err", err)
			return nil, &core.EmbeddingError{Attempts: b.Attempt() + 1, Err: err}
		}

		lastErr = err
		wait := b.Next()
		e.logger.Warn("embedding throttled, backing off", "attempt", b.Attempt(), "wait", wait)
		if serr := e.sleep(ctx, wait); serr != nil {
			return nil, &core.EmbeddingError{Attempts: b.Attempt(), Retryable: true, Err: serr}
		}
	}

	e.logger.Error("embedding retries exhausted", "attempts", b.Attempt())
	return nil, &core.EmbeddingError{
		Attempts:  b.Attempt(),
		Retryable: true,
		Err:       fmt.Errorf("%w: %w", core.ErrMaxRetriesExceeded, lastErr),
	}
}
