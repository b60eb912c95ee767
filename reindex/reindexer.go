package reindex

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/docsearch/backoff"
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/storage"
)

// Ingester indexes one stored document.
type Ingester interface {
	IngestFile(ctx context.Context, key string) core.IngestResult
}

// Config controls a re-index run.
type Config struct {
	// Prefix limits the run to keys starting with it. Empty means every key.
	Prefix string

	// SkipPrefixes are key prefixes that never hold documents, such as the
	// snapshot prefix.
	SkipPrefixes []string

	// ReportInterval is how often to report progress (number of files)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for listing the store
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns the default re-index configuration.
func DefaultConfig() *Config {
	return &Config{
		ReportInterval: 10,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Failure records one file that could not be indexed.
type Failure struct {
	Key string
	Err error
}

// Summary describes the outcome of a run.
type Summary struct {
	Total    int // Documents considered
	Indexed  int // Documents that produced at least one chunk
	Empty    int // Documents indexed without any text
	Failed   int
	Chunks   int
	Failures []Failure
	Elapsed  time.Duration
}

// Reindexer re-ingests every stored document.
type Reindexer struct {
	store    storage.BlobStore
	ingester Ingester
	config   *Config
	progress io.Writer
	sleep    backoff.Sleeper
	logger   *slog.Logger
}

// NewReindexer creates a Reindexer. A nil config uses DefaultConfig and a
// nil progress writer discards progress output.
func NewReindexer(store storage.BlobStore, ingester Ingester, config *Config, progress io.Writer) (*Reindexer, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if ingester == nil {
		return nil, ErrIngesterRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Reindexer{
		store:    store,
		ingester: ingester,
		config:   config,
		progress: progress,
		sleep:    backoff.Sleep,
		logger:   slog.Default().With("component", "reindex"),
	}, nil
}

// Keys lists the document keys the run would process, in store order.
// Listing is retried with exponential backoff.
func (r *Reindexer) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := backoff.Retry(ctx, func() error {
		var err error
		keys, err = r.store.List(ctx, r.config.Prefix)
		return err
	}, max(r.config.MaxRetries, 1), r.config.RetryDelay, r.sleep)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	docs := keys[:0]
	for _, key := range keys {
		if !r.skipped(key) {
			docs = append(docs, key)
		}
	}
	return docs, nil
}

func (r *Reindexer) skipped(key string) bool {
	if strings.HasSuffix(key, "/") {
		return true
	}
	for _, prefix := range r.config.SkipPrefixes {
		if prefix != "" && strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// Run ingests every document. It stops early only when ctx is done.
func (r *Reindexer) Run(ctx context.Context) (Summary, error) {
	keys, err := r.Keys(ctx)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Total: len(keys)}
	if len(keys) == 0 {
		fmt.Fprintf(r.progress, "No documents found (0 files)\n")
		return summary, nil
	}

	fmt.Fprintf(r.progress, "Starting re-index of %d files\n", len(keys))

	tracker := NewProgressTracker(r.progress, len(keys), r.config.ReportInterval)
	tracker.Start()

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			summary.Elapsed = tracker.Elapsed()
			return summary, err
		}

		result := r.ingester.IngestFile(ctx, key)
		switch {
		case result.Status != core.StatusIndexed:
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{Key: key, Err: result.Err})
			r.logger.Warn("failed to re-index document", "key", key, "err", result.Err)
		case result.Chunks == 0:
			summary.Empty++
		default:
			summary.Indexed++
			summary.Chunks += result.Chunks
		}
		tracker.Done(result.Status != core.StatusIndexed)
	}

	tracker.Finish()
	summary.Elapsed = tracker.Elapsed()

	fmt.Fprintf(r.progress, "Re-index complete. %d indexed, %d empty, %d failed, %d chunks in %v\n",
		summary.Indexed, summary.Empty, summary.Failed, summary.Chunks, summary.Elapsed.Round(time.Millisecond))
	return summary, nil
}
