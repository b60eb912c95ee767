package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docsearch/ai"
	"github.com/poiesic/docsearch/chunker"
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/extract"
	"github.com/poiesic/docsearch/index"
	"github.com/poiesic/docsearch/storage"
)

// DefaultTimeout bounds a single file ingestion.
const DefaultTimeout = 5 * time.Minute

// Pipeline orchestrates extraction, chunking, embedding and indexing.
type Pipeline struct {
	index     *index.Index
	embedder  ai.Embedder
	persister *index.Persister
	store     storage.BlobStore
	extractor extract.TextExtractor
	chunker   *chunker.Chunker
	pool      *ants.Pool
	timeout   time.Duration
	writeMu   sync.Mutex
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent chunk embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithPersister saves a snapshot after every successful append.
// Without a persister the index is memory only.
func WithPersister(persister *index.Persister) Option {
	return func(p *Pipeline) error {
		p.persister = persister
		return nil
	}
}

// WithBlobStore sets the store IngestFile reads raw documents from.
func WithBlobStore(store storage.BlobStore) Option {
	return func(p *Pipeline) error {
		p.store = store
		return nil
	}
}

// WithExtractor sets the extractor IngestFile uses.
func WithExtractor(extractor extract.TextExtractor) Option {
	return func(p *Pipeline) error {
		p.extractor = extractor
		return nil
	}
}

// WithChunker sets the chunker.
// Default is chunker.New() with 400 character chunks and 200 characters of overlap.
func WithChunker(c *chunker.Chunker) Option {
	return func(p *Pipeline) error {
		if c == nil {
			return errors.New("chunker cannot be nil")
		}
		p.chunker = c
		return nil
	}
}

// WithTimeout bounds each AddDocument and IngestFile call.
// Default is DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive: %v", timeout)
		}
		p.timeout = timeout
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "ingestion")
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline writing to idx.
func NewPipeline(idx *index.Index, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		index:    idx,
		embedder: embedder,
		chunker:  chunker.New(),
		pool:     pool,
		timeout:  DefaultTimeout,
		logger:   slog.Default().With("component", "ingestion"),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// AddResult describes the effect of one AddDocument call.
type AddResult struct {
	FirstID    int   // Id of the first appended chunk, valid when Chunks > 0
	Chunks     int   // Chunks appended to the index
	Skipped    int   // Chunks dropped because embedding failed
	Persisted  bool  // Whether the snapshot save after the append succeeded
	PersistErr error // Error from the snapshot save, if any
	EmbedErr   error // Joined errors of the skipped chunks, if any
}

// AddDocument chunks text, embeds the chunks and appends them to the index
// under source, then saves a snapshot. Text without any words is a no-op, as
// is a document none of whose chunks could be embedded.
//
// Errors are returned only for cancellation, timeout or a rejected append;
// a failed snapshot save is reported in the result.
func (p *Pipeline) AddDocument(ctx context.Context, text, source string) (AddResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	chunks := p.chunker.Split(normalizeWhitespace(text))
	if len(chunks) == 0 {
		p.logger.Info("no text to index", "source", source)
		return AddResult{}, nil
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	embedded := p.embedChunks(ctx, chunks, source)
	if err := ctx.Err(); err != nil {
		return AddResult{Skipped: len(chunks)}, timeoutError(err)
	}
	result := AddResult{Skipped: embedded.skipped, EmbedErr: embedded.err}
	if len(embedded.vectors) == 0 {
		p.logger.Warn("no chunks embedded, document not indexed", "source", source, "chunks", len(chunks))
		return result, nil
	}

	first, err := p.index.Append(embedded.vectors, embedded.metas)
	if err != nil {
		return result, fmt.Errorf("append %s: %w", source, err)
	}
	result.FirstID = first
	result.Chunks = len(embedded.vectors)

	if p.persister != nil {
		if err := p.persister.Save(ctx, p.index.View()); err != nil {
			p.logger.Error("failed to save index snapshot", "source", source, "err", err)
			result.PersistErr = err
		} else {
			result.Persisted = true
		}
	}

	p.logger.Info("indexed document",
		"source", source, "chunks", result.Chunks, "skipped", result.Skipped,
		"firstID", first, "persisted", result.Persisted)
	return result, nil
}

// IngestFile fetches key from the blob store, extracts its text and adds it
// to the index. Failures are reported in the result, never returned.
func (p *Pipeline) IngestFile(ctx context.Context, key string) core.IngestResult {
	if p.store == nil {
		return failed(key, ErrBlobStoreRequired)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	data, err := p.store.Get(ctx, key)
	if err != nil {
		return p.fail(key, "fetch", timeoutError(err))
	}
	return p.ingest(ctx, key, data)
}

// IngestBytes stores data under key and indexes it without refetching.
// The returned result reports a failed store write the same way as a failed
// extraction.
func (p *Pipeline) IngestBytes(ctx context.Context, key string, data []byte) core.IngestResult {
	if p.store == nil {
		return failed(key, ErrBlobStoreRequired)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.store.Put(ctx, key, data); err != nil {
		return p.fail(key, "store", timeoutError(err))
	}
	return p.ingest(ctx, key, data)
}

func (p *Pipeline) ingest(ctx context.Context, key string, data []byte) core.IngestResult {
	if p.extractor == nil {
		return failed(key, ErrExtractorRequired)
	}

	format := core.FormatFromKey(key)
	text, err := p.extractor.Extract(ctx, data, format)
	if err != nil {
		var extractionErr *core.ExtractionError
		if errors.As(err, &extractionErr) && extractionErr.Source == "" {
			extractionErr.Source = key
		}
		return p.fail(key, "extract", timeoutError(err))
	}

	res, err := p.AddDocument(ctx, text, key)
	if err != nil {
		return p.fail(key, "index", err)
	}
	if res.Chunks == 0 && res.Skipped > 0 {
		return p.fail(key, "embed", fmt.Errorf("%w: %w", ErrNothingEmbedded, res.EmbedErr))
	}

	return core.IngestResult{
		Source:    key,
		Status:    core.StatusIndexed,
		Chunks:    res.Chunks,
		Persisted: res.Persisted,
	}
}

func (p *Pipeline) fail(key, stage string, err error) core.IngestResult {
	p.logger.Error("ingestion failed", "source", key, "stage", stage, "err", err)
	return failed(key, err)
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

func failed(key string, err error) core.IngestResult {
	return core.IngestResult{Source: key, Status: core.StatusIndexingFailed, Err: err}
}

// normalizeWhitespace collapses runs of whitespace to single spaces.
func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// timeoutError tags deadline failures with core.ErrTimeout.
func timeoutError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, core.ErrTimeout) {
		return fmt.Errorf("%w: %w", core.ErrTimeout, err)
	}
	return err
}
