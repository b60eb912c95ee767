package docsearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/docsearch/ai"
	"github.com/poiesic/docsearch/chunker"
	"github.com/poiesic/docsearch/config"
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/extract"
	"github.com/poiesic/docsearch/index"
	"github.com/poiesic/docsearch/ingestion"
	"github.com/poiesic/docsearch/reindex"
	"github.com/poiesic/docsearch/search"
	"github.com/poiesic/docsearch/storage"
)

// Service owns the store, the index and every component that reads or
// writes them. All methods are safe for concurrent use.
type Service struct {
	cfg       *config.AppConfig
	store     storage.BlobStore
	closers   []io.Closer
	embedder  ai.Embedder
	extractor extract.TextExtractor
	index     *index.Index
	persister *index.Persister
	pipeline  *ingestion.Pipeline
	searcher  *search.Searcher
	explainer *search.Searcher
	loadErr   error
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithConfig sets the application configuration.
// Default is config.Default().
func WithConfig(cfg *config.AppConfig) Option {
	return func(s *Service) error {
		if cfg == nil {
			return errors.New("config cannot be nil")
		}
		s.cfg = cfg
		return nil
	}
}

// WithBlobStore uses store instead of the store named in the configuration.
// The caller keeps ownership of it.
func WithBlobStore(store storage.BlobStore) Option {
	return func(s *Service) error {
		s.store = store
		return nil
	}
}

// WithEmbedder uses embedder instead of the configured provider.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(s *Service) error {
		s.embedder = embedder
		return nil
	}
}

// WithExtractor uses extractor instead of the configured one.
func WithExtractor(extractor extract.TextExtractor) Option {
	return func(s *Service) error {
		s.extractor = extractor
		return nil
	}
}

// WithLogger sets a custom logger, passed down to every component.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// New builds a Service and restores the index from its snapshot.
//
// A missing snapshot starts an empty index. An unreadable or mismatched
// snapshot also starts an empty index; the cause is logged and available
// from LoadError.
func New(ctx context.Context, opts ...Option) (*Service, error) {
	s := &Service{
		cfg:    config.Default(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	if err := s.build(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) build(ctx context.Context) error {
	cfg := s.cfg

	if s.store == nil {
		store, closer, err := openStore(ctx, cfg.Storage, s.logger)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		s.store = store
		if closer != nil {
			s.closers = append(s.closers, closer)
		}
	}

	if s.embedder == nil {
		embedder, err := newEmbedder(ctx, cfg.Embedder, s.logger)
		if err != nil {
			return fmt.Errorf("failed to create embedder: %w", err)
		}
		s.embedder = embedder
	}
	if sized, ok := s.embedder.(interface{ Dimension() int }); ok && sized.Dimension() != cfg.Embedder.Dimension {
		return fmt.Errorf("%w: embedder %d, index %d", ErrDimensionConflict, sized.Dimension(), cfg.Embedder.Dimension)
	}

	if s.extractor == nil {
		extractor, err := newExtractor(ctx, cfg.Extractor, s.logger)
		if err != nil {
			return fmt.Errorf("failed to create extractor: %w", err)
		}
		s.extractor = extractor
	}

	persister, err := index.NewPersister(s.store,
		index.WithPrefix(cfg.Storage.SnapshotPrefix),
		index.WithLogger(s.logger))
	if err != nil {
		return err
	}
	s.persister = persister

	idx, err := persister.Load(ctx, cfg.Embedder.Dimension)
	if idx == nil {
		return err
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.loadErr = err
		s.logger.Warn("starting with an empty index", "snapshot", persister.Key(), "err", err)
	}
	s.index = idx

	chunks := chunker.New(
		chunker.WithChunkSize(cfg.Chunker.Size),
		chunker.WithOverlap(cfg.Chunker.Overlap))

	pipelineOpts := []ingestion.Option{
		ingestion.WithPersister(persister),
		ingestion.WithBlobStore(s.store),
		ingestion.WithExtractor(s.extractor),
		ingestion.WithChunker(chunks),
		ingestion.WithLogger(s.logger),
	}
	if cfg.Ingestion.PoolSize > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithPoolSize(cfg.Ingestion.PoolSize))
	}
	if cfg.Ingestion.Timeout > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithTimeout(cfg.Ingestion.Timeout))
	}
	s.pipeline, err = ingestion.NewPipeline(idx, s.embedder, pipelineOpts...)
	if err != nil {
		return err
	}

	searchOpts := []search.Option{
		search.WithWeights(cfg.Search.SemanticWeight, cfg.Search.KeywordWeight),
		search.WithLogger(s.logger),
	}
	if cfg.Search.Timeout > 0 {
		searchOpts = append(searchOpts, search.WithTimeout(cfg.Search.Timeout))
	}
	s.searcher, err = search.NewSearcher(idx, s.embedder, searchOpts...)
	if err != nil {
		return err
	}
	s.explainer, err = search.NewSearcher(idx, s.embedder, append(searchOpts, search.WithBreakdown(true))...)
	return err
}

// Close releases the worker pool and any store opened by New.
func (s *Service) Close() error {
	if s.pipeline != nil {
		s.pipeline.Release()
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i].Close())
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Config returns the configuration the service was built with.
func (s *Service) Config() *config.AppConfig {
	return s.cfg
}

// Store returns the blob store holding documents and snapshots.
func (s *Service) Store() storage.BlobStore {
	return s.store
}

// LoadError returns the reason the snapshot could not be restored at
// startup, or nil.
func (s *Service) LoadError() error {
	return s.loadErr
}

// AddDocument indexes already extracted text under source.
func (s *Service) AddDocument(ctx context.Context, text, source string) (ingestion.AddResult, error) {
	return s.pipeline.AddDocument(ctx, text, source)
}

// IngestFile extracts and indexes the stored document at key.
func (s *Service) IngestFile(ctx context.Context, key string) core.IngestResult {
	return s.pipeline.IngestFile(ctx, key)
}

// Upload stores data under key and indexes it.
func (s *Service) Upload(ctx context.Context, key string, data []byte) core.IngestResult {
	return s.pipeline.IngestBytes(ctx, key, data)
}

// Search runs a hybrid query. k <= 0 uses the configured default.
func (s *Service) Search(ctx context.Context, query string, k int) ([]*core.SearchResult, error) {
	return s.searcher.Search(ctx, query, s.resultCount(k))
}

// Explain runs a hybrid query and attaches a score breakdown to every result.
func (s *Service) Explain(ctx context.Context, query string, k int) ([]*core.SearchResult, error) {
	return s.explainer.Search(ctx, query, s.resultCount(k))
}

// SearchWithMonitor runs a query reporting each step to monitor.
func (s *Service) SearchWithMonitor(ctx context.Context, query string, k int, monitor search.SearchMonitor) ([]*core.SearchResult, error) {
	return s.searcher.SearchWithMonitor(ctx, query, s.resultCount(k), monitor)
}

func (s *Service) resultCount(k int) int {
	if k > 0 {
		return k
	}
	return s.cfg.Search.K
}

// Stats reports index counts.
func (s *Service) Stats() core.IndexStats {
	return s.index.Stats()
}

// Save writes a snapshot of the current index.
func (s *Service) Save(ctx context.Context) error {
	return s.persister.Save(ctx, s.index.View())
}

// Reindex ingests every stored document, writing progress to w.
//
// The index is append only, so re-ingesting into a populated index
// duplicates every chunk. Reindex refuses with ErrIndexNotEmpty unless force
// is set.
func (s *Service) Reindex(ctx context.Context, w io.Writer, force bool) (reindex.Summary, error) {
	if n := s.index.Len(); n > 0 && !force {
		return reindex.Summary{}, fmt.Errorf("%w: %d entries", ErrIndexNotEmpty, n)
	}

	cfg := reindex.DefaultConfig()
	cfg.SkipPrefixes = []string{s.persister.Prefix() + "/"}
	r, err := reindex.NewReindexer(s.store, s.pipeline, cfg, w)
	if err != nil {
		return reindex.Summary{}, err
	}
	return r.Run(ctx)
}
