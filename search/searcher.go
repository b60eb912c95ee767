package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/poiesic/docsearch/ai"
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/index"
)

const (
	// DefaultK is the number of results returned when k is not positive.
	DefaultK = 5

	// DefaultSemanticWeight and DefaultKeywordWeight weight the fused score.
	DefaultSemanticWeight = 0.7
	DefaultKeywordWeight  = 0.3

	// DefaultTimeout bounds a single query.
	DefaultTimeout = 30 * time.Second

	// candidateFactor is the number of vector candidates fetched per result.
	candidateFactor = 3
)

// Searcher provides hybrid semantic and keyword search over an index.
type Searcher struct {
	index          *index.Index
	embedder       ai.Embedder
	semanticWeight float64
	keywordWeight  float64
	timeout        time.Duration
	breakdown      bool
	logger         *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithWeights sets the semantic and keyword weights of the fused score.
// Default is 0.7 and 0.3.
func WithWeights(semantic, keyword float64) Option {
	return func(s *Searcher) error {
		if semantic < 0 || keyword < 0 || semantic+keyword == 0 {
			return fmt.Errorf("invalid weights: semantic %v, keyword %v", semantic, keyword)
		}
		s.semanticWeight = semantic
		s.keywordWeight = keyword
		return nil
	}
}

// WithTimeout bounds each query.
// Default is DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Searcher) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive: %v", timeout)
		}
		s.timeout = timeout
		return nil
	}
}

// WithBreakdown attaches a ScoreBreakdown to every result.
func WithBreakdown(enabled bool) Option {
	return func(s *Searcher) error {
		s.breakdown = enabled
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "searcher")
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(idx *index.Index, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		index:          idx,
		embedder:       embedder,
		semanticWeight: DefaultSemanticWeight,
		keywordWeight:  DefaultKeywordWeight,
		timeout:        DefaultTimeout,
		logger:         slog.Default().With("component", "searcher"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns up to k chunks ranked by fused score.
// A k that is not positive means DefaultK.
func (s *Searcher) Search(ctx context.Context, query string, k int) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, k, nil)
}

// candidate is a chunk discovered by either retrieval path.
type candidate struct {
	id       int
	meta     core.ChunkMetadata
	distance float64
	semantic float64
	keyword  float64
	path     core.MatchPath
}

// SearchWithMonitor searches like Search and reports each stage to monitor.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, k int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, core.ErrEmptyQuery
	}
	if k <= 0 {
		k = DefaultK
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	monitor.Start(query)

	// 1. Embed the query
	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, timeoutError(err)
	}
	monitor.AfterQueryEmbedding(vector)

	// Both paths read the same point-in-time view
	view := s.index.View()
	if view.Len() == 0 {
		monitor.Finish(nil)
		return []*core.SearchResult{}, nil
	}

	// 2. Nearest neighbors
	neighbors, err := view.Nearest(vector, candidateFactor*k)
	if err != nil {
		s.logger.Error("error querying nearest neighbors", "err", err)
		return nil, err
	}
	semanticIDs := make([]int, len(neighbors))
	vectorSet := make(map[int]bool, len(neighbors))
	for i, n := range neighbors {
		semanticIDs[i] = n.ID
		vectorSet[n.ID] = true
	}
	monitor.AfterSemanticSearch(semanticIDs)

	// 3. Keyword scan over every entry
	terms := queryTerms(query)
	keywordScores := make(map[int]float64)
	var keywordOnly []int
	if len(terms) > 0 {
		view.Each(func(id int, meta core.ChunkMetadata) bool {
			if score := keywordScore(meta.Text, terms); score > 0 {
				keywordScores[id] = score
				if !vectorSet[id] {
					keywordOnly = append(keywordOnly, id)
				}
			}
			return true
		})
	}
	monitor.AfterKeywordScan(terms, slices.Values(keywordOnly))

	// 4. Collect candidates in discovery order
	candidates := make([]candidate, 0, len(neighbors)+len(keywordOnly))
	for _, n := range neighbors {
		meta, err := view.Metadata(n.ID)
		if err != nil {
			return nil, err
		}
		c := candidate{
			id:       n.ID,
			meta:     meta,
			distance: n.Distance,
			semantic: semanticScore(n.Distance),
			keyword:  keywordScores[n.ID],
			path:     core.MatchSemantic,
		}
		if c.keyword > 0 {
			c.path = core.MatchBoth
		}
		candidates = append(candidates, c)
	}
	for _, id := range keywordOnly {
		if err := ctx.Err(); err != nil {
			return nil, timeoutError(err)
		}
		meta, err := view.Metadata(id)
		if err != nil {
			return nil, err
		}
		distance, err := view.Distance(vector, id)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate{
			id:       id,
			meta:     meta,
			distance: distance,
			semantic: semanticScore(distance),
			keyword:  keywordScores[id],
			path:     core.MatchKeyword,
		})
	}

	// 5. Dedup by chunk text and score
	seen := make(map[string]bool, len(candidates))
	results := make([]*core.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.meta.Text] {
			monitor.DuplicateSkipped(c.id)
			continue
		}
		seen[c.meta.Text] = true

		result := &core.SearchResult{
			Score:   s.semanticWeight*c.semantic + s.keywordWeight*c.keyword,
			Source:  c.meta.Source,
			Content: c.meta.Text,
		}
		if s.breakdown {
			result.Breakdown = &core.ScoreBreakdown{
				Semantic: c.semantic,
				Keyword:  c.keyword,
				Distance: c.distance,
				Path:     c.path,
			}
		}

		switch c.path {
		case core.MatchBoth:
			monitor.SemanticAndKeywordHit(c.id, result)
		case core.MatchKeyword:
			monitor.KeywordHit(c.id, result)
		default:
			monitor.SemanticHit(c.id, result)
		}
		results = append(results, result)
	}

	// 6. Stable sort keeps discovery order for ties
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	monitor.Finish(results)

	s.logger.Debug("search complete", "query", query, "candidates", len(candidates), "results", len(results))
	return results, nil
}

// timeoutError tags deadline failures with core.ErrTimeout.
func timeoutError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, core.ErrTimeout) {
		return fmt.Errorf("%w: %w", core.ErrTimeout, err)
	}
	return err
}
