package search

import (
	"iter"

	"github.com/poiesic/docsearch/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterQueryEmbedding(vector []float32)
	AfterSemanticSearch(ids []int)
	AfterKeywordScan(terms []string, ids iter.Seq[int])
	SemanticAndKeywordHit(id int, result *core.SearchResult)
	SemanticHit(id int, result *core.SearchResult)
	KeywordHit(id int, result *core.SearchResult)
	DuplicateSkipped(id int)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                    {}
func (n *noopMonitor) AfterQueryEmbedding(_ []float32)                   {}
func (n *noopMonitor) AfterSemanticSearch(_ []int)                       {}
func (n *noopMonitor) AfterKeywordScan(_ []string, _ iter.Seq[int])      {}
func (n *noopMonitor) SemanticAndKeywordHit(_ int, _ *core.SearchResult) {}
func (n *noopMonitor) SemanticHit(_ int, _ *core.SearchResult)           {}
func (n *noopMonitor) KeywordHit(_ int, _ *core.SearchResult)            {}
func (n *noopMonitor) DuplicateSkipped(_ int)                            {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)                     {}
