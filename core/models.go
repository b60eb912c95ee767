package core

import (
	"path"
	"strings"
)

// DefaultDimension is the vector size produced by the Titan text embedding model.
const DefaultDimension = 1536

// Format identifies how the bytes of a RawDocument should be read.
type Format string

const (
	FormatPDF     Format = "pdf"
	FormatDOCX    Format = "docx"
	FormatPPTX    Format = "pptx"
	FormatText    Format = "text"
	FormatImage   Format = "image"
	FormatUnknown Format = "unknown"
)

// FormatFromKey derives a Format from the extension of a file name or blob key.
// Matching is case-insensitive. Unrecognized extensions map to FormatUnknown.
func FormatFromKey(key string) Format {
	switch strings.ToLower(path.Ext(key)) {
	case ".pdf":
		return FormatPDF
	case ".docx", ".doc":
		return FormatDOCX
	case ".pptx", ".ppt":
		return FormatPPTX
	case ".txt", ".md":
		return FormatText
	case ".jpg", ".jpeg", ".png":
		return FormatImage
	default:
		return FormatUnknown
	}
}

// RawDocument is an uploaded file as fetched from the blob store.
type RawDocument struct {
	Key     string // Source identifier (file name or blob key)
	Format  Format
	Content []byte
}

// ChunkMetadata is the side-table record stored for every index entry.
type ChunkMetadata struct {
	Text   string
	Source string
}

// MatchPath records which retrieval path discovered a search result.
type MatchPath string

const (
	MatchSemantic MatchPath = "semantic"
	MatchKeyword  MatchPath = "keyword"
	MatchBoth     MatchPath = "both"
)

// ScoreBreakdown explains how a result's fused score was produced.
type ScoreBreakdown struct {
	Semantic float64
	Keyword  float64
	Distance float64 // L2 distance between query and chunk vectors
	Path     MatchPath
}

// SearchResult is a single ranked chunk returned from a query.
type SearchResult struct {
	Score     float64
	Source    string
	Content   string
	Breakdown *ScoreBreakdown // Populated only when requested
}

// IngestStatus is the outcome reported for an ingested file.
type IngestStatus string

const (
	// StatusIndexed means the file's text was extracted and added to the index.
	StatusIndexed IngestStatus = "indexed"
	// StatusIndexingFailed means the file was stored but could not be indexed.
	StatusIndexingFailed IngestStatus = "indexing_failed"
)

// IngestResult summarizes ingestion of one file.
type IngestResult struct {
	Source    string
	Status    IngestStatus
	Chunks    int  // Number of chunks appended to the index
	Persisted bool // Whether the snapshot sync after the append succeeded
	Err       error
}

// IndexStats describes the contents of the vector index.
type IndexStats struct {
	Vectors   int
	Metadata  int
	Dimension int
	BySource  map[string]int
}
