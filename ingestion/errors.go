package ingestion

import "errors"

var (
	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrBlobStoreRequired is returned when IngestFile runs without a blob store.
	ErrBlobStoreRequired = errors.New("blob store required")

	// ErrExtractorRequired is returned when IngestFile runs without an extractor.
	ErrExtractorRequired = errors.New("text extractor required")

	// ErrNothingEmbedded is reported when a document had chunks but none of
	// them could be embedded.
	ErrNothingEmbedded = errors.New("no chunks could be embedded")
)
