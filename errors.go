package docsearch

import "errors"

var (
	// ErrIndexNotEmpty is returned by Reindex when the index already holds
	// entries and the run was not forced. Re-ingesting appends duplicates.
	ErrIndexNotEmpty = errors.New("index is not empty")

	// ErrDimensionConflict is returned when the embedder and the configured
	// index dimension disagree.
	ErrDimensionConflict = errors.New("embedder dimension does not match index dimension")
)
