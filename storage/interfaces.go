package storage

import "context"

// BlobStore is a flat key/value store for uploaded documents and index
// snapshots. Keys are slash-separated paths such as "uploads/report.pdf".
// Implementations must be thread-safe and support concurrent access.
type BlobStore interface {
	// Get returns the full contents stored under key.
	// Returns ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores data under key, replacing any previous value.
	Put(ctx context.Context, key string, data []byte) error

	// List returns every key starting with prefix in lexicographic order.
	// An empty prefix lists the whole store.
	List(ctx context.Context, prefix string) ([]string, error)
}
