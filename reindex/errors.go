package reindex

import "errors"

var (
	// ErrStoreRequired is returned when a blob store is not provided.
	ErrStoreRequired = errors.New("blob store required")

	// ErrIngesterRequired is returned when an ingester is not provided.
	ErrIngesterRequired = errors.New("ingester required")
)
