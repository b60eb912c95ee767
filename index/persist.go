package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/storage"
)

// DefaultPrefix is the blob-store prefix snapshots are written under.
const DefaultPrefix = "vector_store"

const snapshotName = "index.snap"

// Persister saves and restores index snapshots in a blob store.
type Persister struct {
	store  storage.BlobStore
	prefix string
	logger *slog.Logger
}

// PersisterOption configures a Persister.
type PersisterOption func(*Persister) error

// WithPrefix sets the key prefix for the snapshot blob.
// Default is DefaultPrefix.
func WithPrefix(prefix string) PersisterOption {
	return func(p *Persister) error {
		if prefix == "" {
			return errors.New("snapshot prefix cannot be empty")
		}
		p.prefix = prefix
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) PersisterOption {
	return func(p *Persister) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "index-persister")
		return nil
	}
}

// NewPersister creates a Persister over store.
func NewPersister(store storage.BlobStore, opts ...PersisterOption) (*Persister, error) {
	if store == nil {
		return nil, errors.New("blob store required")
	}
	p := &Persister{
		store:  store,
		prefix: DefaultPrefix,
		logger: slog.Default().With("component", "index-persister"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Prefix returns the key prefix snapshots are stored under.
func (p *Persister) Prefix() string {
	return p.prefix
}

// Key returns the blob key of the snapshot.
func (p *Persister) Key() string {
	return path.Join(p.prefix, snapshotName)
}

// Save writes a snapshot of v, replacing any previous snapshot.
func (p *Persister) Save(ctx context.Context, v *View) error {
	start := time.Now()
	data := Encode(v)
	if err := p.store.Put(ctx, p.Key(), data); err != nil {
		return fmt.Errorf("%w: save snapshot: %w", core.ErrPersistence, err)
	}
	p.logger.Debug("saved snapshot", "entries", v.Len(), "bytes", len(data), "elapsed", time.Since(start))
	return nil
}

// Load restores the last snapshot. It always returns a usable index: an
// absent snapshot yields an empty index and no error. Download failures and
// corrupt snapshots yield an empty index together with the error, and a
// snapshot whose sections disagree yields its consistent prefix together
// with an error matching core.ErrIndexCorruption.
func (p *Persister) Load(ctx context.Context, dim int) (*Index, error) {
	empty, err := New(dim)
	if err != nil {
		return nil, err
	}

	data, err := p.store.Get(ctx, p.Key())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			p.logger.Info("no snapshot found, starting with empty index", "key", p.Key())
			return empty, nil
		}
		return empty, fmt.Errorf("%w: load snapshot: %w", core.ErrPersistence, err)
	}

	idx, err := Decode(data)
	if idx == nil {
		return empty, err
	}
	if idx.dim != dim {
		return empty, fmt.Errorf("%w: %w: snapshot has dimension %d, expected %d",
			core.ErrIndexCorruption, core.ErrDimensionMismatch, idx.dim, dim)
	}
	p.logger.Info("restored snapshot", "key", p.Key(), "entries", idx.Len())
	return idx, err
}
