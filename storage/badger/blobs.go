package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docsearch/storage"
)

// DefaultPartSize is the largest value written under a single key.
const DefaultPartSize = 1 << 20

// BlobStore implements storage.BlobStore on BadgerDB.
//
// Each blob is stored as a manifest plus numbered parts. A Put writes a new
// generation of parts, then swaps the manifest in one transaction, then
// deletes the previous generation. Readers see either the old or the new
// blob, never a mix.
type BlobStore struct {
	backend     *Backend
	ownsBackend bool
	seq         *badger.Sequence
	partSize    int
	logger      *slog.Logger
	closeOnce   sync.Once
}

var _ storage.BlobStore = (*BlobStore)(nil)

// Option configures a BlobStore.
type Option func(*BlobStore) error

// WithPartSize sets the maximum size of a single stored part.
// Default is DefaultPartSize.
func WithPartSize(size int) Option {
	return func(s *BlobStore) error {
		if size < 1 {
			return fmt.Errorf("part size must be positive: %d", size)
		}
		s.partSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *BlobStore) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "badger-blobs")
		return nil
	}
}

// NewBlobStore creates a BlobStore on an open backend. The caller keeps
// ownership of the backend.
func NewBlobStore(backend *Backend, opts ...Option) (*BlobStore, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	seq, err := backend.GetSequence(blobGenerationSeq)
	if err != nil {
		return nil, err
	}

	s := &BlobStore{
		backend:  backend,
		seq:      seq,
		partSize: DefaultPartSize,
		logger:   slog.Default().With("component", "badger-blobs"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			seq.Release()
			return nil, err
		}
	}
	return s, nil
}

// OpenBlobStore opens a BadgerDB directory and returns a BlobStore that
// closes the database on Close.
func OpenBlobStore(path string, opts ...Option) (*BlobStore, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	s, err := NewBlobStore(backend, opts...)
	if err != nil {
		backend.Close()
		return nil, err
	}
	s.ownsBackend = true
	return s, nil
}

// Close releases the generation sequence and, if owned, the database.
func (s *BlobStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.backend.IsClosed() {
			return
		}
		err = s.seq.Release()
		if s.ownsBackend {
			err = errors.Join(err, s.backend.Close())
		}
	})
	return err
}

// Get returns the blob stored under key.
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := s.check(ctx, key); err != nil {
		return nil, err
	}

	var data []byte
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		m, err := readManifest(tx, key)
		if err != nil {
			return err
		}

		data = make([]byte, 0, m.Size)
		for i := 0; i < m.Parts; i++ {
			item, err := tx.Get(makePartKey(key, m.Generation, i))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("%w: %s part %d missing", storage.ErrTruncatedData, key, i)
				}
				return err
			}
			err = item.Value(func(val []byte) error {
				data = append(data, val...)
				return nil
			})
			if err != nil {
				return err
			}
		}
		if len(data) != m.Size {
			return fmt.Errorf("%w: %s has %d bytes, expected %d", storage.ErrTruncatedData, key, len(data), m.Size)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Put stores data under key, replacing any previous blob.
func (s *BlobStore) Put(ctx context.Context, key string, data []byte) error {
	if err := s.check(ctx, key); err != nil {
		return err
	}

	generation, err := s.seq.Next()
	if err != nil {
		return err
	}
	next := manifest{Generation: generation, Size: len(data)}

	err = s.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for start := 0; start < len(data); start += s.partSize {
			end := min(start+s.partSize, len(data))
			part := make([]byte, end-start)
			copy(part, data[start:end])
			if err := wb.Set(makePartKey(key, generation, next.Parts), part); err != nil {
				return err
			}
			next.Parts++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write parts for %s: %w", key, err)
	}

	var previous *manifest
	err = s.backend.WithTx(func(tx *badger.Txn) error {
		old, err := readManifest(tx, key)
		switch {
		case err == nil:
			previous = &old
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}
		if err := tx.Set(makeManifestKey(key), marshalManifest(next)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		s.deleteParts(key, next)
		return fmt.Errorf("write manifest for %s: %w", key, err)
	}

	if previous != nil {
		s.deleteParts(key, *previous)
	}
	s.logger.Debug("stored blob", "key", key, "bytes", len(data), "parts", next.Parts)
	return nil
}

// List returns keys with the given prefix in lexicographic order.
func (s *BlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var keys []string
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makeManifestKey(prefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, strings.TrimPrefix(string(iter.Item().Key()), blobManifestPrefix))
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *BlobStore) check(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return storage.ValidateKey(key)
}

// deleteParts removes one generation of parts. Failures leave orphaned
// parts that are never read, so they are logged and not returned.
func (s *BlobStore) deleteParts(key string, m manifest) {
	err := s.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for i := 0; i < m.Parts; i++ {
			if err := wb.Delete(makePartKey(key, m.Generation, i)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("failed to delete stale blob parts", "key", key, "generation", m.Generation, "err", err)
	}
}

func readManifest(tx *badger.Txn, key string) (manifest, error) {
	item, err := tx.Get(makeManifestKey(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return manifest{}, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
		}
		return manifest{}, err
	}
	var m manifest
	err = item.Value(func(val []byte) error {
		var err error
		m, err = unmarshalManifest(val)
		return err
	})
	return m, err
}
