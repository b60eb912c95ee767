package index

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/storage"
	"github.com/poiesic/docsearch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore returns err from every call.
type failingStore struct {
	err error
}

func (f failingStore) Get(ctx context.Context, key string) ([]byte, error) { return nil, f.err }
func (f failingStore) Put(ctx context.Context, key string, data []byte) error {
	return f.err
}
func (f failingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return nil, f.err
}

func newPersister(t *testing.T, opts ...PersisterOption) (*Persister, *badger.BlobStore) {
	t.Helper()
	store, err := badger.NewMemoryBlobStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	p, err := NewPersister(store, opts...)
	require.NoError(t, err)
	return p, store
}

func TestPersister_Key(t *testing.T) {
	p, _ := newPersister(t)
	assert.Equal(t, "vector_store/index.snap", p.Key())

	p, _ = newPersister(t, WithPrefix("indexes/prod"))
	assert.Equal(t, "indexes/prod/index.snap", p.Key())

	_, err := NewPersister(failingStore{}, WithPrefix(""))
	assert.Error(t, err)
}

func TestPersister_SaveLoad(t *testing.T) {
	p, _ := newPersister(t)
	ctx := context.Background()
	idx := newTestIndex(t)

	require.NoError(t, p.Save(ctx, idx.View()))

	restored, err := p.Load(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, idx.metas, restored.metas)
	assert.Equal(t, idx.vectors, restored.vectors)
}

func TestPersister_SaveOverwrites(t *testing.T) {
	p, _ := newPersister(t)
	ctx := context.Background()
	idx := newTestIndex(t)

	require.NoError(t, p.Save(ctx, idx.View()))
	_, err := idx.Append([][]float32{{0, -1}}, []core.ChunkMetadata{meta("south", "c")})
	require.NoError(t, err)
	require.NoError(t, p.Save(ctx, idx.View()))

	restored, err := p.Load(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, restored.Len())
}

func TestPersister_LoadMissing(t *testing.T) {
	p, _ := newPersister(t)

	idx, err := p.Load(context.Background(), 1536)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, 1536, idx.Dimension())
}

func TestPersister_LoadDownloadFailure(t *testing.T) {
	p, err := NewPersister(failingStore{err: errors.New("access denied")})
	require.NoError(t, err)

	idx, err := p.Load(context.Background(), 2)
	require.NotNil(t, idx)
	assert.Equal(t, 0, idx.Len())
	assert.ErrorIs(t, err, core.ErrPersistence)
}

func TestPersister_LoadCorrupt(t *testing.T) {
	p, store := newPersister(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, p.Key(), []byte("not a snapshot at all, just some bytes padding it out")))

	idx, err := p.Load(ctx, 2)
	require.NotNil(t, idx)
	assert.Equal(t, 0, idx.Len())
	assert.ErrorIs(t, err, core.ErrIndexCorruption)
}

func TestPersister_LoadDimensionMismatch(t *testing.T) {
	p, _ := newPersister(t)
	ctx := context.Background()
	require.NoError(t, p.Save(ctx, newTestIndex(t).View()))

	idx, err := p.Load(ctx, 3)
	require.NotNil(t, idx)
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, 3, idx.Dimension())
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestPersister_SaveFailure(t *testing.T) {
	p, err := NewPersister(failingStore{err: storage.ErrStorageClosed})
	require.NoError(t, err)

	err = p.Save(context.Background(), newTestIndex(t).View())
	assert.ErrorIs(t, err, core.ErrPersistence)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
