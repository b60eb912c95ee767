package badger

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docsearch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...Option) *BlobStore {
	t.Helper()
	s, err := NewMemoryBlobStore(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBlobStore_PutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "uploads/a.txt", []byte("hello world")))

	got, err := s.Get(ctx, "uploads/a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), got)
}

func TestBlobStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBlobStore_EmptyBlob(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "empty", nil))
	got, err := s.Get(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBlobStore_MultiPart(t *testing.T) {
	s := newTestStore(t, WithPartSize(7))
	ctx := context.Background()

	data := bytes.Repeat([]byte("0123456789"), 10)
	require.NoError(t, s.Put(ctx, "big", data))

	got, err := s.Get(ctx, "big")
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestBlobStore_Overwrite(t *testing.T) {
	s := newTestStore(t, WithPartSize(4))
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", []byte("first version is long")))
	require.NoError(t, s.Put(ctx, "k", []byte("second")))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)

	// Previous generation parts are removed
	keys := 0
	err = s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(blobPartPrefix + "k\x00")
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys++
		}
		return nil
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, keys)
}

func TestBlobStore_List(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"uploads/b.pdf", "uploads/a.docx", "vector_store/index.snap", "other"} {
		require.NoError(t, s.Put(ctx, key, []byte(key)))
	}

	keys, err := s.List(ctx, "uploads/")
	require.NoError(t, err)
	assert.Equal(t, []string{"uploads/a.docx", "uploads/b.pdf"}, keys)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestBlobStore_InvalidKey(t *testing.T) {
	s := newTestStore(t)

	err := s.Put(context.Background(), "", []byte("x"))
	assert.ErrorIs(t, err, storage.ErrInvalidKey)
}

func TestBlobStore_Closed(t *testing.T) {
	s, err := NewMemoryBlobStore()
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "close is idempotent")

	_, err = s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	_, err = s.List(context.Background(), "")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestBlobStore_CanceledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Put(ctx, "k", []byte("v")), context.Canceled)
}

func TestBlobStore_Persistent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenBlobStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "vector_store/index.snap", []byte("snapshot")))
	require.NoError(t, s.Close())

	s, err = OpenBlobStore(dir)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, "vector_store/index.snap")
	require.NoError(t, err)
	assert.Equal(t, []byte("snapshot"), got)
}

func TestBlobStore_ConcurrentDistinctKeys(t *testing.T) {
	s := newTestStore(t, WithPartSize(16))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%02d", i)
			assert.NoError(t, s.Put(ctx, key, bytes.Repeat([]byte{byte(i)}, 100)))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		got, err := s.Get(ctx, fmt.Sprintf("k%02d", i))
		require.NoError(t, err)
		assert.Equal(t, bytes.Repeat([]byte{byte(i)}, 100), got)
	}
}
