package badger

import (
	"fmt"

	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/docsearch/storage"
)

// manifest describes how a blob is split into parts.
type manifest struct {
	Generation uint64
	Parts      int
	Size       int
}

func marshalManifest(m manifest) []byte {
	size := varint.Uint64.Size(m.Generation) + varint.Int.Size(m.Parts) + varint.Int.Size(m.Size)
	bs := make([]byte, size)
	n := varint.Uint64.Marshal(m.Generation, bs)
	n += varint.Int.Marshal(m.Parts, bs[n:])
	varint.Int.Marshal(m.Size, bs[n:])
	return bs
}

func unmarshalManifest(bs []byte) (manifest, error) {
	var m manifest
	gen, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return m, fmt.Errorf("%w: manifest generation: %v", storage.ErrSerializationFailed, err)
	}
	parts, n1, err := varint.Int.Unmarshal(bs[n:])
	if err != nil {
		return m, fmt.Errorf("%w: manifest parts: %v", storage.ErrSerializationFailed, err)
	}
	n += n1
	size, _, err := varint.Int.Unmarshal(bs[n:])
	if err != nil {
		return m, fmt.Errorf("%w: manifest size: %v", storage.ErrSerializationFailed, err)
	}
	if parts < 0 || size < 0 {
		return m, fmt.Errorf("%w: negative manifest field", storage.ErrSerializationFailed)
	}
	m.Generation, m.Parts, m.Size = gen, parts, size
	return m, nil
}
