package index

import (
	"bytes"
	"fmt"

	"github.com/go-crypt/x/blake2b"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/docsearch/core"
)

// SnapshotVersion is the format version written by Encode.
const SnapshotVersion = 1

const checksumSize = blake2b.Size256

var snapshotMagic = []byte("DSIX")

// Encode serializes a view into the snapshot format.
func Encode(v *View) []byte {
	vectorCount := len(v.vectors) / v.dim
	metaCount := len(v.metas)

	size := len(snapshotMagic) +
		varint.Int.Size(SnapshotVersion) +
		varint.Int.Size(v.dim) +
		varint.Int.Size(vectorCount) +
		varint.Int.Size(metaCount)
	for _, f := range v.vectors {
		size += raw.Float32.Size(f)
	}
	for id, meta := range v.metas {
		size += varint.Int.Size(id) + ord.String.Size(meta.Text) + ord.String.Size(meta.Source)
	}

	bs := make([]byte, size+checksumSize)
	n := copy(bs, snapshotMagic)
	n += varint.Int.Marshal(SnapshotVersion, bs[n:])
	n += varint.Int.Marshal(v.dim, bs[n:])
	n += varint.Int.Marshal(vectorCount, bs[n:])
	for _, f := range v.vectors {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	n += varint.Int.Marshal(metaCount, bs[n:])
	for id, meta := range v.metas {
		n += varint.Int.Marshal(id, bs[n:])
		n += ord.String.Marshal(meta.Text, bs[n:])
		n += ord.String.Marshal(meta.Source, bs[n:])
	}

	sum := blake2b.Sum256(bs[:n])
	copy(bs[n:], sum[:])
	return bs[:n+checksumSize]
}

type snapshotRecord struct {
	id   int
	meta core.ChunkMetadata
}

// Decode restores an index from snapshot bytes.
//
// Checksum, framing and decode failures return a nil index and an error
// matching core.ErrIndexCorruption. When the vector and metadata sections
// disagree, Decode keeps the longest prefix of contiguous ids present in
// both and returns that index together with an ErrIndexCorruption error.
func Decode(data []byte) (*Index, error) {
	if len(data) < len(snapshotMagic)+checksumSize {
		return nil, corruption(fmt.Errorf("%w: %d bytes", ErrBadMagic, len(data)))
	}
	payload, checksum := data[:len(data)-checksumSize], data[len(data)-checksumSize:]
	sum := blake2b.Sum256(payload)
	if !bytes.Equal(sum[:], checksum) {
		return nil, corruption(ErrChecksumMismatch)
	}
	if !bytes.HasPrefix(payload, snapshotMagic) {
		return nil, corruption(ErrBadMagic)
	}

	d := decoder{bs: payload, n: len(snapshotMagic)}
	version := d.int("version")
	if d.err == nil && version != SnapshotVersion {
		return nil, corruption(fmt.Errorf("%w: %d", ErrUnsupportedVersion, version))
	}
	dim := d.int("dimension")
	vectorCount := d.int("vector count")
	if d.err != nil {
		return nil, corruption(d.err)
	}
	if dim < 1 || vectorCount < 0 || vectorCount > len(payload)/4/dim {
		return nil, corruption(fmt.Errorf("invalid header: dimension %d, vectors %d", dim, vectorCount))
	}

	vectors := make([]float32, vectorCount*dim)
	for i := range vectors {
		vectors[i] = d.float32()
	}
	metaCount := d.int("metadata count")
	if d.err == nil && (metaCount < 0 || metaCount > len(payload)) {
		return nil, corruption(fmt.Errorf("invalid metadata count %d", metaCount))
	}
	var records []snapshotRecord
	for i := 0; i < metaCount && d.err == nil; i++ {
		rec := snapshotRecord{id: d.int("metadata id")}
		rec.meta.Text = d.string("metadata text")
		rec.meta.Source = d.string("metadata source")
		records = append(records, rec)
	}
	if d.err != nil {
		return nil, corruption(d.err)
	}
	if d.n != len(payload) {
		return nil, corruption(fmt.Errorf("%d trailing bytes", len(payload)-d.n))
	}

	consistent := 0
	for consistent < vectorCount && consistent < len(records) && records[consistent].id == consistent {
		consistent++
	}

	idx := &Index{
		dim:     dim,
		vectors: vectors[:consistent*dim],
		metas:   make([]core.ChunkMetadata, consistent),
	}
	for i := range idx.metas {
		idx.metas[i] = records[i].meta
	}

	if consistent != vectorCount || consistent != len(records) {
		return idx, corruption(fmt.Errorf("%d vectors and %d metadata records, kept %d consistent entries",
			vectorCount, len(records), consistent))
	}
	return idx, nil
}

func corruption(err error) error {
	return fmt.Errorf("%w: %w", core.ErrIndexCorruption, err)
}

// decoder reads sequential fields and remembers the first error.
type decoder struct {
	bs  []byte
	n   int
	err error
}

func (d *decoder) int(field string) int {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(d.bs[d.n:])
	if err != nil {
		d.err = fmt.Errorf("%s: %w", field, err)
		return 0
	}
	d.n += n
	return v
}

func (d *decoder) float32() float32 {
	if d.err != nil {
		return 0
	}
	v, n, err := raw.Float32.Unmarshal(d.bs[d.n:])
	if err != nil {
		d.err = fmt.Errorf("vector component: %w", err)
		return 0
	}
	d.n += n
	return v
}

func (d *decoder) string(field string) string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.bs[d.n:])
	if err != nil {
		d.err = fmt.Errorf("%s: %w", field, err)
		return ""
	}
	d.n += n
	return v
}
