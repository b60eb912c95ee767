package index

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/poiesic/docsearch/core"
)

// Neighbor is a candidate returned by a nearest-neighbor query.
type Neighbor struct {
	ID       int
	Distance float64
}

// Index is an append-only flat L2 index with a metadata side table.
// Vector i occupies vectors[i*dim:(i+1)*dim] and is described by metas[i].
type Index struct {
	mu      sync.RWMutex
	dim     int
	vectors []float32
	metas   []core.ChunkMetadata
}

// New creates an empty index for vectors of the given dimension.
func New(dim int) (*Index, error) {
	if dim < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, dim)
	}
	return &Index{dim: dim}, nil
}

// Dimension returns the vector size the index accepts.
func (idx *Index) Dimension() int {
	return idx.dim
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.metas)
}

// Append adds vectors and their metadata as one contiguous id block and
// returns the first id assigned. Either every entry is added or none is.
func (idx *Index) Append(vectors [][]float32, metas []core.ChunkMetadata) (int, error) {
	if len(vectors) != len(metas) {
		return 0, fmt.Errorf("%w: %d vectors, %d metadata", ErrLengthMismatch, len(vectors), len(metas))
	}
	for i, v := range vectors {
		if err := core.ValidateVector(v, idx.dim); err != nil {
			return 0, fmt.Errorf("vector %d: %w", i, err)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	first := len(idx.metas)
	for _, v := range vectors {
		idx.vectors = append(idx.vectors, v...)
	}
	idx.metas = append(idx.metas, metas...)
	return first, nil
}

// View captures the current contents of the index.
func (idx *Index) View() *View {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	n := len(idx.metas)
	return &View{
		dim:     idx.dim,
		vectors: idx.vectors[: n*idx.dim : n*idx.dim],
		metas:   idx.metas[:n:n],
	}
}

// Stats summarizes the index contents.
func (idx *Index) Stats() core.IndexStats {
	return idx.View().Stats()
}

// View is an immutable point-in-time view of an Index. Appends made after
// the view was taken are not visible through it.
type View struct {
	dim     int
	vectors []float32
	metas   []core.ChunkMetadata
}

// Len returns the number of entries in the view.
func (v *View) Len() int {
	return len(v.metas)
}

// Dimension returns the vector size.
func (v *View) Dimension() int {
	return v.dim
}

// Metadata returns the side-table record for id.
func (v *View) Metadata(id int) (core.ChunkMetadata, error) {
	if id < 0 || id >= len(v.metas) {
		return core.ChunkMetadata{}, fmt.Errorf("%w: %d", ErrIDOutOfRange, id)
	}
	return v.metas[id], nil
}

// Vector returns the stored vector for id. The slice must not be modified.
func (v *View) Vector(id int) ([]float32, error) {
	if id < 0 || id >= len(v.metas) {
		return nil, fmt.Errorf("%w: %d", ErrIDOutOfRange, id)
	}
	return v.vectors[id*v.dim : (id+1)*v.dim], nil
}

// Distance returns the L2 distance between query and the vector stored at id.
func (v *View) Distance(query []float32, id int) (float64, error) {
	if err := core.ValidateVector(query, v.dim); err != nil {
		return 0, err
	}
	vec, err := v.Vector(id)
	if err != nil {
		return 0, err
	}
	return l2Distance(query, vec), nil
}

// Nearest returns up to n entries closest to query by exact L2 distance,
// ordered by ascending distance and then by id.
func (v *View) Nearest(query []float32, n int) ([]Neighbor, error) {
	if err := core.ValidateVector(query, v.dim); err != nil {
		return nil, err
	}
	if n <= 0 || len(v.metas) == 0 {
		return nil, nil
	}

	all := make([]Neighbor, len(v.metas))
	for id := range v.metas {
		all[id] = Neighbor{ID: id, Distance: l2Distance(query, v.vectors[id*v.dim:(id+1)*v.dim])}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Distance < all[j].Distance
	})
	if n < len(all) {
		all = all[:n]
	}
	return all, nil
}

// Each calls fn for every entry in id order until fn returns false.
func (v *View) Each(fn func(id int, meta core.ChunkMetadata) bool) {
	for id, meta := range v.metas {
		if !fn(id, meta) {
			return
		}
	}
}

// Stats summarizes the view contents.
func (v *View) Stats() core.IndexStats {
	stats := core.IndexStats{
		Vectors:   len(v.vectors) / v.dim,
		Metadata:  len(v.metas),
		Dimension: v.dim,
		BySource:  make(map[string]int),
	}
	for _, meta := range v.metas {
		stats.BySource[meta.Source]++
	}
	return stats
}

func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
