// Package vectorindex provides approximate and exact nearest-neighbor
// search over fixed-dimension embeddings: a linear-scan flat index, an
// HNSW graph index, an IVF coarse-quantized index, and population-based
// auto-selection between them.
package vectorindex

import (
	"errors"
	"fmt"
	"math"

	"github.com/orneryd/graphrag-core/pkg/model"
)

// InvalidDimensionError reports a vector whose length doesn't match the
// index's configured dimension.
type InvalidDimensionError struct {
	Expected int
	Found    int
}

func (e *InvalidDimensionError) Error() string {
	return fmt.Sprintf("vectorindex: invalid dimension: expected %d, found %d", e.Expected, e.Found)
}

// ErrNotReady names the not-ready condition reported by IsReady. No
// backend in this package returns it: searching an index that is not
// ready yields an empty result.
var ErrNotReady = errors.New("vectorindex: index not ready")

// SearchResult is one ranked hit from a search.
type SearchResult struct {
	ID         model.NodeID
	Similarity float64
}

// Index is the common contract every backend satisfies (spec.md §4.3).
type Index interface {
	Insert(id model.NodeID, vector []float32) error
	InsertBatch(items []IDVector) error
	Update(id model.NodeID, vector []float32) error
	Remove(id model.NodeID) bool
	Search(query []float32, k int) ([]SearchResult, error)
	Count() int
	Dimension() int
	IsReady() bool
}

// IDVector pairs an id with its embedding, used by batch operations and
// migration.
type IDVector struct {
	ID     model.NodeID
	Vector []float32
}

// normalize returns a unit-length copy of v, or a zero vector if v has
// zero norm (spec.md: "zero-norm inputs yield 0.0" similarity).
func normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return make([]float32, len(v))
	}
	norm := math.Sqrt(sumSq)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// cosineSimilarity computes cosine similarity between two already
// unit-normalized vectors; callers normalize once at insert/query time
// rather than on every comparison.
func cosineSimilarity(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	if dot < 0 {
		dot = 0
	}
	if dot > 1 {
		dot = 1
	}
	return dot
}

func checkDimension(expected int, v []float32) error {
	if len(v) != expected {
		return &InvalidDimensionError{Expected: expected, Found: len(v)}
	}
	return nil
}
