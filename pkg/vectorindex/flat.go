package vectorindex

import (
	"sort"
	"sync"

	"github.com/orneryd/graphrag-core/pkg/model"
)

// FlatIndex is an exact, linear-scan cosine index: safe for small
// corpora and for tests, and always correct regardless of population.
type FlatIndex struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[model.NodeID][]float32
}

// NewFlatIndex creates an empty flat index fixed to dimension dim.
func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{dimension: dim, vectors: make(map[model.NodeID][]float32)}
}

func (f *FlatIndex) Dimension() int { return f.dimension }

func (f *FlatIndex) IsReady() bool { return true }

func (f *FlatIndex) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

func (f *FlatIndex) Insert(id model.NodeID, vector []float32) error {
	if err := checkDimension(f.dimension, vector); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vectors[id] = normalize(vector)
	return nil
}

func (f *FlatIndex) InsertBatch(items []IDVector) error {
	for _, it := range items {
		if err := checkDimension(f.dimension, it.Vector); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range items {
		f.vectors[it.ID] = normalize(it.Vector)
	}
	return nil
}

// Update upserts: valid even if id is absent, per spec.md §4.3.
func (f *FlatIndex) Update(id model.NodeID, vector []float32) error {
	return f.Insert(id, vector)
}

func (f *FlatIndex) Remove(id model.NodeID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vectors[id]; !ok {
		return false
	}
	delete(f.vectors, id)
	return true
}

// Search returns the top-k nearest vectors by cosine similarity,
// descending, with id order as the stable tie-breaker.
func (f *FlatIndex) Search(query []float32, k int) ([]SearchResult, error) {
	if err := checkDimension(f.dimension, query); err != nil {
		return nil, err
	}
	if k == 0 {
		return []SearchResult{}, nil
	}
	q := normalize(query)

	f.mu.RLock()
	defer f.mu.RUnlock()

	results := make([]SearchResult, 0, len(f.vectors))
	for id, v := range f.vectors {
		results = append(results, SearchResult{ID: id, Similarity: cosineSimilarity(q, v)})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID.String() < results[j].ID.String()
	})
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}
