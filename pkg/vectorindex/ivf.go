package vectorindex

import (
	"sort"
	"sync"

	"github.com/orneryd/graphrag-core/pkg/model"
)

// IVFConfig parameterizes the inverted-file index: nlist coarse
// clusters, nprobe of which are scanned per query.
type IVFConfig struct {
	NList int // number of coarse clusters (centroids)
	NProbe int // clusters scanned per query
}

// DefaultIVFConfig is recommended for corpora of roughly 5k+ vectors
// (spec.md §4.3b).
func DefaultIVFConfig() IVFConfig {
	return IVFConfig{NList: 100, NProbe: 8}
}

type ivfEntry struct {
	id     model.NodeID
	vector []float32
}

// IVFIndex is an inverted-file ANN index: vectors are assigned to the
// nearest of nlist coarse centroids (a k-means-lite quantizer refit
// from the current population on each Insert/Remove), and a query
// scans only the nprobe centroids closest to it.
//
// This backend has no teacher equivalent; it is built fresh to satisfy
// the documented Ivf(nlist, nprobe) family, following the same
// map-of-lists bookkeeping shape the HNSW backend uses for neighbor
// lists.
type IVFIndex struct {
	mu        sync.RWMutex
	dimension int
	config    IVFConfig

	entries   map[model.NodeID][]float32
	centroids [][]float32
	clusters  map[int][]model.NodeID
	assigned  map[model.NodeID]int
}

// NewIVFIndex creates an IVF index fixed to dimension dim.
func NewIVFIndex(dim int, cfg IVFConfig) *IVFIndex {
	if cfg.NList <= 0 {
		cfg = DefaultIVFConfig()
	}
	return &IVFIndex{
		dimension: dim,
		config:    cfg,
		entries:   make(map[model.NodeID][]float32),
		clusters:  make(map[int][]model.NodeID),
		assigned:  make(map[model.NodeID]int),
	}
}

func (ix *IVFIndex) Dimension() int { return ix.dimension }

// IsReady reports whether the coarse quantizer has been trained. Since
// nlist is capped at the population size, that is the case whenever the
// index holds at least one vector; an empty index is not ready.
func (ix *IVFIndex) IsReady() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.centroids) > 0
}

func (ix *IVFIndex) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

func (ix *IVFIndex) Insert(id model.NodeID, vector []float32) error {
	if err := checkDimension(ix.dimension, vector); err != nil {
		return err
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries[id] = normalize(vector)
	ix.retrainLocked()
	return nil
}

func (ix *IVFIndex) InsertBatch(items []IDVector) error {
	for _, it := range items {
		if err := checkDimension(ix.dimension, it.Vector); err != nil {
			return err
		}
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, it := range items {
		ix.entries[it.ID] = normalize(it.Vector)
	}
	ix.retrainLocked()
	return nil
}

func (ix *IVFIndex) Update(id model.NodeID, vector []float32) error {
	return ix.Insert(id, vector)
}

func (ix *IVFIndex) Remove(id model.NodeID) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.entries[id]; !ok {
		return false
	}
	delete(ix.entries, id)
	ix.retrainLocked()
	return true
}

// retrainLocked rebuilds the coarse quantizer from the current
// population. Cheap enough for the populations this backend targets
// (thousands of vectors); there is no incremental quantizer.
func (ix *IVFIndex) retrainLocked() {
	n := len(ix.entries)
	nlist := ix.config.NList
	if n == 0 {
		ix.centroids = nil
		ix.clusters = make(map[int][]model.NodeID)
		ix.assigned = make(map[model.NodeID]int)
		return
	}
	if nlist > n {
		nlist = n
	}

	ids := make([]model.NodeID, 0, n)
	for id := range ix.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	centroids := make([][]float32, nlist)
	for i := 0; i < nlist; i++ {
		centroids[i] = append([]float32(nil), ix.entries[ids[i*n/nlist]]...)
	}

	const iterations = 4
	assignment := make(map[model.NodeID]int, n)
	for iter := 0; iter < iterations; iter++ {
		for _, id := range ids {
			v := ix.entries[id]
			best, bestSim := 0, -1.0
			for c, centroid := range centroids {
				sim := cosineSimilarity(v, centroid)
				if sim > bestSim {
					bestSim = sim
					best = c
				}
			}
			assignment[id] = best
		}

		sums := make([][]float64, nlist)
		counts := make([]int, nlist)
		for c := range sums {
			sums[c] = make([]float64, ix.dimension)
		}
		for _, id := range ids {
			c := assignment[id]
			counts[c]++
			for i, x := range ix.entries[id] {
				sums[c][i] += float64(x)
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			next := make([]float32, ix.dimension)
			for i, s := range sums[c] {
				next[i] = float32(s / float64(counts[c]))
			}
			centroids[c] = normalize(next)
		}
	}

	clusters := make(map[int][]model.NodeID, nlist)
	for _, id := range ids {
		c := assignment[id]
		clusters[c] = append(clusters[c], id)
	}

	ix.centroids = centroids
	ix.clusters = clusters
	ix.assigned = assignment
}

// Search scans the nprobe centroids nearest the query, then does an
// exact cosine scan within those clusters.
func (ix *IVFIndex) Search(query []float32, k int) ([]SearchResult, error) {
	if err := checkDimension(ix.dimension, query); err != nil {
		return nil, err
	}
	if k == 0 {
		return []SearchResult{}, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.entries) == 0 {
		return []SearchResult{}, nil
	}

	q := normalize(query)

	var candidateIDs []model.NodeID
	if len(ix.centroids) == 0 {
		for id := range ix.entries {
			candidateIDs = append(candidateIDs, id)
		}
	} else {
		type centroidDist struct {
			idx int
			sim float64
		}
		cds := make([]centroidDist, len(ix.centroids))
		for i, c := range ix.centroids {
			cds[i] = centroidDist{idx: i, sim: cosineSimilarity(q, c)}
		}
		sort.Slice(cds, func(i, j int) bool { return cds[i].sim > cds[j].sim })

		nprobe := ix.config.NProbe
		if nprobe > len(cds) {
			nprobe = len(cds)
		}
		for i := 0; i < nprobe; i++ {
			candidateIDs = append(candidateIDs, ix.clusters[cds[i].idx]...)
		}
	}

	results := make([]SearchResult, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		results = append(results, SearchResult{ID: id, Similarity: cosineSimilarity(q, ix.entries[id])})
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
