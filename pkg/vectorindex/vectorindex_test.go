package vectorindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/graphrag-core/pkg/model"
)

func newIndexes(dim int) map[string]Index {
	return map[string]Index{
		"flat": NewFlatIndex(dim),
		"hnsw": NewHNSWIndex(dim, DefaultHNSWConfig()),
		"ivf":  NewIVFIndex(dim, IVFConfig{NList: 2, NProbe: 2}),
	}
}

// P3 / Scenario 6: dimension mismatch on insert and search.
func TestVectorIndex_DimensionMismatch(t *testing.T) {
	for name, idx := range newIndexes(384) {
		t.Run(name, func(t *testing.T) {
			id := model.NewNodeID()
			err := idx.Insert(id, make([]float32, 128))
			var dimErr *InvalidDimensionError
			require.ErrorAs(t, err, &dimErr)
			assert.Equal(t, 384, dimErr.Expected)
			assert.Equal(t, 128, dimErr.Found)

			_, err = idx.Search(make([]float32, 128), 10)
			require.ErrorAs(t, err, &dimErr)
		})
	}
}

// Scenario 6: search on an empty, correctly-dimensioned index returns [].
func TestVectorIndex_EmptySearchReturnsEmpty(t *testing.T) {
	for name, idx := range newIndexes(384) {
		t.Run(name, func(t *testing.T) {
			results, err := idx.Search(make([]float32, 384), 10)
			require.NoError(t, err)
			assert.Empty(t, results)
		})
	}
}

// P4: cosine similarity of an exact match is ~1.0.
func TestVectorIndex_ExactMatchSimilarity(t *testing.T) {
	for name, idx := range newIndexes(4) {
		t.Run(name, func(t *testing.T) {
			id := model.NewNodeID()
			v := []float32{1, 2, 3, 4}
			require.NoError(t, idx.Insert(id, v))

			results, err := idx.Search(v, 1)
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
		})
	}
}

func TestVectorIndex_ZeroNormYieldsZeroSimilarity(t *testing.T) {
	for name, idx := range newIndexes(3) {
		t.Run(name, func(t *testing.T) {
			zeroID := model.NewNodeID()
			require.NoError(t, idx.Insert(zeroID, []float32{0, 0, 0}))

			results, err := idx.Search([]float32{1, 0, 0}, 1)
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, 0.0, results[0].Similarity)
		})
	}
}

func TestVectorIndex_KZeroReturnsEmpty(t *testing.T) {
	for name, idx := range newIndexes(2) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, idx.Insert(model.NewNodeID(), []float32{1, 0}))
			results, err := idx.Search([]float32{1, 0}, 0)
			require.NoError(t, err)
			assert.Empty(t, results)
		})
	}
}

// search with k > count returns count results.
func TestVectorIndex_KGreaterThanCount(t *testing.T) {
	for name, idx := range newIndexes(2) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, idx.Insert(model.NewNodeID(), []float32{1, 0}))
			require.NoError(t, idx.Insert(model.NewNodeID(), []float32{0, 1}))
			results, err := idx.Search([]float32{1, 0}, 100)
			require.NoError(t, err)
			assert.Len(t, results, 2)
		})
	}
}

func TestVectorIndex_UpdateUpsertsAbsentID(t *testing.T) {
	for name, idx := range newIndexes(2) {
		t.Run(name, func(t *testing.T) {
			id := model.NewNodeID()
			require.NoError(t, idx.Update(id, []float32{1, 0}))
			assert.Equal(t, 1, idx.Count())
		})
	}
}

func TestVectorIndex_RemoveAbsentIsNoop(t *testing.T) {
	for name, idx := range newIndexes(2) {
		t.Run(name, func(t *testing.T) {
			assert.False(t, idx.Remove(model.NewNodeID()))
		})
	}
}

func TestFlatIndex_TieBreakByIDOrder(t *testing.T) {
	idx := NewFlatIndex(2)
	var ids []model.NodeID
	for i := 0; i < 3; i++ {
		id := model.NewNodeID()
		ids = append(ids, id)
		require.NoError(t, idx.Insert(id, []float32{1, 0}))
	}
	results, err := idx.Search([]float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i := 0; i+1 < len(results); i++ {
		assert.LessOrEqual(t, results[i].ID.String(), results[i+1].ID.String())
	}
}

func TestSelectBackend_Thresholds(t *testing.T) {
	assert.Equal(t, BackendFlat, SelectBackend(10))
	assert.Equal(t, BackendHNSW, SelectBackend(AutoHNSWThreshold))
	assert.Equal(t, BackendIVF, SelectBackend(AutoIVFThreshold))
}

func TestAuto_StartsFlatAndDelegates(t *testing.T) {
	a := NewAuto(3)
	assert.Equal(t, BackendFlat, a.ActiveBackend())
	id := model.NewNodeID()
	require.NoError(t, a.Insert(id, []float32{1, 2, 3}))
	results, err := a.Search([]float32{1, 2, 3}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].ID)
}
