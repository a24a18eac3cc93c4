package vectorindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/graphrag-core/pkg/model"
)

func newTestColumnStore(t *testing.T, dim int) *ColumnStore {
	t.Helper()
	cs, err := NewColumnStore(t.TempDir(), dim, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func TestColumnStore_PutGet(t *testing.T) {
	cs := newTestColumnStore(t, 3)
	id := model.NewNodeID()
	require.NoError(t, cs.Put(id, []float32{1, 2, 3}))

	got, ok, err := cs.Get(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, got)
}

func TestColumnStore_GetMissing(t *testing.T) {
	cs := newTestColumnStore(t, 3)
	_, ok, err := cs.Get(model.NewNodeID())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestColumnStore_PutBatchProgress(t *testing.T) {
	cs := newTestColumnStore(t, 2)
	items := make([]IDVector, 5)
	for i := range items {
		items[i] = IDVector{ID: model.NewNodeID(), Vector: []float32{float32(i), 1}}
	}

	var calls []int
	require.NoError(t, cs.PutBatch(items, 2, func(done, total int) {
		calls = append(calls, done)
		assert.Equal(t, 5, total)
	}))
	assert.Equal(t, []int{2, 4, 5}, calls)

	all, err := cs.All()
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestColumnStore_DimensionMismatch(t *testing.T) {
	cs := newTestColumnStore(t, 4)
	err := cs.Put(model.NewNodeID(), []float32{1, 2})
	var dimErr *InvalidDimensionError
	assert.ErrorAs(t, err, &dimErr)
}

func TestColumnStore_BuildIndex(t *testing.T) {
	cs := newTestColumnStore(t, 2)
	a, b := model.NewNodeID(), model.NewNodeID()
	require.NoError(t, cs.Put(a, []float32{1, 0}))
	require.NoError(t, cs.Put(b, []float32{0, 1}))

	idx, err := cs.BuildIndex(BackendFlat)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Count())

	results, err := idx.Search([]float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, a, results[0].ID)
}
