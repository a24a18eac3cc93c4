package graphrag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/graphrag-core/pkg/graphengine"
	"github.com/orneryd/graphrag-core/pkg/model"
	"github.com/orneryd/graphrag-core/pkg/vectorindex"
)

func mkNode(t *testing.T, g *graphengine.Graph, content string, nt model.NodeType) model.NodeID {
	t.Helper()
	n := &model.Node{ID: model.NewNodeID(), Content: content, NodeType: nt}
	require.NoError(t, g.AddNode(n))
	return n.ID
}

// Scenario 1: hybrid retrieval combines a direct vector match with its
// graph neighbor, ranked with the vector match ahead of the pure-graph
// node it pulled in.
func TestHybrid_CombinesVectorAndGraphResults(t *testing.T) {
	g := graphengine.New()
	anchor := mkNode(t, g, "anchor content", model.NodeFact)
	neighbor := mkNode(t, g, "neighbor content", model.NodeFact)
	require.NoError(t, g.AddEdge(&model.Edge{Source: anchor, Target: neighbor, Relation: model.RelIsA, Weight: 1}))

	vec := vectorindex.NewFlatIndex(2)
	require.NoError(t, vec.Insert(anchor, []float32{1, 0}))

	eng := New(g, vec)
	cfg := DefaultRetrievalConfig()
	cfg.MinRelevance = 0

	res, err := eng.Retrieve([]float32{1, 0}, nil, cfg)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(res.Results), 1)
	assert.Equal(t, anchor, res.Results[0].Node.ID)
	assert.True(t, res.Results[0].IsDirectMatch)

	var foundNeighbor bool
	for _, r := range res.Results {
		if r.Node.ID == neighbor {
			foundNeighbor = true
			assert.Equal(t, 1, r.HopDistance)
			assert.False(t, r.IsDirectMatch)
		}
	}
	assert.True(t, foundNeighbor)
}

func TestVectorOnly_RanksBySimilarity(t *testing.T) {
	g := graphengine.New()
	a := mkNode(t, g, "a", model.NodeFact)
	b := mkNode(t, g, "b", model.NodeFact)

	vec := vectorindex.NewFlatIndex(2)
	require.NoError(t, vec.Insert(a, []float32{1, 0}))
	require.NoError(t, vec.Insert(b, []float32{0.1, 1}))

	eng := New(g, vec)
	cfg := DefaultRetrievalConfig()
	cfg.Mode = VectorOnly
	cfg.MinRelevance = 0

	res, err := eng.Retrieve([]float32{1, 0}, nil, cfg)
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.Equal(t, a, res.Results[0].Node.ID)
}

func TestGraphOnly_MissingSeedIsStartNodeMissing(t *testing.T) {
	g := graphengine.New()
	vec := vectorindex.NewFlatIndex(2)
	eng := New(g, vec)

	_, err := eng.Retrieve(nil, []model.NodeID{model.NewNodeID()}, RetrievalConfig{Mode: GraphOnly, MaxHops: 1, MaxGraphResults: 10})
	assert.ErrorIs(t, err, ErrStartNodeMissing)
}

func TestGraphOnly_NoSeedsIsStartNodeMissing(t *testing.T) {
	g := graphengine.New()
	vec := vectorindex.NewFlatIndex(2)
	eng := New(g, vec)

	_, err := eng.Retrieve(nil, nil, RetrievalConfig{Mode: GraphOnly})
	assert.ErrorIs(t, err, ErrStartNodeMissing)
}

func TestVectorOnly_DimensionMismatchClassifies(t *testing.T) {
	g := graphengine.New()
	vec := vectorindex.NewFlatIndex(4)
	eng := New(g, vec)

	cfg := DefaultRetrievalConfig()
	cfg.Mode = VectorOnly
	_, err := eng.Retrieve([]float32{1, 2}, nil, cfg)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestExpand_RespectsMinEdgeWeightAndMaxTotal(t *testing.T) {
	seed := model.NewNodeID()
	n1, n2, n3 := model.NewNodeID(), model.NewNodeID(), model.NewNodeID()
	neighbors := func(id model.NodeID) []WeightedNeighbor {
		if id == seed {
			return []WeightedNeighbor{{ID: n1, Weight: 0.9}, {ID: n2, Weight: 0.05}, {ID: n3, Weight: 0.8}}
		}
		return nil
	}

	result := Expand([]model.NodeID{seed}, neighbors, ExpansionConfig{
		MaxExpansionHops: 1, MinEdgeWeight: 0.1, MaxExpandedNodes: 10, MaxTotal: 10,
	})
	assert.Contains(t, result.Order, n1)
	assert.Contains(t, result.Order, n3)
	assert.NotContains(t, result.Order, n2)
}

func TestExpand_MaxTotalTruncates(t *testing.T) {
	seed := model.NewNodeID()
	var chain []model.NodeID
	for i := 0; i < 5; i++ {
		chain = append(chain, model.NewNodeID())
	}
	neighbors := func(id model.NodeID) []WeightedNeighbor {
		for i, c := range chain {
			if id == c && i+1 < len(chain) {
				return []WeightedNeighbor{{ID: chain[i+1], Weight: 1}}
			}
		}
		if id == seed {
			return []WeightedNeighbor{{ID: chain[0], Weight: 1}}
		}
		return nil
	}

	result := Expand([]model.NodeID{seed}, neighbors, ExpansionConfig{
		MaxExpansionHops: 10, MinEdgeWeight: 0, MaxExpandedNodes: 10, MaxTotal: 3,
	})
	assert.LessOrEqual(t, len(result.Order), 3)
}

func TestFormat_Flat(t *testing.T) {
	results := []Result{
		{Node: &model.Node{Content: "one"}},
		{Node: &model.Node{Content: "two"}},
	}
	out, err := Format(results, FormatFlat, FormatConfig{})
	require.NoError(t, err)
	assert.Equal(t, "one\n\n---\n\ntwo", out)
}

func TestFormat_Compact(t *testing.T) {
	results := []Result{{Node: &model.Node{Content: "one"}}, {Node: &model.Node{Content: "two"}}}
	out, err := Format(results, FormatCompact, FormatConfig{})
	require.NoError(t, err)
	assert.Equal(t, "one two", out)
}

func TestFormat_Markdown(t *testing.T) {
	results := []Result{{Node: &model.Node{Content: "hello", NodeType: model.NodeFact}}}
	out, err := Format(results, FormatMarkdown, FormatConfig{})
	require.NoError(t, err)
	assert.Contains(t, out, "# Retrieved Context")
	assert.Contains(t, out, "## 1. Fact")
	assert.Contains(t, out, "hello")
}

func TestFormat_JSON(t *testing.T) {
	id := model.NewNodeID()
	results := []Result{{Node: &model.Node{ID: id, Content: "hi", NodeType: model.NodeFact}, FinalScore: 0.9}}
	out, err := Format(results, FormatJSON, FormatConfig{})
	require.NoError(t, err)
	assert.Contains(t, out, id.String())
	assert.Contains(t, out, `"score":0.9`)
}

func TestCompress_Deduplicate(t *testing.T) {
	results := []Result{
		{Node: &model.Node{Content: "same prefix aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}},
		{Node: &model.Node{Content: "same prefix aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa but different tail"}},
		{Node: &model.Node{Content: "totally different"}},
	}
	out := Compress(results, CompressDeduplicate)
	assert.Len(t, out, 2)
}

func TestCompress_TopOnlyKeepsHalf(t *testing.T) {
	results := []Result{
		{Node: &model.Node{Content: "a"}, FinalScore: 0.9},
		{Node: &model.Node{Content: "b"}, FinalScore: 0.5},
		{Node: &model.Node{Content: "c"}, FinalScore: 0.1},
	}
	out := Compress(results, CompressTopOnly)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Node.Content)
}

func TestCompress_UnresolvedStrategiesFallBackToTopOnly(t *testing.T) {
	results := []Result{{FinalScore: 0.9, Node: &model.Node{Content: "a"}}, {FinalScore: 0.1, Node: &model.Node{Content: "b"}}}
	assert.Equal(t, Compress(results, CompressTopOnly), Compress(results, CompressKeySentences))
	assert.Equal(t, Compress(results, CompressTopOnly), Compress(results, CompressClusterSummary))
}

func TestFilterByLevel_DocumentOnlyEntityAndConcept(t *testing.T) {
	results := []Result{
		{Node: &model.Node{NodeType: model.NodeEntity}},
		{Node: &model.Node{NodeType: model.NodeFact}},
		{Node: &model.Node{NodeType: model.NodeRawChunk}},
	}
	out := FilterByLevel(results, LevelDocument)
	require.Len(t, out, 1)
	assert.Equal(t, model.NodeEntity, out[0].Node.NodeType)
}

func TestAutoSelectLevel_CoarsensOverBudget(t *testing.T) {
	assert.Equal(t, LevelParagraph, AutoSelectLevel(LevelSentence, 5000, 1000, 0.5))
}

func TestAutoSelectLevel_RefinesUnderQuarterBudget(t *testing.T) {
	assert.Equal(t, LevelParagraph, AutoSelectLevel(LevelDocument, 10, 1000, 0.5))
}
