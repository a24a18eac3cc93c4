package graphengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/graphrag-core/pkg/model"
)

func mustNode(t *testing.T, g *Graph, content string) model.NodeID {
	t.Helper()
	n := &model.Node{ID: model.NewNodeID(), Content: content, NodeType: model.NodeFact, Meta: model.DefaultMetadata(time.Now())}
	require.NoError(t, g.AddNode(n))
	return n.ID
}

func edge(src, dst model.NodeID, rel model.RelationType) *model.Edge {
	return &model.Edge{Source: src, Target: dst, Relation: rel, Weight: 1}
}

func TestAddEdge_RequiresLiveEndpoints(t *testing.T) {
	g := New()
	a := mustNode(t, g, "a")
	ghost := model.NewNodeID()
	err := g.AddEdge(edge(a, ghost, model.RelIsA))
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestAddNode_Duplicate(t *testing.T) {
	g := New()
	n := &model.Node{ID: model.NewNodeID(), Content: "x", NodeType: model.NodeFact}
	require.NoError(t, g.AddNode(n))
	assert.ErrorIs(t, g.AddNode(n), ErrNodeAlreadyExists)
}

// P5: BFS with include_start=false never returns the start node.
func TestBFS_ExcludesStartByDefault(t *testing.T) {
	g := New()
	a := mustNode(t, g, "a")
	b := mustNode(t, g, "b")
	require.NoError(t, g.AddEdge(edge(a, b, model.RelIsA)))

	res, err := g.BFS(a, TraversalConfig{MaxDepth: 5, MaxNodes: 10, Direction: Forward, AvoidCycles: true})
	require.NoError(t, err)
	for _, n := range res.Nodes {
		assert.NotEqual(t, a, n.ID)
	}
	require.Len(t, res.Nodes, 1)
	assert.Equal(t, b, res.Nodes[0].ID)
}

// Scenario 2: star traversal truncation/overshoot.
func TestBFS_StarOvershoot(t *testing.T) {
	g := New()
	center := mustNode(t, g, "center")
	var outers []model.NodeID
	for i := 0; i < 10; i++ {
		o := mustNode(t, g, "outer")
		outers = append(outers, o)
		require.NoError(t, g.AddEdge(edge(center, o, model.RelIsA)))
	}

	res, err := g.BFS(center, TraversalConfig{MaxDepth: 1, MaxNodes: 5, Direction: Forward, AvoidCycles: true})
	require.NoError(t, err)
	assert.Len(t, res.Nodes, 10)
	assert.Equal(t, 1, res.Depth)
}

// P10: cycle a->b->c->a visited at most once each.
func TestBFS_CycleAvoidance(t *testing.T) {
	g := New()
	a := mustNode(t, g, "a")
	b := mustNode(t, g, "b")
	c := mustNode(t, g, "c")
	require.NoError(t, g.AddEdge(edge(a, b, model.RelIsA)))
	require.NoError(t, g.AddEdge(edge(b, c, model.RelIsA)))
	require.NoError(t, g.AddEdge(edge(c, a, model.RelIsA)))

	res, err := g.BFS(a, TraversalConfig{MaxDepth: 10, MaxNodes: 100, Direction: Forward, AvoidCycles: true})
	require.NoError(t, err)
	seen := map[model.NodeID]int{}
	for _, n := range res.Nodes {
		seen[n.ID]++
	}
	assert.LessOrEqual(t, seen[b], 1)
	assert.LessOrEqual(t, seen[c], 1)
	assert.Equal(t, 1, seen[b])
	assert.Equal(t, 1, seen[c])
}

func TestBFS_UnknownStart(t *testing.T) {
	g := New()
	_, err := g.BFS(model.NewNodeID(), DefaultTraversalConfig())
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestNeighbors_UnknownIDIsEmpty(t *testing.T) {
	g := New()
	assert.Empty(t, g.Neighbors(model.NewNodeID(), Forward))
}

// Scenario 4: shortest path with and without shortcut.
func TestShortestPath_WithShortcut(t *testing.T) {
	g := New()
	a := mustNode(t, g, "a")
	b := mustNode(t, g, "b")
	c := mustNode(t, g, "c")
	d := mustNode(t, g, "d")
	require.NoError(t, g.AddEdge(edge(a, b, model.RelIsA)))
	require.NoError(t, g.AddEdge(edge(b, c, model.RelIsA)))
	require.NoError(t, g.AddEdge(edge(c, d, model.RelIsA)))
	require.NoError(t, g.AddEdge(edge(a, d, model.RelIsA)))

	path, err := g.ShortestPath(a, d, 10)
	require.NoError(t, err)
	require.Len(t, path, 2)
	assert.Equal(t, a, path[0].ID)
	assert.Equal(t, d, path[1].ID)
}

func TestShortestPath_BeyondDepth(t *testing.T) {
	g := New()
	a := mustNode(t, g, "a")
	b := mustNode(t, g, "b")
	c := mustNode(t, g, "c")
	d := mustNode(t, g, "d")
	require.NoError(t, g.AddEdge(edge(a, b, model.RelIsA)))
	require.NoError(t, g.AddEdge(edge(b, c, model.RelIsA)))
	require.NoError(t, g.AddEdge(edge(c, d, model.RelIsA)))

	path, err := g.ShortestPath(a, d, 1)
	require.NoError(t, err)
	assert.Nil(t, path)
}

func TestDFS_RespectsMaxNodesAndDepth(t *testing.T) {
	g := New()
	a := mustNode(t, g, "a")
	b := mustNode(t, g, "b")
	c := mustNode(t, g, "c")
	require.NoError(t, g.AddEdge(edge(a, b, model.RelIsA)))
	require.NoError(t, g.AddEdge(edge(b, c, model.RelIsA)))

	res, err := g.DFS(a, TraversalConfig{MaxDepth: 1, MaxNodes: 10, Direction: Forward, AvoidCycles: true})
	require.NoError(t, err)
	require.Len(t, res.Nodes, 1)
	assert.Equal(t, b, res.Nodes[0].ID)
}

func TestRelationFilter(t *testing.T) {
	g := New()
	a := mustNode(t, g, "a")
	b := mustNode(t, g, "b")
	c := mustNode(t, g, "c")
	require.NoError(t, g.AddEdge(edge(a, b, model.RelIsA)))
	require.NoError(t, g.AddEdge(edge(a, c, model.RelCauses)))

	res, err := g.BFS(a, TraversalConfig{
		MaxDepth: 2, MaxNodes: 10, Direction: Forward, AvoidCycles: true,
		RelationFilter: []model.RelationType{model.RelCauses},
	})
	require.NoError(t, err)
	require.Len(t, res.Nodes, 1)
	assert.Equal(t, c, res.Nodes[0].ID)
}
