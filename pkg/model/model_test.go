package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeValidate(t *testing.T) {
	now := time.Now()
	n := &Node{Content: "hello", NodeType: NodeFact, Meta: DefaultMetadata(now)}
	require.NoError(t, n.Validate())

	empty := &Node{NodeType: NodeFact, Meta: DefaultMetadata(now)}
	assert.ErrorIs(t, empty.Validate(), ErrEmptyContent)

	badType := &Node{Content: "x", NodeType: "Bogus", Meta: DefaultMetadata(now)}
	assert.ErrorIs(t, badType.Validate(), ErrInvalidNodeType)

	badScore := &Node{Content: "x", NodeType: NodeFact, Meta: DefaultMetadata(now)}
	badScore.Meta.AccessScore = 11
	assert.ErrorIs(t, badScore.Validate(), ErrInvalidAccessScore)

	badConf := &Node{Content: "x", NodeType: NodeFact, Meta: DefaultMetadata(now)}
	badConf.Meta.Confidence = 1.5
	assert.ErrorIs(t, badConf.Validate(), ErrInvalidConfidence)
}

func TestEdgeValidate(t *testing.T) {
	a, b := NewNodeID(), NewNodeID()
	e := &Edge{Source: a, Target: b, Relation: RelIsA, Weight: DefaultWeight}
	require.NoError(t, e.Validate())

	self := &Edge{Source: a, Target: a, Relation: RelIsA, Weight: 1}
	assert.ErrorIs(t, self.Validate(), ErrSelfReferentialEdge)

	badWeight := &Edge{Source: a, Target: b, Relation: RelIsA, Weight: 1.5}
	assert.ErrorIs(t, badWeight.Validate(), ErrInvalidWeight)
}

func TestEdgeKeyStable(t *testing.T) {
	a, b := NewNodeID(), NewNodeID()
	e1 := &Edge{Source: a, Target: b, Relation: RelCauses}
	e2 := &Edge{Source: a, Target: b, Relation: RelCauses}
	assert.Equal(t, e1.Key(), e2.Key())
	assert.Contains(t, e1.Key().String(), "::Causes")
}

func TestNodeRoundTrip(t *testing.T) {
	now := time.Now().Round(time.Millisecond).UTC()
	idx := 3
	n := &Node{
		ID:        NewNodeID(),
		Content:   "Machine learning is a subset of AI",
		NodeType:  NodeConcept,
		Embedding: []float32{0.1, 0.2, 0.3},
		Meta: Metadata{
			CreatedAt:   now,
			UpdatedAt:   now,
			AccessedAt:  &now,
			AccessScore: 2.5,
			Confidence:  0.9,
			Source:      "test",
			DocumentID:  "doc-1",
			ChunkIndex:  &idx,
		},
		Attributes: Attributes{"tags": []any{"a", "b"}, "weight": 1.5},
	}

	data, err := json.Marshal(n)
	require.NoError(t, err)

	var out Node
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, n.ID, out.ID)
	assert.Equal(t, n.Content, out.Content)
	assert.Equal(t, n.NodeType, out.NodeType)
	assert.Equal(t, n.Embedding, out.Embedding)
	assert.Equal(t, n.Meta.AccessScore, out.Meta.AccessScore)
	assert.True(t, n.Meta.AccessedAt.Equal(*out.Meta.AccessedAt))
	assert.Equal(t, *n.Meta.ChunkIndex, *out.Meta.ChunkIndex)
	assert.Equal(t, n.Attributes["weight"], out.Attributes["weight"])
}

func TestNodeCloneIsDeep(t *testing.T) {
	n := &Node{
		ID:        NewNodeID(),
		Content:   "x",
		NodeType:  NodeFact,
		Embedding: []float32{1, 2, 3},
		Attributes: Attributes{"k": "v"},
	}
	cp := n.Clone()
	cp.Embedding[0] = 99
	cp.Attributes["k"] = "changed"
	assert.Equal(t, float32(1), n.Embedding[0])
	assert.Equal(t, "v", n.Attributes["k"])
}

func TestReasoningPathConfidence(t *testing.T) {
	a, b, c := NewNodeID(), NewNodeID(), NewNodeID()
	nodes := []*Node{{ID: a}, {ID: b}, {ID: c}}
	edges := []*Edge{
		{Source: a, Target: b, Weight: 0.9},
		{Source: b, Target: c, Weight: 0.4},
	}
	path := NewReasoningPath(nodes, edges)
	assert.Equal(t, 0.4, path.Confidence)
}
