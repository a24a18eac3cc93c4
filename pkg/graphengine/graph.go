// Package graphengine provides the in-memory adjacency graph and its
// traversal algorithms: BFS, DFS, shortest path, and directional
// neighbor/edge queries. Uniqueness of an edge's (source, target,
// relation) key is not enforced here — callers that need that dedupe
// by edge key at the storage boundary (see pkg/kvstore), per spec.md's
// explicit decision that the two views may diverge.
package graphengine

import (
	"errors"
	"sync"

	"github.com/orneryd/graphrag-core/pkg/model"
)

// Direction selects which adjacency to follow during a query.
type Direction int

const (
	Forward Direction = iota
	Backward
	Both
)

// Errors returned by the graph engine.
var (
	ErrNodeAlreadyExists = errors.New("graphengine: node already exists")
	ErrNodeNotFound      = errors.New("graphengine: node not found")
)

// Graph is an in-memory, directed, possibly-cyclic adjacency structure.
// All methods are safe for concurrent use.
type Graph struct {
	mu       sync.RWMutex
	nodes    map[model.NodeID]*model.Node
	outEdges map[model.NodeID][]*model.Edge
	inEdges  map[model.NodeID][]*model.Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[model.NodeID]*model.Node),
		outEdges: make(map[model.NodeID][]*model.Edge),
		inEdges:  make(map[model.NodeID][]*model.Edge),
	}
}

// AddNode inserts a node; it fails if the id already exists (I1 support
// for add_edge's endpoint-liveness check depends on this map being
// authoritative).
func (g *Graph) AddNode(n *model.Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.nodes[n.ID]; exists {
		return ErrNodeAlreadyExists
	}
	g.nodes[n.ID] = n.Clone()
	return nil
}

// UpdateNode overwrites an existing node's stored copy in place. The
// façade does not call it; live access scores are kept by the memory
// manager. It returns ErrNodeNotFound if the node doesn't exist.
func (g *Graph) UpdateNode(n *model.Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.nodes[n.ID]; !exists {
		return ErrNodeNotFound
	}
	g.nodes[n.ID] = n.Clone()
	return nil
}

// RemoveNode deletes a node from the node map only. Per spec.md's open
// question #1, edges referencing the node are intentionally left in
// place (no cascade) — they remain queryable for historical
// reconstruction, exactly mirroring the teacher's DeleteNode.
func (g *Graph) RemoveNode(id model.NodeID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.nodes[id]; !exists {
		return false
	}
	delete(g.nodes, id)
	return true
}

// AddEdge appends edge to both the source's outgoing list and the
// target's incoming list. I1 requires both endpoints to already exist;
// uniqueness of the edge key is NOT enforced at this layer (callers
// dedupe by key when they need to).
func (g *Graph) AddEdge(e *model.Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[e.Source]; !ok {
		return ErrNodeNotFound
	}
	if _, ok := g.nodes[e.Target]; !ok {
		return ErrNodeNotFound
	}
	cp := e.Clone()
	g.outEdges[e.Source] = append(g.outEdges[e.Source], cp)
	g.inEdges[e.Target] = append(g.inEdges[e.Target], cp)
	return nil
}

// GetNode returns a copy of the node with id, or ErrNodeNotFound.
func (g *Graph) GetNode(id model.NodeID) (*model.Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return n.Clone(), nil
}

// NodeExists reports whether id is present.
func (g *Graph) NodeExists(id model.NodeID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// CountNodes returns the number of nodes currently held.
func (g *Graph) CountNodes() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// CountEdges returns the total number of outgoing edge entries (each
// edge is counted once, at its source).
func (g *Graph) CountEdges() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	total := 0
	for _, edges := range g.outEdges {
		total += len(edges)
	}
	return total
}

// AllNodes returns a copy of every node, in no particular order.
func (g *Graph) AllNodes() []*model.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*model.Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n.Clone())
	}
	return out
}

// edgesLocked returns the raw (unfiltered) edge slice touching id in
// the given direction, in insertion order. Caller must hold g.mu.
func (g *Graph) edgesLocked(id model.NodeID, dir Direction) []*model.Edge {
	switch dir {
	case Forward:
		return g.outEdges[id]
	case Backward:
		return g.inEdges[id]
	default:
		out := make([]*model.Edge, 0, len(g.outEdges[id])+len(g.inEdges[id]))
		out = append(out, g.outEdges[id]...)
		out = append(out, g.inEdges[id]...)
		return out
	}
}

// Edges returns copies of the edges touching id in direction dir, in
// insertion order.
func (g *Graph) Edges(id model.NodeID, dir Direction) []*model.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	raw := g.edgesLocked(id, dir)
	out := make([]*model.Edge, len(raw))
	for i, e := range raw {
		out[i] = e.Clone()
	}
	return out
}

// neighborOf returns the id on the far end of e from the perspective of
// having reached e while expanding from id in direction dir.
func neighborOf(e *model.Edge, from model.NodeID, dir Direction) (model.NodeID, bool) {
	switch dir {
	case Forward:
		if e.Source == from {
			return e.Target, true
		}
	case Backward:
		if e.Target == from {
			return e.Source, true
		}
	default:
		if e.Source == from {
			return e.Target, true
		}
		if e.Target == from {
			return e.Source, true
		}
	}
	return model.NodeID{}, false
}

// Neighbors returns the neighbor ids reachable from id in direction
// dir, one per edge, in the insertion order of the edges that produce
// them (not deduplicated across repeated edges to the same neighbor).
func (g *Graph) Neighbors(id model.NodeID, dir Direction) []model.NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	raw := g.edgesLocked(id, dir)
	out := make([]model.NodeID, 0, len(raw))
	for _, e := range raw {
		if n, ok := neighborOf(e, id, dir); ok {
			out = append(out, n)
		}
	}
	return out
}

func relationAllowed(filter []model.RelationType, r model.RelationType) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == r {
			return true
		}
	}
	return false
}

// filteredNeighbors returns (neighbor id, connecting edge) pairs from
// id in direction dir whose relation passes the traversal config's
// relation filter. Caller must hold g.mu (at least a read lock).
func (g *Graph) filteredNeighbors(id model.NodeID, cfg TraversalConfig) []neighborEdge {
	raw := g.edgesLocked(id, cfg.Direction)
	out := make([]neighborEdge, 0, len(raw))
	for _, e := range raw {
		if !relationAllowed(cfg.RelationFilter, e.Relation) {
			continue
		}
		n, ok := neighborOf(e, id, cfg.Direction)
		if !ok {
			continue
		}
		out = append(out, neighborEdge{id: n, edge: e})
	}
	return out
}

type neighborEdge struct {
	id   model.NodeID
	edge *model.Edge
}
