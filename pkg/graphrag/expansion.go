package graphrag

import "github.com/orneryd/graphrag-core/pkg/model"

// NeighborFunc returns the (neighbor id, edge weight) pairs reachable
// from id, in some fixed order. Implementations adapt a concrete graph
// engine's adjacency (e.g. graphengine.Graph.Edges) to this shape.
type NeighborFunc func(id model.NodeID) []WeightedNeighbor

// WeightedNeighbor pairs a neighbor id with the weight of the edge that
// reaches it.
type WeightedNeighbor struct {
	ID     model.NodeID
	Weight float64
}

// ExpansionConfig bounds a neighbor-expansion pass (spec.md §4.5.3).
type ExpansionConfig struct {
	MaxExpansionHops int
	MinEdgeWeight    float64
	MaxExpandedNodes int
	MaxTotal         int
	// NodeTypeFilter and RelationFilter are not read by Expand. Type
	// filtering is done by wrapping the NeighborFunc with
	// TypeFilterNeighbors; no relation filter is applied.
	NodeTypeFilter []model.NodeType
	RelationFilter []model.RelationType
}

// ExpansionResult is the outcome of Expand: seeds followed by newly
// added ids (in discovery order), each with the hop distance and edge
// weight that first reached it, truncated to MaxTotal.
type ExpansionResult struct {
	Order       []model.NodeID
	HopDistance map[model.NodeID]int
	EdgeWeight  map[model.NodeID]float64
}

type frontierEntry struct {
	id  model.NodeID
	hop int
}

// Expand performs spec.md §4.5.3's neighbor expansion algorithm from a
// set of seed ids over neighbors(id).
func Expand(seeds []model.NodeID, neighbors NeighborFunc, cfg ExpansionConfig) ExpansionResult {
	visited := make(map[model.NodeID]bool, len(seeds))
	result := ExpansionResult{HopDistance: map[model.NodeID]int{}, EdgeWeight: map[model.NodeID]float64{}}

	var frontier []frontierEntry
	for _, s := range seeds {
		if visited[s] {
			continue
		}
		visited[s] = true
		result.Order = append(result.Order, s)
		result.HopDistance[s] = 0
		frontier = append(frontier, frontierEntry{id: s, hop: 0})
	}

	added := 0
	for len(frontier) > 0 {
		if len(visited) >= cfg.MaxTotal {
			break
		}
		cur := frontier[0]
		frontier = frontier[1:]

		if cur.hop >= cfg.MaxExpansionHops {
			continue
		}

		for _, ne := range neighbors(cur.id) {
			if ne.Weight < cfg.MinEdgeWeight {
				continue
			}
			if visited[ne.ID] {
				continue
			}
			visited[ne.ID] = true
			result.Order = append(result.Order, ne.ID)
			result.HopDistance[ne.ID] = cur.hop + 1
			result.EdgeWeight[ne.ID] = ne.Weight
			added++
			if added < cfg.MaxExpandedNodes {
				frontier = append(frontier, frontierEntry{id: ne.ID, hop: cur.hop + 1})
			}
			if len(visited) >= cfg.MaxTotal {
				break
			}
		}
	}

	if len(result.Order) > cfg.MaxTotal {
		result.Order = result.Order[:cfg.MaxTotal]
	}
	return result
}

// TypeFilterNeighbors wraps a NeighborFunc so that only neighbors whose
// node type (as reported by lookup) is in types pass through; an empty
// types set passes everything ("typed expansion", spec.md §4.5.3).
func TypeFilterNeighbors(base NeighborFunc, lookup func(model.NodeID) (*model.Node, bool), types []model.NodeType) NeighborFunc {
	if len(types) == 0 {
		return base
	}
	allowed := make(map[model.NodeType]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	return func(id model.NodeID) []WeightedNeighbor {
		raw := base(id)
		out := raw[:0:0]
		for _, n := range raw {
			node, ok := lookup(n.ID)
			if ok && allowed[node.NodeType] {
				out = append(out, n)
			}
		}
		return out
	}
}
