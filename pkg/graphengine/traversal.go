package graphengine

import "github.com/orneryd/graphrag-core/pkg/model"

// TraversalConfig bounds and filters a BFS/DFS run.
type TraversalConfig struct {
	MaxDepth       int
	MaxNodes       int
	Direction      Direction
	RelationFilter []model.RelationType // empty = all
	AvoidCycles    bool                 // default true
	IncludeStart   bool                 // default false
}

// DefaultTraversalConfig returns the documented defaults.
func DefaultTraversalConfig() TraversalConfig {
	return TraversalConfig{
		MaxDepth:    3,
		MaxNodes:    100,
		Direction:   Forward,
		AvoidCycles: true,
	}
}

// TraversalResult is the output of BFS/DFS: the nodes visited (subject
// to IncludeStart) and the depth of the deepest expanded frontier.
type TraversalResult struct {
	Nodes []*model.Node
	Depth int
}

type queueEntry struct {
	id    model.NodeID
	depth int
}

// BFS performs a breadth-first traversal from start.
//
// Semantics (spec.md §4.2, Scenario 2):
//  1. visited := {start}; if IncludeStart, start is appended to result.
//  2. enqueue (start, 0).
//  3. while queue non-empty and len(result) < MaxNodes:
//     dequeue (u, d); if d >= MaxDepth, don't expand u;
//     else enumerate neighbors of u in Direction, insertion order;
//     for each unvisited neighbor v: mark visited, append, enqueue (v, d+1).
//  4. Depth reported is the deepest *expanded* frontier, not deepest added node.
//  5. MaxNodes is checked at dequeue time only: a single BFS level may
//     overshoot by up to one full frontier. This is intentional — see
//     Scenario 2 — and must not be "fixed" to cut mid-frontier.
func (g *Graph) BFS(start model.NodeID, cfg TraversalConfig) (TraversalResult, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[start]; !ok {
		return TraversalResult{}, ErrNodeNotFound
	}

	visited := map[model.NodeID]bool{start: true}
	var result []*model.Node
	if cfg.IncludeStart {
		result = append(result, g.nodes[start].Clone())
	}

	queue := []queueEntry{{id: start, depth: 0}}
	maxExpandedDepth := 0

	for len(queue) > 0 && len(result) < cfg.MaxNodes {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= cfg.MaxDepth {
			continue
		}
		maxExpandedDepth = cur.depth + 1

		for _, ne := range g.filteredNeighbors(cur.id, cfg) {
			if cfg.AvoidCycles && visited[ne.id] {
				continue
			}
			visited[ne.id] = true
			if n, ok := g.nodes[ne.id]; ok {
				result = append(result, n.Clone())
			}
			queue = append(queue, queueEntry{id: ne.id, depth: cur.depth + 1})
		}
	}

	return TraversalResult{Nodes: result, Depth: maxExpandedDepth}, nil
}

type stackEntry struct {
	id    model.NodeID
	depth int
}

// DFS performs an iterative depth-first traversal from start using an
// explicit stack. Neighbors are pushed in reverse order so popping
// yields insertion order, matching the teacher's apoc/path expansion
// shape but over adjacency maps instead of storage round-trips.
func (g *Graph) DFS(start model.NodeID, cfg TraversalConfig) (TraversalResult, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[start]; !ok {
		return TraversalResult{}, ErrNodeNotFound
	}

	visited := map[model.NodeID]bool{start: true}
	var result []*model.Node
	if cfg.IncludeStart {
		result = append(result, g.nodes[start].Clone())
	}

	stack := []stackEntry{{id: start, depth: 0}}
	maxExpandedDepth := 0

	for len(stack) > 0 && len(result) < cfg.MaxNodes {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur.depth >= cfg.MaxDepth {
			continue
		}
		maxExpandedDepth = cur.depth + 1

		neighbors := g.filteredNeighbors(cur.id, cfg)
		// Push in reverse so popping restores insertion order.
		for i := len(neighbors) - 1; i >= 0; i-- {
			ne := neighbors[i]
			if cfg.AvoidCycles && visited[ne.id] {
				continue
			}
			visited[ne.id] = true
			if n, ok := g.nodes[ne.id]; ok {
				result = append(result, n.Clone())
			}
			stack = append(stack, stackEntry{id: ne.id, depth: cur.depth + 1})
			if len(result) >= cfg.MaxNodes {
				break
			}
		}
	}

	return TraversalResult{Nodes: result, Depth: maxExpandedDepth}, nil
}

// ShortestPath finds an unweighted shortest path from -> to, bounded by
// maxDepth hops, via BFS with predecessor tracking. Returns (nil, nil)
// when to is unreachable within maxDepth.
func (g *Graph) ShortestPath(from, to model.NodeID, maxDepth int) ([]*model.Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[from]; !ok {
		return nil, ErrNodeNotFound
	}
	if _, ok := g.nodes[to]; !ok {
		return nil, ErrNodeNotFound
	}
	if from == to {
		return []*model.Node{g.nodes[from].Clone()}, nil
	}

	predecessor := map[model.NodeID]model.NodeID{}
	visited := map[model.NodeID]bool{from: true}
	queue := []queueEntry{{id: from, depth: 0}}

	cfg := TraversalConfig{Direction: Forward}
	found := false
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= maxDepth {
			continue
		}

		for _, ne := range g.filteredNeighbors(cur.id, cfg) {
			if visited[ne.id] {
				continue
			}
			visited[ne.id] = true
			predecessor[ne.id] = cur.id
			if ne.id == to {
				found = true
				break
			}
			queue = append(queue, queueEntry{id: ne.id, depth: cur.depth + 1})
		}
		if found {
			break
		}
	}

	if !found {
		return nil, nil
	}

	// Reconstruct source-to-target.
	var reversed []model.NodeID
	cur := to
	for cur != from {
		reversed = append(reversed, cur)
		cur = predecessor[cur]
	}
	reversed = append(reversed, from)

	path := make([]*model.Node, len(reversed))
	for i, id := range reversed {
		path[len(reversed)-1-i] = g.nodes[id].Clone()
	}
	return path, nil
}
