package graphrag

import (
	"errors"
	"sort"

	"github.com/orneryd/graphrag-core/pkg/graphengine"
	"github.com/orneryd/graphrag-core/pkg/model"
	"github.com/orneryd/graphrag-core/pkg/vectorindex"
)

// GraphSource is the narrow view of a graph engine the retrieval
// pipeline needs: node lookup and bounded BFS. graphengine.Graph
// satisfies this directly.
type GraphSource interface {
	GetNode(id model.NodeID) (*model.Node, error)
	NodeExists(id model.NodeID) bool
	BFS(start model.NodeID, cfg graphengine.TraversalConfig) (graphengine.TraversalResult, error)
	Edges(id model.NodeID, dir graphengine.Direction) []*model.Edge
}

// VectorSource is the narrow view of a vector index the retrieval
// pipeline needs. vectorindex.Index satisfies this directly.
type VectorSource interface {
	Search(query []float32, k int) ([]vectorindex.SearchResult, error)
	Dimension() int
}

// Engine executes retrieval over a graph source and a vector source.
type Engine struct {
	Graph  GraphSource
	Vector VectorSource
}

// New creates a retrieval engine bound to the given backends.
func New(graph GraphSource, vector VectorSource) *Engine {
	return &Engine{Graph: graph, Vector: vector}
}

func classify(err error, fallback error) error {
	if err == nil {
		return nil
	}
	var dimErr *vectorindex.InvalidDimensionError
	if errors.As(err, &dimErr) {
		return ErrDimensionMismatch
	}
	return fallback
}

// Retrieve executes a retrieval call per cfg.Mode.
func (e *Engine) Retrieve(queryEmbedding []float32, seeds []model.NodeID, cfg RetrievalConfig) (RetrievalResult, error) {
	switch cfg.Mode {
	case VectorOnly:
		return e.vectorOnly(queryEmbedding, cfg)
	case GraphOnly:
		return e.graphOnly(seeds, cfg)
	default:
		return e.hybrid(queryEmbedding, seeds, cfg)
	}
}

func (e *Engine) vectorOnly(queryEmbedding []float32, cfg RetrievalConfig) (RetrievalResult, error) {
	hits, err := e.Vector.Search(queryEmbedding, cfg.MaxVectorResults)
	if err != nil {
		return RetrievalResult{}, classify(err, ErrVectorBackend)
	}
	var out []Result
	for _, h := range hits {
		node, err := e.Graph.GetNode(h.ID)
		if err != nil {
			continue
		}
		out = append(out, Result{
			Node:             node,
			VectorSimilarity: h.Similarity,
			IsDirectMatch:    true,
			FinalScore:       finalScore(cfg, h.Similarity, 0, false),
		})
	}
	return finalizeResults(out, cfg), nil
}

func (e *Engine) graphOnly(seeds []model.NodeID, cfg RetrievalConfig) (RetrievalResult, error) {
	if len(seeds) == 0 {
		return RetrievalResult{}, ErrStartNodeMissing
	}
	for _, s := range seeds {
		if !e.Graph.NodeExists(s) {
			return RetrievalResult{}, ErrStartNodeMissing
		}
	}

	seen := map[model.NodeID]int{}
	for _, s := range seeds {
		seen[s] = 0
	}
	var out []Result
	for _, s := range seeds {
		node, err := e.Graph.GetNode(s)
		if err != nil {
			return RetrievalResult{}, ErrGraphBackend
		}
		out = append(out, Result{Node: node, HopDistance: 0, FinalScore: finalScore(cfg, 0, 0, true)})
	}

	for _, s := range seeds {
		res, err := e.Graph.BFS(s, graphengine.TraversalConfig{
			MaxDepth: cfg.MaxHops, MaxNodes: cfg.MaxGraphResults, Direction: graphengine.Both, AvoidCycles: true,
		})
		if err != nil {
			return RetrievalResult{}, ErrGraphBackend
		}
		for _, n := range res.Nodes {
			if _, already := seen[n.ID]; already {
				continue
			}
			seen[n.ID] = 1
			out = append(out, Result{Node: n, HopDistance: 1, FinalScore: finalScore(cfg, 0, 1, true)})
		}
	}

	return finalizeResults(out, cfg), nil
}

func (e *Engine) hybrid(queryEmbedding []float32, seeds []model.NodeID, cfg RetrievalConfig) (RetrievalResult, error) {
	// 1. Vector pass: direct matches with sim > 0.5, truncated to top_k.
	hits, err := e.Vector.Search(queryEmbedding, cfg.MaxVectorResults)
	if err != nil {
		return RetrievalResult{}, classify(err, ErrVectorBackend)
	}

	var direct []Result
	anchors := make([]model.NodeID, 0, 5)
	for _, h := range hits {
		if h.Similarity <= 0.5 {
			continue
		}
		node, err := e.Graph.GetNode(h.ID)
		if err != nil {
			continue
		}
		direct = append(direct, Result{
			Node: node, VectorSimilarity: h.Similarity, IsDirectMatch: true,
			FinalScore: finalScore(cfg, h.Similarity, 0, false),
		})
		if len(anchors) < 5 {
			anchors = append(anchors, h.ID)
		}
	}

	// 2. Graph expansion from up to the top-5 anchors, both directions.
	visited := map[model.NodeID]bool{}
	for _, r := range direct {
		visited[r.Node.ID] = true
	}
	var expanded []Result
	for _, a := range anchors {
		res, err := e.Graph.BFS(a, graphengine.TraversalConfig{
			MaxDepth: cfg.MaxHops, MaxNodes: cfg.MaxGraphResults, Direction: graphengine.Both, AvoidCycles: true,
		})
		if err != nil {
			continue
		}
		for _, n := range res.Nodes {
			if visited[n.ID] {
				continue
			}
			visited[n.ID] = true
			// hop_distance = 1 for all newly-visited nodes, per
			// spec.md's documented simplification.
			expanded = append(expanded, Result{Node: n, HopDistance: 1, FinalScore: finalScore(cfg, 0, 1, true)})
		}
	}

	all := append(direct, expanded...)
	return finalizeResults(all, cfg), nil
}

// finalizeResults applies step 3 (stable sort descending, dedup
// first-occurrence-wins) and step 4 (token-budget truncation) of the
// hybrid pipeline (spec.md §4.5.4); vectorOnly/graphOnly share the same
// merge/truncate tail.
func finalizeResults(results []Result, cfg RetrievalConfig) RetrievalResult {
	sort.SliceStable(results, func(i, j int) bool { return results[i].FinalScore > results[j].FinalScore })

	seen := make(map[model.NodeID]bool, len(results))
	deduped := results[:0:0]
	for _, r := range results {
		if seen[r.Node.ID] {
			continue
		}
		seen[r.Node.ID] = true
		if r.FinalScore < cfg.MinRelevance {
			continue
		}
		deduped = append(deduped, r)
	}

	totalFound := len(deduped)
	var budgetUsed int
	truncated := false
	var out []Result
	for _, r := range deduped {
		estTokens := len(r.Node.Content) / 4
		if cfg.MaxContextSize > 0 && budgetUsed+estTokens > cfg.MaxContextSize {
			truncated = true
			break
		}
		budgetUsed += estTokens
		out = append(out, r)
	}

	return RetrievalResult{Results: out, Truncated: truncated, TotalFound: totalFound}
}
