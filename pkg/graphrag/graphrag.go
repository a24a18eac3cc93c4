// Package graphrag combines vector similarity and graph proximity into
// a single ranked, bounded, optionally-compressed retrieval result: the
// hybrid pipeline, neighbor expansion, hierarchical selection, result
// formatting, and compression strategies.
//
// Shaped on the teacher's pkg/search/search.go pipeline structure only
// (vector pass -> secondary pass -> merge -> truncate); the re-rank
// math is this package's own alpha*similarity + beta*hop_penalty
// formula, not the teacher's RRF reciprocal-rank fusion.
package graphrag

import (
	"errors"

	"github.com/orneryd/graphrag-core/pkg/model"
)

// Mode selects a retrieval strategy.
type Mode string

const (
	VectorOnly Mode = "VectorOnly"
	GraphOnly  Mode = "GraphOnly"
	Hybrid     Mode = "Hybrid"
)

// Failure taxonomy (spec.md §4.5.9): every retrieval error reduces to
// one of these five kinds.
var (
	ErrVectorBackend    = errors.New("graphrag: vector backend error")
	ErrGraphBackend     = errors.New("graphrag: graph backend error")
	ErrDimensionMismatch = errors.New("graphrag: dimension mismatch")
	ErrStartNodeMissing = errors.New("graphrag: start node missing")
	ErrInternal         = errors.New("graphrag: internal error")
)

// RetrievalConfig configures a retrieval call (spec.md §4.5.8).
type RetrievalConfig struct {
	Mode            Mode
	MaxVectorResults int
	MaxGraphResults  int
	MaxHops          int
	MinRelevance     float64
	Deduplicate      bool
	MaxContextSize   int

	// Scoring weights (spec.md §4.5.2).
	Alpha    float64
	Beta     float64
	HopDecay float64
}

// DefaultRetrievalConfig returns the documented defaults.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		Mode:             Hybrid,
		MaxVectorResults: 10,
		MaxGraphResults:  20,
		MaxHops:          2,
		MinRelevance:     0.5,
		Deduplicate:      true,
		MaxContextSize:   4096,
		Alpha:            0.7,
		Beta:             0.3,
		HopDecay:         0.1,
	}
}

// Result is a single scored, retrieved node.
type Result struct {
	Node              *model.Node
	VectorSimilarity  float64
	HopDistance       int
	IsDirectMatch     bool
	FinalScore        float64
}

// RetrievalResult is the output of a retrieval call.
type RetrievalResult struct {
	Results    []Result
	Truncated  bool
	TotalFound int
}

// hopPenalty computes (1 - hopDecay)^hopDistance.
func hopPenalty(hopDecay float64, hopDistance int) float64 {
	penalty := 1.0
	factor := 1.0 - hopDecay
	for i := 0; i < hopDistance; i++ {
		penalty *= factor
	}
	return penalty
}

// finalScore computes the composite score for a single result (spec.md
// §4.5.2): for a pure vector match final = alpha * similarity; for a
// pure graph match final = beta * hopPenalty; for a node reached by
// both, the two terms add.
func finalScore(cfg RetrievalConfig, similarity float64, hopDistance int, hasGraphComponent bool) float64 {
	score := cfg.Alpha * similarity
	if hasGraphComponent {
		score += cfg.Beta * hopPenalty(cfg.HopDecay, hopDistance)
	}
	return score
}
