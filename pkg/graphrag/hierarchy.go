package graphrag

import "github.com/orneryd/graphrag-core/pkg/model"

// SummaryLevel is one of three granularities a retrieval can be
// restricted to (spec.md §4.5.5), ordered coarsest-first.
type SummaryLevel string

const (
	LevelDocument  SummaryLevel = "Document"
	LevelParagraph SummaryLevel = "Paragraph"
	LevelSentence  SummaryLevel = "Sentence"
)

// eligibleTypes returns the node types selectable at level.
func eligibleTypes(level SummaryLevel) map[model.NodeType]bool {
	switch level {
	case LevelDocument:
		return map[model.NodeType]bool{model.NodeEntity: true, model.NodeConcept: true}
	case LevelParagraph:
		return map[model.NodeType]bool{model.NodeEntity: true, model.NodeConcept: true, model.NodeFact: true}
	default: // LevelSentence: all types
		return map[model.NodeType]bool{
			model.NodeEntity: true, model.NodeConcept: true, model.NodeFact: true, model.NodeRawChunk: true,
		}
	}
}

// FilterByLevel keeps only results whose node type is eligible at level.
func FilterByLevel(results []Result, level SummaryLevel) []Result {
	allowed := eligibleTypes(level)
	out := results[:0:0]
	for _, r := range results {
		if allowed[r.Node.NodeType] {
			out = append(out, r)
		}
	}
	return out
}

var levelOrder = []SummaryLevel{LevelDocument, LevelParagraph, LevelSentence}

func levelIndex(level SummaryLevel) int {
	for i, l := range levelOrder {
		if l == level {
			return i
		}
	}
	return len(levelOrder) - 1
}

func coarser(level SummaryLevel) SummaryLevel {
	i := levelIndex(level)
	if i == 0 {
		return level
	}
	return levelOrder[i-1]
}

func finer(level SummaryLevel) SummaryLevel {
	i := levelIndex(level)
	if i == len(levelOrder)-1 {
		return level
	}
	return levelOrder[i+1]
}

// AutoSelectLevel implements spec.md §4.5.5's auto-selection logic:
// coarsen if the estimated token count exceeds budget, refine if it's
// under a quarter of budget, and bias by query complexity.
func AutoSelectLevel(current SummaryLevel, estimatedTokens, budget int, complexity float64) SummaryLevel {
	next := current
	switch {
	case estimatedTokens > budget:
		next = coarser(current)
	case estimatedTokens < budget/4:
		next = finer(current)
	}
	switch {
	case complexity > 0.7:
		next = finer(next)
	case complexity < 0.3:
		next = coarser(next)
	}
	return next
}

// EstimateTokens approximates token count as content_chars / 4, the
// same heuristic the hybrid pipeline's size budget uses.
func EstimateTokens(results []Result) int {
	total := 0
	for _, r := range results {
		total += len(r.Node.Content) / 4
	}
	return total
}
