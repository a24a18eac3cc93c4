package graphrag

import "sort"

// CompressionStrategy reduces a result set when it exceeds a token
// budget (spec.md §4.5.7).
type CompressionStrategy string

const (
	CompressNone           CompressionStrategy = "None"
	CompressDeduplicate    CompressionStrategy = "Deduplicate"
	CompressKeySentences   CompressionStrategy = "KeySentences"
	CompressClusterSummary CompressionStrategy = "ClusterSummary"
	CompressTopOnly        CompressionStrategy = "TopOnly"
)

// Compress applies strategy to results. KeySentences and
// ClusterSummary are named but not designed in the reference
// implementation; per spec.md they fall back to TopOnly.
func Compress(results []Result, strategy CompressionStrategy) []Result {
	switch strategy {
	case CompressDeduplicate:
		return deduplicateByPrefix(results)
	case CompressKeySentences, CompressClusterSummary, CompressTopOnly:
		return topHalf(results)
	default:
		return results
	}
}

// dedupKeyLen is the prefix length used to fingerprint near-duplicates.
const dedupKeyLen = 50

func deduplicateByPrefix(results []Result) []Result {
	seen := make(map[string]bool, len(results))
	out := results[:0:0]
	for _, r := range results {
		key := r.Node.Content
		if len(key) > dedupKeyLen {
			key = key[:dedupKeyLen]
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func topHalf(results []Result) []Result {
	sorted := append([]Result(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].FinalScore > sorted[j].FinalScore })
	half := (len(sorted) + 1) / 2
	return sorted[:half]
}
