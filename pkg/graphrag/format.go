package graphrag

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatStyle selects one of the five deterministic output formatters
// (spec.md §4.5.6).
type FormatStyle string

const (
	FormatFlat       FormatStyle = "Flat"
	FormatStructured FormatStyle = "Structured"
	FormatMarkdown   FormatStyle = "Markdown"
	FormatJSON       FormatStyle = "Json"
	FormatCompact    FormatStyle = "Compact"
)

// FormatConfig controls optional fields the Structured/Markdown
// formatters include, and whether the Json formatter pretty-prints.
type FormatConfig struct {
	IncludeScore       bool
	IncludeType        bool
	IncludeHopDistance bool
	PrettyJSON         bool
}

// Format renders results per style. All five formatters are pure
// functions of (results, config) — no hidden state, no I/O.
func Format(results []Result, style FormatStyle, cfg FormatConfig) (string, error) {
	switch style {
	case FormatFlat:
		return formatFlat(results), nil
	case FormatStructured:
		return formatStructured(results, cfg), nil
	case FormatMarkdown:
		return formatMarkdown(results, cfg), nil
	case FormatJSON:
		return formatJSON(results, cfg)
	case FormatCompact:
		return formatCompact(results), nil
	default:
		return "", fmt.Errorf("graphrag: unknown format style %q", style)
	}
}

func formatFlat(results []Result) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Node.Content
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func formatStructured(results []Result, cfg FormatConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Retrieved %d result(s)\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "[%d]", i+1)
		if cfg.IncludeScore {
			fmt.Fprintf(&b, " score=%.4f", r.FinalScore)
		}
		if cfg.IncludeType {
			fmt.Fprintf(&b, " type=%s", r.Node.NodeType)
		}
		if cfg.IncludeHopDistance {
			fmt.Fprintf(&b, " hop=%d", r.HopDistance)
		}
		b.WriteString("\n")
		b.WriteString(r.Node.Content)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatMarkdown(results []Result, cfg FormatConfig) string {
	var b strings.Builder
	b.WriteString("# Retrieved Context\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, r.Node.NodeType)
		if cfg.IncludeScore {
			fmt.Fprintf(&b, "**Relevance:** %.4f\n\n", r.FinalScore)
		}
		b.WriteString(r.Node.Content)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

type jsonResult struct {
	ID          string  `json:"id"`
	Content     string  `json:"content"`
	NodeType    string  `json:"node_type"`
	Score       float64 `json:"score"`
	HopDistance int     `json:"hop_distance"`
}

func formatJSON(results []Result, cfg FormatConfig) (string, error) {
	out := make([]jsonResult, len(results))
	for i, r := range results {
		out[i] = jsonResult{
			ID:          r.Node.ID.String(),
			Content:     r.Node.Content,
			NodeType:    string(r.Node.NodeType),
			Score:       r.FinalScore,
			HopDistance: r.HopDistance,
		}
	}
	var data []byte
	var err error
	if cfg.PrettyJSON {
		data, err = json.MarshalIndent(out, "", "  ")
	} else {
		data, err = json.Marshal(out)
	}
	if err != nil {
		return "", fmt.Errorf("graphrag: format json: %w", err)
	}
	return string(data), nil
}

func formatCompact(results []Result) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Node.Content
	}
	return strings.Join(parts, " ")
}
