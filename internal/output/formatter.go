package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/rohankatakam/ctag/internal/models"
	"github.com/rohankatakam/ctag/internal/tagging"
)

// Format selects how results are printed
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatAuto Format = "auto"
)

// ResolveFormat turns "auto" into text for terminals and JSON otherwise
func ResolveFormat(f Format, w io.Writer) (Format, error) {
	switch f {
	case FormatText, FormatJSON:
		return f, nil
	case FormatAuto, "":
		if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
			return FormatText, nil
		}
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or auto)", f)
	}
}

// WriteResults prints tagging results
func WriteResults(w io.Writer, f Format, results []models.TagResult) error {
	if f == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, r := range results {
		marker := ""
		if r.Cached {
			marker = " (cached)"
		}
		sha := r.SHA
		if len(sha) > 10 {
			sha = sha[:10]
		}
		if _, err := fmt.Fprintf(w, "%s %s%s\n", sha, r.Summary, marker); err != nil {
			return err
		}
		if len(r.Tags) == 0 {
			fmt.Fprintln(w, "    (no tags)")
			continue
		}
		fmt.Fprintf(w, "    %s\n", strings.Join(r.Tags, ", "))
	}
	return nil
}

// WriteTokens prints projectized tokens, one per line for text
func WriteTokens(w io.Writer, f Format, tokens []string) error {
	if f == FormatJSON {
		return json.NewEncoder(w).Encode(tokens)
	}
	for _, t := range tokens {
		if _, err := fmt.Fprintln(w, t); err != nil {
			return err
		}
	}
	return nil
}

type graphNode struct {
	Keyword   string   `json:"keyword"`
	Type      string   `json:"type"`
	Neighbors []string `json:"neighbors"`
}

// WriteGraph prints every node followed by its direct parents
func WriteGraph(w io.Writer, f Format, g *tagging.TagGraph) error {
	nodes := make([]graphNode, 0, g.Len())
	for _, n := range g.Nodes() {
		neighbors := g.Neighbors(n.Keyword)
		nodes = append(nodes, graphNode{Keyword: n.Keyword, Type: n.Type.String(), Neighbors: neighbors})
	}

	if f == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"fingerprint": g.Fingerprint(),
			"nodes":       nodes,
		})
	}

	for _, n := range nodes {
		if _, err := fmt.Fprintf(w, "%s [%s]\n\t%v\n", n.Keyword, n.Type, n.Neighbors); err != nil {
			return err
		}
	}
	return nil
}

// Summary returns the first line of a commit message
func Summary(message string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	return line
}
