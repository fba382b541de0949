package tagging

import (
	"strings"

	"github.com/rohankatakam/ctag/internal/models"
)

// Engine tags commits against one tag graph
type Engine struct {
	graph *TagGraph
}

// NewEngine creates an engine over a built graph
func NewEngine(graph *TagGraph) *Engine {
	return &Engine{graph: graph}
}

// Graph returns the graph the engine scans
func (e *Engine) Graph() *TagGraph {
	return e.graph
}

// Tag scans the log, paths and diff fragments for every keyword in the graph.
// The log and paths are lower-cased here; diff fragments are expected to be
// normalized by the caller.
//
// Each keyword is checked against the log first and against the diff only
// when the log did not match. Paths are skipped for APICALL keywords and for
// keywords already tagged.
func (e *Engine) Tag(logText string, paths, diffs []string) (TagSet, error) {
	log := strings.ToLower(logText)
	paddedLog := " " + log

	lowerPaths := make([]string, len(paths))
	paddedPaths := make([]string, len(paths))
	for i, p := range paths {
		lowerPaths[i] = strings.ToLower(p)
		paddedPaths[i] = " " + lowerPaths[i]
	}

	paddedDiffs := make([]string, len(diffs))
	for i, d := range diffs {
		paddedDiffs[i] = " " + d
	}

	tags := make(TagSet)

	apply := func(n *Node) error {
		if n.Type != models.KeywordAPICall {
			tags.Add(n.Keyword)
		}
		ancestors, err := e.graph.Ancestors(n.Keyword)
		if err != nil {
			return err
		}
		tags.AddAll(ancestors)
		return nil
	}

	for _, n := range e.graph.Nodes() {
		if n.Type == models.KeywordMapping {
			continue
		}
		k := n.Keyword

		// substring pre-check; the matcher is authoritative
		if strings.Contains(log, k) && n.Matcher.Match(paddedLog) {
			if err := apply(n); err != nil {
				return nil, err
			}
		} else {
			for i, d := range diffs {
				if strings.Contains(d, k) && n.Matcher.Match(paddedDiffs[i]) {
					if err := apply(n); err != nil {
						return nil, err
					}
					break
				}
			}
		}

		if n.Type == models.KeywordAPICall {
			continue
		}

		for i, p := range lowerPaths {
			if !tags.Has(k) && strings.Contains(p, k) && n.Matcher.Match(paddedPaths[i]) {
				if err := apply(n); err != nil {
					return nil, err
				}
			}
		}
	}

	return tags, nil
}

// GetTags tags a commit's message and files together with its diff fragments
func (e *Engine) GetTags(commit *models.Commit, diffs []string) (TagSet, error) {
	if commit == nil {
		return e.Tag("", nil, diffs)
	}
	return e.Tag(commit.Message, commit.Files, diffs)
}

// Projectize rewrites every token that has a "project-<token>" node into
// that qualified name. The input slice is not modified.
func (e *Engine) Projectize(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		if e.graph.HasNode(ProjectPrefix + t) {
			out[i] = ProjectPrefix + t
		} else {
			out[i] = t
		}
	}
	return out
}
