package tagging

import (
	"sort"

	"github.com/rohankatakam/ctag/internal/errors"
	"github.com/rohankatakam/ctag/internal/models"
)

// ProjectPrefix qualifies project tags
const ProjectPrefix = "project-"

// Node is a keyword in the tag graph
type Node struct {
	Keyword string
	Type    models.KeywordType
	Matcher Matcher

	// declared is false for parents created implicitly by an edge
	declared bool
}

// Edge points from a child keyword to its parent, labeled with the child's type
type Edge struct {
	Child  string             `json:"child"`
	Parent string             `json:"parent"`
	Type   models.KeywordType `json:"type"`
}

// TagGraph is the keyword hierarchy. It is only mutated while being built.
type TagGraph struct {
	nodes       map[string]*Node
	order       []string
	parents     map[string][]Edge
	edgeCount   int
	fingerprint string
}

func newTagGraph() *TagGraph {
	return &TagGraph{
		nodes:   make(map[string]*Node),
		parents: make(map[string][]Edge),
	}
}

// addNode inserts a node unless one already exists; the existing node is
// returned with added=false in that case.
func (g *TagGraph) addNode(node *Node) (existing *Node, added bool) {
	if n, ok := g.nodes[node.Keyword]; ok {
		return n, false
	}
	g.nodes[node.Keyword] = node
	g.order = append(g.order, node.Keyword)
	return node, true
}

// addEdge links child to parent. Both nodes must exist. Duplicate edges are
// ignored and reported with added=false.
func (g *TagGraph) addEdge(child, parent string, t models.KeywordType) (bool, error) {
	if _, ok := g.nodes[child]; !ok {
		return false, errors.InvariantViolationf("edge %q -> %q: child node missing", child, parent)
	}
	if _, ok := g.nodes[parent]; !ok {
		return false, errors.InvariantViolationf("edge %q -> %q: parent node missing", child, parent)
	}
	for _, e := range g.parents[child] {
		if e.Parent == parent {
			return false, nil
		}
	}
	g.parents[child] = append(g.parents[child], Edge{Child: child, Parent: parent, Type: t})
	g.edgeCount++
	return true, nil
}

// Node returns the node for keyword
func (g *TagGraph) Node(keyword string) (*Node, bool) {
	n, ok := g.nodes[keyword]
	return n, ok
}

// HasNode reports whether keyword is a node
func (g *TagGraph) HasNode(keyword string) bool {
	_, ok := g.nodes[keyword]
	return ok
}

// Nodes returns every node in insertion order
func (g *TagGraph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, k := range g.order {
		nodes = append(nodes, g.nodes[k])
	}
	return nodes
}

// Neighbors returns the direct parents of keyword
func (g *TagGraph) Neighbors(keyword string) []string {
	edges := g.parents[keyword]
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.Parent)
	}
	return out
}

// Edges returns every edge, grouped by child in node insertion order
func (g *TagGraph) Edges() []Edge {
	edges := make([]Edge, 0, g.edgeCount)
	for _, k := range g.order {
		edges = append(edges, g.parents[k]...)
	}
	return edges
}

// Len is the number of nodes
func (g *TagGraph) Len() int { return len(g.order) }

// EdgeCount is the number of edges
func (g *TagGraph) EdgeCount() int { return g.edgeCount }

// Fingerprint identifies the catalog snapshot the graph was built from
func (g *TagGraph) Fingerprint() string { return g.fingerprint }

// Ancestors returns every keyword reachable from keyword through parent
// edges, excluding keyword itself. A keyword is never visited twice, so the
// walk terminates on cyclic catalogs.
func (g *TagGraph) Ancestors(keyword string) (TagSet, error) {
	if _, ok := g.nodes[keyword]; !ok {
		return nil, errors.InvariantViolationf("ancestors of unknown node %q", keyword)
	}

	result := make(TagSet)
	visited := map[string]bool{keyword: true}
	stack := []string{keyword}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, e := range g.parents[current] {
			if visited[e.Parent] {
				continue
			}
			if _, ok := g.nodes[e.Parent]; !ok {
				return nil, errors.InvariantViolationf("edge %q -> %q points at a missing node", current, e.Parent)
			}
			visited[e.Parent] = true
			result.Add(e.Parent)
			stack = append(stack, e.Parent)
		}
	}

	return result, nil
}

// TagSet is an unordered set of tags
type TagSet map[string]struct{}

// NewTagSet builds a set from tags
func NewTagSet(tags ...string) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s.Add(t)
	}
	return s
}

// Add inserts tag into s
func (s TagSet) Add(tag string) { s[tag] = struct{}{} }

// Has reports whether tag is in s
func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// AddAll merges other into s
func (s TagSet) AddAll(other TagSet) {
	for t := range other {
		s[t] = struct{}{}
	}
}

// Sorted returns the tags in lexical order
func (s TagSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
