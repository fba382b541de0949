package graph

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/ctag/internal/logging"
	"github.com/rohankatakam/ctag/internal/models"
	"github.com/rohankatakam/ctag/internal/tagging"
)

func TestParams(t *testing.T) {
	g, err := tagging.Build([]models.KeywordRow{
		{Keyword: "requests.get", Parent: "requests", Type: models.KeywordAPICall},
	}, []string{"myproj"})
	require.NoError(t, err)

	nodes, edges := Params(g)

	require.Len(t, nodes, 4)
	assert.Equal(t, map[string]any{"name": "requests.get", "type": "apicall"}, nodes[0])
	assert.Equal(t, map[string]any{"name": "requests", "type": "standard"}, nodes[1])

	require.Len(t, edges, 2)
	assert.Equal(t, map[string]any{"child": "requests.get", "parent": "requests", "type": "apicall"}, edges[0])
	assert.Equal(t, map[string]any{"child": "myproj", "parent": "project-myproj", "type": "apicall"}, edges[1])
}

func TestBatches(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 2}, {2, 4}, {4, 5}}, batches(5, 2))
	assert.Equal(t, [][2]int{{0, 3}}, batches(3, 0))
	assert.Empty(t, batches(0, 10))
}

// memoryStore applies the exporter's queries to an in-memory keyword graph
type memoryStore struct {
	nodes   map[string]string    // name -> catalog
	edges   map[[2]string]string // child, parent -> catalog
	queries []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{nodes: map[string]string{}, edges: map[[2]string]string{}}
}

func (m *memoryStore) write(ctx context.Context, query string, params map[string]any) (writeSummary, error) {
	m.queries = append(m.queries, query)
	fp, _ := params["fingerprint"].(string)

	var summary writeSummary
	switch query {
	case mergeKeywordsQuery:
		for _, n := range params["nodes"].([]map[string]any) {
			m.nodes[n["name"].(string)] = fp
		}
	case mergeEdgesQuery:
		for _, e := range params["edges"].([]map[string]any) {
			child, parent := e["child"].(string), e["parent"].(string)
			if _, ok := m.nodes[child]; !ok {
				continue
			}
			if _, ok := m.nodes[parent]; !ok {
				continue
			}
			m.edges[[2]string{child, parent}] = fp
		}
	case deleteStaleEdgesQuery:
		for k, catalog := range m.edges {
			if catalog != fp {
				delete(m.edges, k)
				summary.RelationshipsDeleted++
			}
		}
	case deleteStaleKeywordsQuery:
		for name, catalog := range m.nodes {
			if catalog == fp {
				continue
			}
			delete(m.nodes, name)
			summary.NodesDeleted++
			for k := range m.edges {
				if k[0] == name || k[1] == name {
					delete(m.edges, k)
					summary.RelationshipsDeleted++
				}
			}
		}
	default:
		return summary, fmt.Errorf("unexpected query %q", query)
	}
	return summary, nil
}

func (m *memoryStore) edgeSet() [][2]string {
	var out [][2]string
	for k := range m.edges {
		out = append(out, k)
	}
	return out
}

func buildGraph(t *testing.T, rows ...models.KeywordRow) *tagging.TagGraph {
	g, err := tagging.Build(rows, nil)
	require.NoError(t, err)
	return g
}

func TestExport_RemovesEdgesOfOlderCatalogs(t *testing.T) {
	store := newMemoryStore()
	x := &Exporter{writer: store, config: DefaultBatchConfig(), logger: logging.Discard()}
	ctx := context.Background()

	v1 := buildGraph(t, models.KeywordRow{Keyword: "a", Parent: "b", Type: models.KeywordStandard})
	stats, err := x.Export(ctx, v1)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Nodes)
	assert.Equal(t, 1, stats.Edges)
	assert.ElementsMatch(t, [][2]string{{"a", "b"}}, store.edgeSet())

	// b stays in the catalog but a now points at c
	v2 := buildGraph(t,
		models.KeywordRow{Keyword: "a", Parent: "c", Type: models.KeywordStandard},
		models.KeywordRow{Keyword: "b", Type: models.KeywordStandard},
	)
	stats, err = x.Export(ctx, v2)
	require.NoError(t, err)

	assert.ElementsMatch(t, [][2]string{{"a", "c"}}, store.edgeSet())
	assert.Len(t, store.nodes, 3)
	assert.Equal(t, int64(1), stats.RemovedEdges)
	assert.Equal(t, int64(0), stats.Removed)
}

func TestExport_RemovesKeywordsOfOlderCatalogs(t *testing.T) {
	store := newMemoryStore()
	x := &Exporter{writer: store, config: DefaultBatchConfig(), logger: logging.Discard()}
	ctx := context.Background()

	_, err := x.Export(ctx, buildGraph(t, models.KeywordRow{Keyword: "a", Parent: "b", Type: models.KeywordStandard}))
	require.NoError(t, err)

	v2 := buildGraph(t, models.KeywordRow{Keyword: "a", Type: models.KeywordStandard})
	stats, err := x.Export(ctx, v2)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"a": v2.Fingerprint()}, store.nodes)
	assert.Empty(t, store.edges)
	assert.Equal(t, int64(1), stats.Removed)
	assert.Equal(t, int64(1), stats.RemovedEdges)
}

func TestExport_BatchesAndOrder(t *testing.T) {
	store := newMemoryStore()
	x := &Exporter{writer: store, config: BatchConfig{NodeBatchSize: 1, EdgeBatchSize: 1}, logger: logging.Discard()}

	g := buildGraph(t,
		models.KeywordRow{Keyword: "a", Parent: "b", Type: models.KeywordStandard},
		models.KeywordRow{Keyword: "b", Parent: "c", Type: models.KeywordStandard},
	)
	_, err := x.Export(context.Background(), g)
	require.NoError(t, err)

	assert.Equal(t, []string{
		mergeKeywordsQuery, mergeKeywordsQuery, mergeKeywordsQuery,
		mergeEdgesQuery, mergeEdgesQuery,
		deleteStaleEdgesQuery, deleteStaleKeywordsQuery,
	}, store.queries)
}
