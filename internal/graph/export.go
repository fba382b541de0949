package graph

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/ctag/internal/tagging"
)

// Every exported node and edge is stamped with the catalog fingerprint;
// anything carrying another fingerprint afterwards belongs to an older catalog.
const (
	mergeKeywordsQuery = `
		UNWIND $nodes AS node
		MERGE (k:Keyword {name: node.name})
		SET k.type = node.type, k.catalog = $fingerprint
	`
	mergeEdgesQuery = `
		UNWIND $edges AS edge
		MATCH (c:Keyword {name: edge.child})
		MATCH (p:Keyword {name: edge.parent})
		MERGE (c)-[r:CHILD_OF]->(p)
		SET r.type = edge.type, r.catalog = $fingerprint
	`
	deleteStaleEdgesQuery = `
		MATCH (:Keyword)-[r:CHILD_OF]->(:Keyword)
		WHERE r.catalog IS NULL OR r.catalog <> $fingerprint
		DELETE r
	`
	deleteStaleKeywordsQuery = `
		MATCH (k:Keyword)
		WHERE k.catalog IS NULL OR k.catalog <> $fingerprint
		DETACH DELETE k
	`
)

// queryWriter runs one write query
type queryWriter interface {
	write(ctx context.Context, query string, params map[string]any) (writeSummary, error)
}

// ExportStats summarizes one export run
type ExportStats struct {
	Nodes        int
	Edges        int
	Removed      int64 // keywords of older catalogs
	RemovedEdges int64 // CHILD_OF edges of older catalogs
}

// Exporter mirrors a tag graph into Neo4j as (:Keyword)-[:CHILD_OF]->(:Keyword).
// Keywords and edges left over from an older catalog are deleted.
type Exporter struct {
	writer queryWriter
	config BatchConfig
	logger logrus.FieldLogger
}

// NewExporter creates an exporter writing through client
func NewExporter(client *Client, config BatchConfig) *Exporter {
	return &Exporter{writer: client, config: config, logger: client.logger}
}

// Params converts the graph into UNWIND parameters
func Params(g *tagging.TagGraph) (nodes, edges []map[string]any) {
	for _, n := range g.Nodes() {
		nodes = append(nodes, map[string]any{
			"name": n.Keyword,
			"type": n.Type.String(),
		})
	}
	for _, e := range g.Edges() {
		edges = append(edges, map[string]any{
			"child":  e.Child,
			"parent": e.Parent,
			"type":   e.Type.String(),
		})
	}
	return nodes, edges
}

// Export writes g and removes keywords and edges of other catalog snapshots
func (x *Exporter) Export(ctx context.Context, g *tagging.TagGraph) (*ExportStats, error) {
	nodes, edges := Params(g)
	fingerprint := g.Fingerprint()

	for _, b := range batches(len(nodes), x.config.NodeBatchSize) {
		if _, err := x.writer.write(ctx, mergeKeywordsQuery, map[string]any{
			"nodes":       nodes[b[0]:b[1]],
			"fingerprint": fingerprint,
		}); err != nil {
			return nil, fmt.Errorf("keyword batch %d-%d failed: %w", b[0], b[1], err)
		}
	}

	for _, b := range batches(len(edges), x.config.EdgeBatchSize) {
		if _, err := x.writer.write(ctx, mergeEdgesQuery, map[string]any{
			"edges":       edges[b[0]:b[1]],
			"fingerprint": fingerprint,
		}); err != nil {
			return nil, fmt.Errorf("edge batch %d-%d failed: %w", b[0], b[1], err)
		}
	}

	staleEdges, err := x.writer.write(ctx, deleteStaleEdgesQuery, map[string]any{"fingerprint": fingerprint})
	if err != nil {
		return nil, fmt.Errorf("removing stale edges failed: %w", err)
	}
	staleNodes, err := x.writer.write(ctx, deleteStaleKeywordsQuery, map[string]any{"fingerprint": fingerprint})
	if err != nil {
		return nil, fmt.Errorf("removing stale keywords failed: %w", err)
	}

	stats := &ExportStats{
		Nodes:        len(nodes),
		Edges:        len(edges),
		Removed:      int64(staleNodes.NodesDeleted),
		RemovedEdges: int64(staleEdges.RelationshipsDeleted),
	}
	x.logger.WithFields(logrus.Fields{
		"nodes":         stats.Nodes,
		"edges":         stats.Edges,
		"removed":       stats.Removed,
		"removed_edges": stats.RemovedEdges,
	}).Info("tag graph exported")
	return stats, nil
}
