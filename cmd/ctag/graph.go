package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/ctag/internal/config"
	"github.com/rohankatakam/ctag/internal/graph"
	"github.com/rohankatakam/ctag/internal/output"
	"github.com/rohankatakam/ctag/internal/tagging"
)

var (
	graphExportNeo4j bool
	graphAncestorsOf string
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Show the tag graph built from the catalog",
	Long: `Build the tag graph and print every keyword with its direct parents.

--ancestors prints the transitive parents of one keyword instead.
--export-neo4j mirrors the graph into the configured Neo4j database.`,
	RunE: runGraph,
}

func init() {
	graphCmd.Flags().BoolVar(&graphExportNeo4j, "export-neo4j", false, "write the graph to Neo4j")
	graphCmd.Flags().StringVar(&graphAncestorsOf, "ancestors", "", "print the ancestors of this keyword")
}

func runGraph(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	vctx := config.ValidationContextGraph
	if graphExportNeo4j {
		vctx = config.ValidationContextExport
	}
	svc, store, err := openService(ctx, vctx)
	if err != nil {
		return err
	}
	defer store.Close()

	g, err := svc.BuildGraph(ctx)
	if err != nil {
		return err
	}

	if graphExportNeo4j {
		client, err := graph.NewClient(ctx, cfg.Neo4j, logger)
		if err != nil {
			return err
		}
		defer client.Close(ctx)

		stats, err := graph.NewExporter(client, graph.DefaultBatchConfig()).Export(ctx, g)
		if err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{
			"nodes":         stats.Nodes,
			"edges":         stats.Edges,
			"removed":       stats.Removed,
			"removed_edges": stats.RemovedEdges,
		}).Info("graph exported to neo4j")
		return nil
	}

	if graphAncestorsOf != "" {
		ancestors, err := keywordAncestors(g, graphAncestorsOf)
		if err != nil {
			return err
		}
		return output.WriteTokens(os.Stdout, format(), ancestors)
	}

	return output.WriteGraph(os.Stdout, format(), g)
}

// keywordAncestors returns the sorted ancestors of a user-supplied keyword
func keywordAncestors(g *tagging.TagGraph, keyword string) ([]string, error) {
	k := strings.ToLower(strings.TrimSpace(keyword))
	if !g.HasNode(k) {
		return nil, fmt.Errorf("unknown keyword %q", keyword)
	}
	ancestors, err := g.Ancestors(k)
	if err != nil {
		return nil, err
	}
	return ancestors.Sorted(), nil
}
