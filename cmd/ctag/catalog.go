package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/ctag/internal/catalog"
	"github.com/rohankatakam/ctag/internal/config"
	"github.com/rohankatakam/ctag/internal/tagging"
)

var catalogDryRun bool

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the keyword catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Append keywords and projects from a YAML file to the catalog",
	Long: `Import a YAML catalog document into the configured store:

  projects: [myproj]
  keywords:
    - keyword: requests.get
      parent: requests
      type: apicall

The document is checked by building a tag graph from it before anything is
written. Use --dry-run to only run that check.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogImport,
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the catalog as YAML",
	RunE:  runCatalogShow,
}

func init() {
	catalogImportCmd.Flags().BoolVar(&catalogDryRun, "dry-run", false, "validate the file without importing")
	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogShowCmd)
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	doc, err := catalog.ReadDocument(args[0])
	if err != nil {
		return err
	}

	g, err := tagging.Build(doc.Keywords, doc.Projects,
		tagging.WithStrict(cfg.Catalog.Strict),
		tagging.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("catalog file %s is invalid: %w", args[0], err)
	}

	fields := logrus.Fields{
		"file":     args[0],
		"keywords": len(doc.Keywords),
		"projects": len(doc.Projects),
		"nodes":    g.Len(),
		"edges":    g.EdgeCount(),
	}
	if catalogDryRun {
		logger.WithFields(fields).Info("catalog file is valid")
		return nil
	}

	if err := cfg.Validate(config.ValidationContextGraph).Err(); err != nil {
		return err
	}
	store, err := catalog.Open(ctx, cfg.Catalog, logger)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer store.Close()

	if err := store.Import(ctx, doc.Keywords, doc.Projects); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	logger.WithFields(fields).Info("catalog imported")
	return nil
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := cfg.Validate(config.ValidationContextGraph).Err(); err != nil {
		return err
	}
	store, err := catalog.Open(ctx, cfg.Catalog, logger)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer store.Close()

	rows, err := store.ListKeywords(ctx)
	if err != nil {
		return err
	}
	projects, err := store.ListProjects(ctx)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(catalog.Document{Projects: projects, Keywords: rows})
}
