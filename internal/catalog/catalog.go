package catalog

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/ctag/internal/config"
	"github.com/rohankatakam/ctag/internal/models"
)

// Store is a keyword catalog. The tagger only reads from it; Import exists
// for the catalog management commands.
type Store interface {
	ListKeywords(ctx context.Context) ([]models.KeywordRow, error)
	ListProjects(ctx context.Context) ([]string, error)

	// Import appends rows and projects to the catalog
	Import(ctx context.Context, rows []models.KeywordRow, projects []string) error

	Close() error
}

// Open returns the store selected by cfg.Driver
func Open(ctx context.Context, cfg config.CatalogConfig, logger *logrus.Logger) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLiteStore(cfg.SQLitePath, logger)
	case "postgres":
		return NewPostgresStore(ctx, cfg.PostgresDSN, logger)
	case "file":
		return NewFileStore(cfg.FilePath, logger), nil
	default:
		return nil, fmt.Errorf("unknown catalog driver %q", cfg.Driver)
	}
}
