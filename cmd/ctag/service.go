package main

import (
	"context"
	"fmt"

	"github.com/rohankatakam/ctag/internal/catalog"
	"github.com/rohankatakam/ctag/internal/config"
	"github.com/rohankatakam/ctag/internal/tagging"
)

// openService validates cfg for the command and wires the catalog into a
// tagging service. The caller closes the returned store.
func openService(ctx context.Context, vctx config.ValidationContext) (*tagging.Service, catalog.Store, error) {
	result := cfg.Validate(vctx)
	for _, w := range result.Warnings {
		logger.Warn(w)
	}
	if err := result.Err(); err != nil {
		return nil, nil, err
	}

	store, err := catalog.Open(ctx, cfg.Catalog, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	svc := tagging.NewService(store, logger, tagging.WithStrict(cfg.Catalog.Strict))
	return svc, store, nil
}
