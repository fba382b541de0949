package tagging

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/ctag/internal/models"
)

// Service is the entry point used by the CLI: it owns the lazily built graph
// and answers tagging queries against it.
type Service struct {
	builder *Builder
	logger  logrus.FieldLogger
}

// NewService creates a service reading its catalog from source
func NewService(source Source, logger logrus.FieldLogger, opts ...BuildOption) *Service {
	b := NewBuilder(source, logger, opts...)
	return &Service{builder: b, logger: b.logger}
}

// BuildGraph loads the catalog on first call and returns the cached graph afterwards
func (s *Service) BuildGraph(ctx context.Context) (*TagGraph, error) {
	return s.builder.Graph(ctx)
}

// Reset forces the next call to reload the catalog
func (s *Service) Reset() {
	s.builder.Reset()
}

// Engine returns an engine bound to the current graph
func (s *Service) Engine(ctx context.Context) (*Engine, error) {
	g, err := s.builder.Graph(ctx)
	if err != nil {
		return nil, err
	}
	return NewEngine(g), nil
}

// GetTags returns the tags of a commit and its diff fragments
func (s *Service) GetTags(ctx context.Context, commit *models.Commit, diffs []string) (TagSet, error) {
	engine, err := s.Engine(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := engine.GetTags(commit, diffs)
	if err != nil {
		return nil, err
	}
	if commit != nil {
		s.logger.WithFields(logrus.Fields{"sha": commit.SHA, "tags": len(tags)}).Debug("commit tagged")
	}
	return tags, nil
}

// ProjectizeTags qualifies tokens that name a project
func (s *Service) ProjectizeTags(ctx context.Context, tokens []string) ([]string, error) {
	engine, err := s.Engine(ctx)
	if err != nil {
		return nil, err
	}
	return engine.Projectize(tokens), nil
}
