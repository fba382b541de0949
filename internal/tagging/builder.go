package tagging

import (
	"context"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"lukechampine.com/blake3"

	"github.com/rohankatakam/ctag/internal/errors"
	"github.com/rohankatakam/ctag/internal/logging"
	"github.com/rohankatakam/ctag/internal/models"
)

// Source is the read side of the keyword catalog
type Source interface {
	ListKeywords(ctx context.Context) ([]models.KeywordRow, error)
	ListProjects(ctx context.Context) ([]string, error)
}

// BuildOption configures Build
type BuildOption func(*buildOptions)

type buildOptions struct {
	strict  bool
	compile Compiler
	logger  logrus.FieldLogger
}

// WithStrict makes conflicting type definitions for one keyword a CatalogError
// instead of a warning.
func WithStrict(strict bool) BuildOption {
	return func(o *buildOptions) { o.strict = strict }
}

// WithCompiler replaces the matcher compiler
func WithCompiler(c Compiler) BuildOption {
	return func(o *buildOptions) { o.compile = c }
}

// WithLogger sets the logger used for catalog warnings
func WithLogger(l logrus.FieldLogger) BuildOption {
	return func(o *buildOptions) { o.logger = l }
}

func newBuildOptions(opts []BuildOption) *buildOptions {
	o := &buildOptions{compile: Compile}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}
	return o
}

// Build constructs a tag graph from a catalog snapshot. The first type
// defined for a keyword wins; parents that were never declared are STANDARD.
func Build(rows []models.KeywordRow, projects []string, opts ...BuildOption) (*TagGraph, error) {
	o := newBuildOptions(opts)
	g := newTagGraph()
	hash := blake3.New(32, nil)

	for i, row := range rows {
		keyword := strings.ToLower(strings.TrimSpace(row.Keyword))
		parent := strings.ToLower(strings.TrimSpace(row.Parent))

		if keyword == "" {
			return nil, errors.CatalogErrorf("catalog row %d has an empty keyword", i).
				WithContext("parent", row.Parent)
		}
		if !row.Type.Valid() {
			return nil, errors.CatalogErrorf("catalog row %d (%q) has unknown keyword type %d", i, keyword, int(row.Type))
		}
		hash.Write([]byte("k\x00" + keyword + "\x00" + parent + "\x00" + strconv.Itoa(int(row.Type)) + "\n"))

		node, err := o.node(keyword, row.Type, true)
		if err != nil {
			return nil, err
		}
		existing, added := g.addNode(node)
		if !added {
			if err := o.checkRedefinition(existing, row.Type, i); err != nil {
				return nil, err
			}
			// Re-declaring an implicit parent makes it declared; its type stays.
			existing.declared = true
		}

		if parent == "" {
			continue
		}
		if !g.HasNode(parent) {
			parentNode, err := o.node(parent, models.KeywordStandard, false)
			if err != nil {
				return nil, err
			}
			g.addNode(parentNode)
		}
		if parent == keyword {
			o.logger.WithField("keyword", keyword).Warn("catalog row lists a keyword as its own parent")
		}
		added, err = g.addEdge(keyword, parent, row.Type)
		if err != nil {
			return nil, err
		}
		if !added {
			o.logger.WithFields(logrus.Fields{"keyword": keyword, "parent": parent}).Debug("duplicate catalog edge ignored")
		}
	}

	for i, name := range projects {
		project := strings.ToLower(strings.TrimSpace(name))
		if project == "" {
			return nil, errors.CatalogErrorf("project %d has an empty name", i)
		}
		hash.Write([]byte("p\x00" + project + "\n"))

		// Only the project-qualified tag is meant to be emitted.
		if !g.HasNode(project) {
			node, err := o.node(project, models.KeywordAPICall, true)
			if err != nil {
				return nil, err
			}
			g.addNode(node)
		}
		qualified := ProjectPrefix + project
		if !g.HasNode(qualified) {
			node, err := o.node(qualified, models.KeywordStandard, true)
			if err != nil {
				return nil, err
			}
			g.addNode(node)
		}
		if _, err := g.addEdge(project, qualified, models.KeywordAPICall); err != nil {
			return nil, err
		}
	}

	g.fingerprint = hex.EncodeToString(hash.Sum(nil))
	return g, nil
}

func (o *buildOptions) node(keyword string, t models.KeywordType, declared bool) (*Node, error) {
	m, err := o.compile(keyword)
	if err != nil {
		return nil, err
	}
	return &Node{Keyword: keyword, Type: t, Matcher: m, declared: declared}, nil
}

func (o *buildOptions) checkRedefinition(existing *Node, t models.KeywordType, row int) error {
	if existing.Type == t {
		return nil
	}
	if o.strict {
		return errors.CatalogErrorf("catalog row %d redefines %q as %s, already %s", row, existing.Keyword, t, existing.Type).
			WithContext("implicit_parent", !existing.declared)
	}
	o.logger.WithFields(logrus.Fields{
		"keyword":         existing.Keyword,
		"kept_type":       existing.Type.String(),
		"ignored_type":    t.String(),
		"implicit_parent": !existing.declared,
		"row":             row,
	}).Warn("conflicting keyword type in catalog, keeping the first definition")
	return nil
}

// Builder loads the catalog once and caches the resulting graph until Reset.
// Concurrent callers block until the first build finishes.
type Builder struct {
	source Source
	opts   []BuildOption
	logger logrus.FieldLogger

	mu    sync.Mutex
	graph *TagGraph
}

// NewBuilder creates a lazy builder over source
func NewBuilder(source Source, logger logrus.FieldLogger, opts ...BuildOption) *Builder {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Builder{
		source: source,
		opts:   append([]BuildOption{WithLogger(logger)}, opts...),
		logger: logger,
	}
}

// Graph returns the cached graph, building it on first use. A failed build is
// not cached; the next call tries again.
func (b *Builder) Graph(ctx context.Context) (*TagGraph, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.graph != nil {
		return b.graph, nil
	}

	rows, err := b.source.ListKeywords(ctx)
	if err != nil {
		return nil, errors.CatalogUnavailable(err, "failed to load keyword catalog")
	}
	projects, err := b.source.ListProjects(ctx)
	if err != nil {
		return nil, errors.CatalogUnavailable(err, "failed to load project list")
	}

	g, err := Build(rows, projects, b.opts...)
	if err != nil {
		return nil, err
	}

	b.logger.WithFields(logrus.Fields{
		"rows":        len(rows),
		"projects":    len(projects),
		"nodes":       g.Len(),
		"edges":       g.EdgeCount(),
		"fingerprint": g.Fingerprint(),
	}).Debug("tag graph built")

	b.graph = g
	return g, nil
}

// Reset drops the cached graph; the next Graph call reloads the catalog
func (b *Builder) Reset() {
	b.mu.Lock()
	b.graph = nil
	b.mu.Unlock()
}
