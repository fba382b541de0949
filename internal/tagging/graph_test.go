package tagging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/ctag/internal/errors"
	"github.com/rohankatakam/ctag/internal/models"
)

func row(keyword, parent string, t models.KeywordType) models.KeywordRow {
	return models.KeywordRow{Keyword: keyword, Parent: parent, Type: t}
}

func TestBuild_NodesAndEdges(t *testing.T) {
	g, err := Build([]models.KeywordRow{
		row("Django", "Python-Web", models.KeywordStandard),
		row("flask", "python-web", models.KeywordStandard),
		row("requests.get", "requests", models.KeywordAPICall),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, g.Len())
	assert.Equal(t, 3, g.EdgeCount())

	django, ok := g.Node("django")
	require.True(t, ok, "keywords are lower-cased")
	assert.Equal(t, models.KeywordStandard, django.Type)
	assert.Equal(t, []string{"python-web"}, g.Neighbors("django"))

	parent, ok := g.Node("requests")
	require.True(t, ok, "missing parents are created")
	assert.Equal(t, models.KeywordStandard, parent.Type)

	edges := g.Edges()
	require.Len(t, edges, 3)
	assert.Equal(t, Edge{Child: "requests.get", Parent: "requests", Type: models.KeywordAPICall}, edges[2])
}

func TestBuild_FirstDefinitionWins(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)

	g, err := Build([]models.KeywordRow{
		row("orm", "", models.KeywordMapping),
		row("orm", "", models.KeywordStandard),
	}, nil, WithLogger(logger))
	require.NoError(t, err)

	n, ok := g.Node("orm")
	require.True(t, ok)
	assert.Equal(t, models.KeywordMapping, n.Type)
	assert.Contains(t, buf.String(), "conflicting keyword type")
}

func TestBuild_StrictRejectsRedefinition(t *testing.T) {
	_, err := Build([]models.KeywordRow{
		row("orm", "", models.KeywordMapping),
		row("orm", "", models.KeywordStandard),
	}, nil, WithStrict(true))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCatalog)
}

func TestBuild_SameTypeRedefinitionIsNotAConflict(t *testing.T) {
	g, err := Build([]models.KeywordRow{
		row("sqlalchemy", "orm", models.KeywordStandard),
		row("sqlalchemy", "database", models.KeywordStandard),
	}, nil, WithStrict(true))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"orm", "database"}, g.Neighbors("sqlalchemy"))
}

func TestBuild_RejectsEmptyKeyword(t *testing.T) {
	_, err := Build([]models.KeywordRow{row("  ", "parent", models.KeywordStandard)}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCatalog)
}

func TestBuild_RejectsUnknownType(t *testing.T) {
	_, err := Build([]models.KeywordRow{row("x", "", models.KeywordType(9))}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCatalog)
}

func TestBuild_RejectsEmptyProject(t *testing.T) {
	_, err := Build(nil, []string{""})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCatalog)
}

func TestBuild_Projects(t *testing.T) {
	g, err := Build(
		[]models.KeywordRow{row("django", "", models.KeywordStandard)},
		[]string{"MyProj", "myproj", "django"},
	)
	require.NoError(t, err)

	n, ok := g.Node("myproj")
	require.True(t, ok)
	assert.Equal(t, models.KeywordAPICall, n.Type)

	q, ok := g.Node("project-myproj")
	require.True(t, ok)
	assert.Equal(t, models.KeywordStandard, q.Type)
	assert.Equal(t, []string{"project-myproj"}, g.Neighbors("myproj"), "projects are idempotent")

	// A project that is already a keyword keeps its catalog type.
	d, _ := g.Node("django")
	assert.Equal(t, models.KeywordStandard, d.Type)
	assert.Equal(t, []string{"project-django"}, g.Neighbors("django"))
}

func TestBuild_Fingerprint(t *testing.T) {
	rows := []models.KeywordRow{row("django", "python", models.KeywordStandard)}

	a, err := Build(rows, []string{"p"})
	require.NoError(t, err)
	b, err := Build(rows, []string{"p"})
	require.NoError(t, err)
	c, err := Build(rows, []string{"q"})
	require.NoError(t, err)

	assert.Len(t, a.Fingerprint(), 64)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestAncestors_Chain(t *testing.T) {
	g, err := Build([]models.KeywordRow{
		row("a", "b", models.KeywordStandard),
		row("b", "c", models.KeywordStandard),
	}, nil)
	require.NoError(t, err)

	anc, err := g.Ancestors("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, anc.Sorted())

	anc, err = g.Ancestors("c")
	require.NoError(t, err)
	assert.Empty(t, anc)
}

func TestAncestors_Diamond(t *testing.T) {
	g, err := Build([]models.KeywordRow{
		row("a", "b", models.KeywordStandard),
		row("a", "c", models.KeywordStandard),
		row("b", "d", models.KeywordStandard),
		row("c", "d", models.KeywordStandard),
	}, nil)
	require.NoError(t, err)

	anc, err := g.Ancestors("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d"}, anc.Sorted())
}

func TestAncestors_TerminatesOnCycles(t *testing.T) {
	g, err := Build([]models.KeywordRow{
		row("a", "b", models.KeywordStandard),
		row("b", "a", models.KeywordStandard),
		row("self", "self", models.KeywordStandard),
	}, nil)
	require.NoError(t, err)

	anc, err := g.Ancestors("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, anc.Sorted())

	anc, err = g.Ancestors("self")
	require.NoError(t, err)
	assert.Empty(t, anc)
}

func TestAncestors_UnknownNode(t *testing.T) {
	g, err := Build(nil, nil)
	require.NoError(t, err)

	_, err = g.Ancestors("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvariant)
}

func TestTagSet(t *testing.T) {
	s := NewTagSet("python", "django")
	assert.True(t, s.Has("python"))
	assert.False(t, s.Has("flask"))

	s.Add("flask")
	s.Add("flask")
	s.AddAll(NewTagSet("django", "web"))

	assert.Len(t, s, 4)
	assert.Equal(t, []string{"django", "flask", "python", "web"}, s.Sorted())
	assert.Equal(t, []string{}, NewTagSet().Sorted())
}
