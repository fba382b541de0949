package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/ctag/internal/config"
	"github.com/rohankatakam/ctag/internal/models"
	"github.com/rohankatakam/ctag/internal/tagging"
)

var sampleRows = []models.KeywordRow{
	{Keyword: "requests.get", Parent: "requests", Type: models.KeywordAPICall},
	{Keyword: "requests", Type: models.KeywordStandard},
	{Keyword: "orm", Type: models.KeywordMapping},
	{Keyword: "sqlalchemy", Parent: "orm", Type: models.KeywordStandard},
}

// setupTestStore creates an in-memory SQLite catalog for testing
func setupTestStore(t *testing.T) *SQLiteStore {
	store, err := NewSQLiteStore(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_ImportAndList(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Import(ctx, sampleRows, []string{"myproj", "other"}))

	rows, err := store.ListKeywords(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRows, rows, "rows come back in insertion order")

	projects, err := store.ListProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"myproj", "other"}, projects)
}

func TestSQLiteStore_Empty(t *testing.T) {
	store := setupTestStore(t)

	rows, err := store.ListKeywords(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSQLiteStore_RejectsUnknownType(t *testing.T) {
	store := setupTestStore(t)

	err := store.Import(context.Background(), []models.KeywordRow{{Keyword: "x", Type: 7}}, nil)
	require.Error(t, err)

	rows, err := store.ListKeywords(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows, "failed import is rolled back")
}

func TestSQLiteStore_OnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "catalog.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Import(ctx, sampleRows[:2], nil))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	rows, err := reopened.ListKeywords(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSQLiteStore_FeedsTagGraph(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Import(ctx, sampleRows, []string{"myproj"}))

	svc := tagging.NewService(store, nil)
	tags, err := svc.GetTags(ctx, &models.Commit{Message: "update myproj, move to SQLAlchemy"},
		[]string{"resp = requests.get(url)"})
	require.NoError(t, err)
	assert.Equal(t, []string{"orm", "project-myproj", "requests", "sqlalchemy"}, tags.Sorted())
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	store := NewFileStore(path, nil)
	ctx := context.Background()

	require.NoError(t, store.Import(ctx, sampleRows[:2], []string{"myproj"}))
	require.NoError(t, store.Import(ctx, sampleRows[2:], nil))

	rows, err := store.ListKeywords(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRows, rows)

	projects, err := store.ListProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"myproj"}, projects)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "type: apicall")
}

func TestReadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
projects: [myproj]
keywords:
  - keyword: django
    parent: python
  - keyword: requests.get
    parent: requests
    type: apicall
  - keyword: orm
    type: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	doc, err := ReadDocument(path)
	require.NoError(t, err)
	require.Len(t, doc.Keywords, 3)
	assert.Equal(t, models.KeywordStandard, doc.Keywords[0].Type, "type defaults to standard")
	assert.Equal(t, models.KeywordAPICall, doc.Keywords[1].Type)
	assert.Equal(t, models.KeywordMapping, doc.Keywords[2].Type)
	assert.Equal(t, []string{"myproj"}, doc.Projects)
}

func TestReadDocument_BadType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keywords:\n  - keyword: x\n    type: sometimes\n"), 0644))

	_, err := ReadDocument(path)
	assert.Error(t, err)
}

func TestFileStore_MissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.yaml"), nil)

	_, err := store.ListKeywords(context.Background())
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, config.CatalogConfig{Driver: "file", FilePath: "x.yaml"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	store, err = Open(ctx, config.CatalogConfig{Driver: "sqlite", SQLitePath: ":memory:"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	store.Close()

	_, err = Open(ctx, config.CatalogConfig{Driver: "mysql"}, nil)
	assert.Error(t, err)
}
