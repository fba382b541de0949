package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initCLIRepo creates a repository with the git binary, skipping when it is missing
func initCLIRepo(t *testing.T) string {
	dir := t.TempDir()
	if err := exec.Command("git", "-C", dir, "init").Run(); err != nil {
		t.Skip("git not available")
	}
	exec.Command("git", "-C", dir, "config", "user.email", "test@example.com").Run()
	exec.Command("git", "-C", dir, "config", "user.name", "Test User").Run()
	return dir
}

func TestStagedDiff(t *testing.T) {
	dir := initCLIRepo(t)
	ctx := context.Background()

	patch, err := StagedDiff(ctx, dir)
	require.NoError(t, err)
	assert.Empty(t, patch, "nothing staged")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "client.py"), []byte("resp = requests.get(url)\n"), 0644))
	require.NoError(t, exec.Command("git", "-C", dir, "add", "client.py").Run())

	patch, err = StagedDiff(ctx, dir)
	require.NoError(t, err)

	diffs := ParseUnifiedDiff(patch)
	require.Len(t, diffs, 1)
	assert.Equal(t, "client.py", diffs[0].Path)
	assert.Equal(t, "resp = requests.get(url)", diffs[0].Fragment)
}

func TestFindGitRoot(t *testing.T) {
	ctx := context.Background()

	_, err := FindGitRoot(ctx, t.TempDir())
	assert.Error(t, err)

	dir := initCLIRepo(t)
	subDir := filepath.Join(dir, "subdir")
	require.NoError(t, os.MkdirAll(subDir, 0755))

	root, err := FindGitRoot(ctx, subDir)
	require.NoError(t, err)

	// EvalSymlinks for macOS /var -> /private/var
	expected, _ := filepath.EvalSymlinks(dir)
	actual, _ := filepath.EvalSymlinks(root)
	assert.Equal(t, expected, actual)
}
