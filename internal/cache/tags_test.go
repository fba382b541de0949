package cache

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/ctag/internal/logging"
)

func openTestCache(t *testing.T) *TagCache {
	c, err := Open(filepath.Join(t.TempDir(), "cache", "tags.bolt"), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestTagCache_PutGet(t *testing.T) {
	c := openTestCache(t)

	_, ok := c.Get("fp1", "abc")
	assert.False(t, ok)

	require.NoError(t, c.Put("fp1", "abc", []string{"django", "python"}))

	tags, ok := c.Get("fp1", "abc")
	require.True(t, ok)
	assert.Equal(t, []string{"django", "python"}, tags)

	_, ok = c.Get("fp2", "abc")
	assert.False(t, ok, "a different catalog fingerprint misses")
}

func TestTagCache_EmptyTagSetIsCached(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.Put("fp", "abc", []string{}))
	tags, ok := c.Get("fp", "abc")
	assert.True(t, ok)
	assert.Empty(t, tags)
}

func TestTagCache_Purge(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.Put("old", "a", []string{"x"}))
	require.NoError(t, c.Put("old", "b", []string{"y"}))
	require.NoError(t, c.Put("new", "a", []string{"z"}))

	removed, err := c.Purge("new")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, ok := c.Get("old", "a")
	assert.False(t, ok)
	tags, ok := c.Get("new", "a")
	assert.True(t, ok)
	assert.Equal(t, []string{"z"}, tags)
}

func TestTagCache_ConcurrentWriters(t *testing.T) {
	c := openTestCache(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, c.Put("fp", string(rune('a'+i)), []string{"t"}))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		_, ok := c.Get("fp", string(rune('a'+i)))
		assert.True(t, ok)
	}
}
