package cache

import (
	"path/filepath"
	"testing"

	"github.com/kilupskalvis/commitdiff/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCache creates a new bbolt cache in a temp directory for testing.
func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "nested", "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func sampleResult() *models.ComparisonResult {
	return &models.ComparisonResult{
		FromRef: "HEAD~1",
		ToRef:   "HEAD",
		From:    &models.CommitInfo{Hash: "aaa", Author: "Ada", Message: "one"},
		To:      &models.CommitInfo{Hash: "bbb", Author: "Ada", Message: "two"},
		Changes: []models.FileChange{
			{Status: models.StatusModified, Code: "M", Path: "main.go"},
			{Status: models.StatusRenamed, Code: "R090", OldPath: "a.go", Path: "b.go", Score: 90},
		},
		StatText:    " main.go | 2 +-\n",
		UnifiedDiff: "diff --git a/main.go b/main.go\n",
	}
}

func TestCache_PutGet(t *testing.T) {
	c := newTestCache(t)
	key := Key("/repo", "aaa", "bbb", 3)

	_, found, err := c.Get(key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Put(key, sampleResult()))

	got, found, err := c.Get(key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, sampleResult(), got)
}

func TestCache_EmptyChangesSurvive(t *testing.T) {
	c := newTestCache(t)
	r := sampleResult()
	r.Changes = []models.FileChange{}
	require.NoError(t, c.Put("k", r))

	got, found, err := c.Get("k")
	require.NoError(t, err)
	require.True(t, found)
	assert.NotNil(t, got.Changes)
	assert.Empty(t, got.Changes)
}

func TestCache_KeyDistinguishesContext(t *testing.T) {
	assert.NotEqual(t, Key("/repo", "a", "b", 3), Key("/repo", "a", "b", 5))
	assert.NotEqual(t, Key("/repo", "a", "b", 3), Key("/other", "a", "b", 3))
}

func TestCache_Clear(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Put("one", sampleResult()))
	require.NoError(t, c.Put("two", sampleResult()))

	n, err := c.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	removed, err := c.Clear()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	n, err = c.Len()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// still usable after clearing
	require.NoError(t, c.Put("three", sampleResult()))
}
