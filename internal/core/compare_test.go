package core

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kilupskalvis/commitdiff/internal/cache"
	"github.com/kilupskalvis/commitdiff/internal/models"
	"github.com/kilupskalvis/commitdiff/internal/vcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	commitA = &models.CommitInfo{
		Hash: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Author: "Ada", Email: "ada@example.com",
		Date: "Tue Jan 2 03:04:05 2024 +0000", Message: "first",
	}
	commitB = &models.CommitInfo{
		Hash: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", Author: "Grace", Email: "grace@example.com",
		Date: "Wed Jan 3 03:04:05 2024 +0000", Message: "second",
	}
)

// newTestBackend creates a mock backend with two commits and one range.
func newTestBackend() *vcs.MockBackend {
	m := vcs.NewMockBackend()
	m.AddCommit(commitA, "v1")
	m.AddCommit(commitB, "v2")
	m.SetRange("v1", "v2", []models.FileChange{
		{Status: models.StatusModified, Code: "M", Path: "main.go"},
		{Status: models.StatusAdded, Code: "A", Path: "util.go"},
		{Status: models.StatusDeleted, Code: "D", Path: "old.go"},
	}, " main.go | 2 +-\n", "diff --git a/main.go b/main.go\n-old\n+new\n")
	return m
}

func TestCompare_AllFields(t *testing.T) {
	m := newTestBackend()
	agg := NewAggregator(m, Options{ContextLines: 3})

	r := agg.Compare(context.Background(), "v1", "v2")

	assert.Equal(t, "v1", r.FromRef)
	assert.Equal(t, "v2", r.ToRef)
	assert.Equal(t, commitA, r.From)
	assert.Equal(t, commitB, r.To)
	require.Len(t, r.Changes, 3)
	assert.Equal(t, "main.go", r.Changes[0].Path)
	assert.Equal(t, "old.go", r.Changes[2].Path)
	assert.Equal(t, " main.go | 2 +-\n", r.StatText)
	assert.Contains(t, r.UnifiedDiff, "+new")
	assert.Equal(t, 3, m.LastDiffOpt.ContextLines)
	assert.Equal(t, 2, m.Calls("commit info"))
}

func TestCompare_Idempotent(t *testing.T) {
	agg := NewAggregator(newTestBackend(), Options{ContextLines: 3})

	first := agg.Compare(context.Background(), "v1", "v2")
	second := agg.Compare(context.Background(), "v1", "v2")
	assert.Equal(t, first, second)
}

func TestCompare_PartialFailure(t *testing.T) {
	m := newTestBackend()
	m.CommitInfoErr["v1"] = &vcs.QueryError{Op: "commit info", Reason: "fatal: bad object"}
	agg := NewAggregator(m, Options{})

	r := agg.Compare(context.Background(), "v1", "v2")

	assert.Nil(t, r.From)
	assert.Equal(t, commitB, r.To)
	assert.Len(t, r.Changes, 3)
	assert.NotEmpty(t, r.StatText)
	assert.NotEmpty(t, r.UnifiedDiff)
}

func TestCompare_ChangeListFailureIsAbsent(t *testing.T) {
	m := newTestBackend()
	m.ChangeListErr = &vcs.QueryError{Op: "change list", Reason: "boom"}
	agg := NewAggregator(m, Options{})

	r := agg.Compare(context.Background(), "v1", "v2")

	assert.False(t, r.HasChanges())
	assert.NotNil(t, r.From)
	assert.NotNil(t, r.To)
}

func TestCompare_SelfComparison(t *testing.T) {
	agg := NewAggregator(newTestBackend(), Options{})

	r := agg.Compare(context.Background(), "v2", "v2")

	require.NotNil(t, r.From)
	require.NotNil(t, r.To)
	assert.Equal(t, r.From, r.To)
	assert.NotNil(t, r.Changes)
	assert.Empty(t, r.Changes)
	assert.Empty(t, r.UnifiedDiff)
}

func TestCompare_EverythingFails(t *testing.T) {
	m := vcs.NewMockBackend()
	m.ChangeListErr = errors.New("no repo")
	m.DiffStatErr = errors.New("no repo")
	m.UnifiedDiffErr = errors.New("no repo")
	agg := NewAggregator(m, Options{})

	r := agg.Compare(context.Background(), "x", "y")
	assert.True(t, r.Empty())
}

func TestQuickSummary_ReturnsFullResult(t *testing.T) {
	m := newTestBackend()
	var changes []models.FileChange
	for i := 0; i < 15; i++ {
		changes = append(changes, models.FileChange{Status: models.StatusAdded, Code: "A", Path: string(rune('a'+i)) + ".go"})
	}
	m.Changes["v1..v2"] = changes
	agg := NewAggregator(m, Options{})

	r := agg.QuickSummary(context.Background(), "v1", "v2")
	assert.Len(t, r.Changes, 15)
}

// memCache is an in-memory ResultCache.
type memCache struct {
	mu   sync.Mutex
	data map[string]*models.ComparisonResult
	puts int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string]*models.ComparisonResult)}
}

func (c *memCache) Get(key string) (*models.ComparisonResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.data[key]
	if !ok {
		return nil, false, nil
	}
	cp := *r
	return &cp, true, nil
}

func (c *memCache) Put(key string, r *models.ComparisonResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *r
	c.data[key] = &cp
	c.puts++
	return nil
}

func TestCompare_CacheHitSkipsRangeQueries(t *testing.T) {
	m := newTestBackend()
	mc := newMemCache()
	agg := NewAggregator(m, Options{ContextLines: 3, RepoKey: "/repo", Cache: mc})

	first := agg.Compare(context.Background(), "v1", "v2")
	assert.Equal(t, 1, mc.puts)
	assert.Equal(t, 1, m.Calls("change list"))

	// Same commits under different names hit the cache
	m.AddCommit(commitA, "main~1")
	m.AddCommit(commitB, "main")
	second := agg.Compare(context.Background(), "main~1", "main")

	assert.Equal(t, 1, m.Calls("change list"))
	assert.Equal(t, 1, m.Calls("diff stat"))
	assert.Equal(t, 1, m.Calls("unified diff"))
	assert.Equal(t, "main~1", second.FromRef)
	assert.Equal(t, "main", second.ToRef)
	assert.Equal(t, first.Changes, second.Changes)
	assert.Equal(t, first.UnifiedDiff, second.UnifiedDiff)
}

func TestCompare_IncompleteResultNotCached(t *testing.T) {
	m := newTestBackend()
	m.DiffStatErr = &vcs.QueryError{Op: "diff stat", Reason: vcs.ReasonTimeout}
	mc := newMemCache()
	agg := NewAggregator(m, Options{Cache: mc})

	r := agg.Compare(context.Background(), "v1", "v2")
	assert.Empty(t, r.StatText)
	assert.Equal(t, 0, mc.puts)
}

func TestCompare_BoltCache(t *testing.T) {
	c, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer c.Close()

	m := newTestBackend()
	agg := NewAggregator(m, Options{ContextLines: 3, RepoKey: "/repo", Cache: c})

	first := agg.Compare(context.Background(), "v1", "v2")
	second := agg.Compare(context.Background(), "v1", "v2")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, m.Calls("change list"))
}

func TestCompare_DefaultContextWidth(t *testing.T) {
	m := newTestBackend()
	mc := newMemCache()

	NewAggregator(m, Options{RepoKey: "/repo", Cache: mc}).Compare(context.Background(), "v1", "v2")
	assert.Equal(t, vcs.DefaultContextLines, m.LastDiffOpt.Context())

	// An explicit width of three shares the cache entry with the default
	NewAggregator(m, Options{ContextLines: 3, RepoKey: "/repo", Cache: mc}).Compare(context.Background(), "v1", "v2")
	assert.Equal(t, 1, m.Calls("unified diff"))

	NewAggregator(m, Options{ContextLines: vcs.NoContext, RepoKey: "/repo", Cache: mc}).Compare(context.Background(), "v1", "v2")
	assert.Equal(t, 2, m.Calls("unified diff"))
	assert.Equal(t, 0, m.LastDiffOpt.Context())
}
