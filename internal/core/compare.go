// Package core assembles commit-range comparisons from backend queries.
package core

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/kilupskalvis/commitdiff/internal/cache"
	"github.com/kilupskalvis/commitdiff/internal/logging"
	"github.com/kilupskalvis/commitdiff/internal/models"
	"github.com/kilupskalvis/commitdiff/internal/vcs"
)

// maxWorkers bounds concurrent sub-queries, one per query kind.
const maxWorkers = 4

// ResultCache stores finished comparisons keyed by resolved hashes.
type ResultCache interface {
	Get(key string) (*models.ComparisonResult, bool, error)
	Put(key string, r *models.ComparisonResult) error
}

// Options configures an Aggregator.
type Options struct {
	// ContextLines is passed through as vcs.DiffOptions.ContextLines, so
	// zero selects vcs.DefaultContextLines.
	ContextLines int
	// RepoKey identifies the repository in cache keys.
	RepoKey string
	// Cache is optional.
	Cache  ResultCache
	Logger *slog.Logger
}

// Aggregator turns two references into one ComparisonResult.
type Aggregator struct {
	backend vcs.Backend
	opts    Options
	logger  *slog.Logger
}

// NewAggregator creates an Aggregator over backend.
func NewAggregator(backend vcs.Backend, opts Options) *Aggregator {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Aggregator{backend: backend, opts: opts, logger: logger}
}

// query is one sub-query; it writes only its own result field.
type query struct {
	name string
	run  func(ctx context.Context) error
}

// Compare runs the five sub-queries (commit info twice, change list, stat,
// unified diff) and assembles the result. A failed sub-query is logged
// and leaves its field absent; Compare itself never fails.
func (a *Aggregator) Compare(ctx context.Context, ref1, ref2 string) *models.ComparisonResult {
	result := &models.ComparisonResult{FromRef: ref1, ToRef: ref2}
	commits := a.commitQueries(result, ref1, ref2)
	ranges := a.rangeQueries(result, ref1, ref2)

	if a.opts.Cache == nil {
		a.run(ctx, append(commits, ranges...))
		return result
	}

	failed := a.run(ctx, commits)
	if cached := a.lookup(result); cached != nil {
		return cached
	}
	failed += a.run(ctx, ranges)
	if failed == 0 {
		a.store(result)
	}
	return result
}

// QuickSummary returns the full comparison. Truncating the change list
// for display is left to the renderer.
func (a *Aggregator) QuickSummary(ctx context.Context, ref1, ref2 string) *models.ComparisonResult {
	return a.Compare(ctx, ref1, ref2)
}

func (a *Aggregator) commitQueries(r *models.ComparisonResult, ref1, ref2 string) []query {
	return []query{
		{"from commit", func(ctx context.Context) (err error) {
			r.From, err = a.backend.CommitInfo(ctx, ref1)
			return err
		}},
		{"to commit", func(ctx context.Context) (err error) {
			r.To, err = a.backend.CommitInfo(ctx, ref2)
			return err
		}},
	}
}

func (a *Aggregator) rangeQueries(r *models.ComparisonResult, ref1, ref2 string) []query {
	return []query{
		{"change list", func(ctx context.Context) (err error) {
			r.Changes, err = a.backend.ChangeList(ctx, ref1, ref2)
			return err
		}},
		{"diff stat", func(ctx context.Context) (err error) {
			r.StatText, err = a.backend.DiffStat(ctx, ref1, ref2)
			return err
		}},
		{"unified diff", func(ctx context.Context) (err error) {
			r.UnifiedDiff, err = a.backend.UnifiedDiff(ctx, ref1, ref2, a.diffOptions())
			return err
		}},
	}
}

// run executes queries on a bounded worker pool and returns how many failed.
func (a *Aggregator) run(ctx context.Context, queries []query) int {
	errs := make([]error, len(queries))

	var g errgroup.Group
	g.SetLimit(maxWorkers)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			errs[i] = q.run(ctx)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			a.logger.Warn("sub-query failed", "query", queries[i].name, "error", err)
		}
	}
	return failed
}

func (a *Aggregator) diffOptions() vcs.DiffOptions {
	return vcs.DiffOptions{ContextLines: a.opts.ContextLines}
}

func (a *Aggregator) cacheKey(r *models.ComparisonResult) (string, bool) {
	if r.From == nil || r.To == nil {
		return "", false
	}
	return cache.Key(a.opts.RepoKey, r.From.Hash, r.To.Hash, a.diffOptions().Context()), true
}

// lookup returns a cached result relabelled with the caller's references.
func (a *Aggregator) lookup(r *models.ComparisonResult) *models.ComparisonResult {
	key, ok := a.cacheKey(r)
	if !ok {
		return nil
	}
	cached, found, err := a.opts.Cache.Get(key)
	if err != nil {
		a.logger.Warn("cache read failed", "error", err)
		return nil
	}
	if !found {
		return nil
	}
	a.logger.Debug("comparison served from cache", "from", r.From.Hash, "to", r.To.Hash)
	cached.FromRef, cached.ToRef = r.FromRef, r.ToRef
	cached.From, cached.To = r.From, r.To
	return cached
}

func (a *Aggregator) store(r *models.ComparisonResult) {
	key, ok := a.cacheKey(r)
	if !ok {
		return
	}
	if err := a.opts.Cache.Put(key, r); err != nil {
		a.logger.Warn("cache write failed", "error", err)
	}
}
