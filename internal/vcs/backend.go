// Package vcs is the query port to the version-control backend.
//
// A Backend answers five read-only queries (commit metadata, name-status,
// diff stat, unified diff, recent log). ExecBackend shells out to the git
// binary, GoGitBackend reads the repository through go-git and MockBackend
// serves canned answers for tests. None of them retry; wrap a backend in a
// RetryBackend for that.
package vcs

import (
	"context"
	"fmt"
	"time"

	"github.com/kilupskalvis/commitdiff/internal/models"
)

// Backend kinds accepted by New.
const (
	BackendExec  = "exec"
	BackendGoGit = "gogit"
)

// DefaultContextLines is the unified diff context width used when none is given.
const DefaultContextLines = 3

// NoContext requests a unified diff without context lines.
const NoContext = -1

// DiffOptions controls a unified diff query.
type DiffOptions struct {
	// ContextLines is the context width. Zero selects DefaultContextLines;
	// use NoContext for a diff with no context at all.
	ContextLines int
	// Path scopes the diff to a single repository-relative path when set.
	Path string
}

// Context returns the effective context width.
func (o DiffOptions) Context() int {
	switch {
	case o.ContextLines == 0:
		return DefaultContextLines
	case o.ContextLines < 0:
		return 0
	}
	return o.ContextLines
}

// ContextLines converts a user-facing width, where 0 means no context,
// into a DiffOptions.ContextLines value.
func ContextLines(width int) int {
	if width <= 0 {
		return NoContext
	}
	return width
}

// Backend defines the contract for version-control queries.
// Every method issues exactly one query and never mutates the repository.
type Backend interface {
	CommitInfo(ctx context.Context, ref string) (*models.CommitInfo, error)
	DiffStat(ctx context.Context, ref1, ref2 string) (string, error)
	ChangeList(ctx context.Context, ref1, ref2 string) ([]models.FileChange, error)
	UnifiedDiff(ctx context.Context, ref1, ref2 string, opts DiffOptions) (string, error)
	RecentLog(ctx context.Context, count int) ([]models.LogEntry, error)
}

// Verify implementations at compile time
var (
	_ Backend = (*ExecBackend)(nil)
	_ Backend = (*GoGitBackend)(nil)
	_ Backend = (*MockBackend)(nil)
	_ Backend = (*RetryBackend)(nil)
)

// Options configures New.
type Options struct {
	GitBinary string
	// Timeout bounds each query; zero disables the deadline.
	Timeout time.Duration
	Retries int
}

// New opens a backend of the given kind for the repository at repoPath.
func New(kind, repoPath string, opts Options) (Backend, error) {
	var b Backend
	switch kind {
	case "", BackendExec:
		b = NewExecBackend(repoPath, NewExecRunner(opts.GitBinary), opts.Timeout)
	case BackendGoGit:
		g, err := OpenGoGit(repoPath)
		if err != nil {
			return nil, err
		}
		b = g
	default:
		return nil, fmt.Errorf("unknown backend %q (expected %s or %s)", kind, BackendExec, BackendGoGit)
	}

	if opts.Retries > 0 {
		cfg := DefaultRetryConfig()
		cfg.MaxRetries = opts.Retries
		b = NewRetryBackend(b, cfg)
	}
	return b, nil
}
