package vcs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilupskalvis/commitdiff/internal/models"
)

// Query names used in QueryError.Op.
const (
	opCommitInfo  = "commit info"
	opDiffStat    = "diff stat"
	opChangeList  = "change list"
	opUnifiedDiff = "unified diff"
	opRecentLog   = "recent log"
)

// ExecBackend answers queries by running the git binary inside a repository.
type ExecBackend struct {
	runner  Runner
	repo    string
	timeout time.Duration
}

// NewExecBackend creates a backend rooted at repoPath. A zero timeout
// leaves queries unbounded.
func NewExecBackend(repoPath string, runner Runner, timeout time.Duration) *ExecBackend {
	if repoPath == "" {
		repoPath = "."
	}
	return &ExecBackend{runner: runner, repo: repoPath, timeout: timeout}
}

// Repo returns the repository path queries run in.
func (b *ExecBackend) Repo() string {
	return b.repo
}

// query runs one git invocation and converts failures into QueryError.
func (b *ExecBackend) query(ctx context.Context, op string, args ...string) (string, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	// Keep non-ASCII paths readable in stat and diff text.
	full := append([]string{"-c", "core.quotePath=false"}, args...)
	out, err := b.runner.Run(ctx, b.repo, full...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &QueryError{Op: op, Reason: ReasonTimeout}
		}
		var re *RunError
		if errors.As(err, &re) && re.Stderr != "" {
			return "", &QueryError{Op: op, Reason: re.Stderr}
		}
		return "", &QueryError{Op: op, Reason: err.Error()}
	}
	return out, nil
}

func rangeArg(ref1, ref2 string) string {
	return ref1 + ".." + ref2
}

// CommitInfo returns the metadata for ref. Tags are peeled to the commit
// they point at so that show prints no tag header.
func (b *ExecBackend) CommitInfo(ctx context.Context, ref string) (*models.CommitInfo, error) {
	out, err := b.query(ctx, opCommitInfo, "show", "--no-patch", "--no-color", "--format="+commitFormat, ref+"^{commit}", "--")
	if err != nil {
		return nil, err
	}
	return parseCommitInfo(out)
}

// DiffStat returns the stat block for the range verbatim.
func (b *ExecBackend) DiffStat(ctx context.Context, ref1, ref2 string) (string, error) {
	return b.query(ctx, opDiffStat, "diff", "--no-color", "--stat", rangeArg(ref1, ref2), "--")
}

// ChangeList returns the changed paths of the range in backend order.
func (b *ExecBackend) ChangeList(ctx context.Context, ref1, ref2 string) ([]models.FileChange, error) {
	out, err := b.query(ctx, opChangeList, "diff", "--no-color", "--name-status", "-z", rangeArg(ref1, ref2), "--")
	if err != nil {
		return nil, err
	}
	return parseNameStatus(out), nil
}

// UnifiedDiff returns the patch text of the range.
func (b *ExecBackend) UnifiedDiff(ctx context.Context, ref1, ref2 string, opts DiffOptions) (string, error) {
	args := []string{
		"diff", "--no-color", "--no-ext-diff",
		fmt.Sprintf("--unified=%d", opts.Context()),
		rangeArg(ref1, ref2), "--",
	}
	if opts.Path != "" {
		args = append(args, opts.Path)
	}
	return b.query(ctx, opUnifiedDiff, args...)
}

// RecentLog returns at most count commits reachable from HEAD, newest first.
func (b *ExecBackend) RecentLog(ctx context.Context, count int) ([]models.LogEntry, error) {
	if count <= 0 {
		return []models.LogEntry{}, nil
	}
	out, err := b.query(ctx, opRecentLog, "log", "--no-color", fmt.Sprintf("-%d", count), "--format="+logFormat)
	if err != nil {
		return nil, err
	}
	return parseLog(out), nil
}
