package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/kilupskalvis/commitdiff/internal/models"
)

// gitDateFormat matches git's default %ad rendering.
const gitDateFormat = "Mon Jan 2 15:04:05 2006 -0700"

// GoGitBackend answers queries from the repository object store through
// go-git, without spawning processes.
type GoGitBackend struct {
	repo *git.Repository
	path string
}

// OpenGoGit opens the repository containing path.
func OpenGoGit(path string) (*GoGitBackend, error) {
	if path == "" {
		path = "."
	}
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", path, err)
	}
	return &GoGitBackend{repo: repo, path: path}, nil
}

// NewGoGitBackend wraps an already opened repository.
func NewGoGitBackend(repo *git.Repository) *GoGitBackend {
	return &GoGitBackend{repo: repo}
}

func (b *GoGitBackend) commit(op, ref string) (*object.Commit, error) {
	hash, err := b.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, queryErrorf(op, "resolve %s: %v", ref, err)
	}
	c, err := b.repo.CommitObject(*hash)
	if err != nil {
		return nil, queryErrorf(op, "read commit %s: %v", ref, err)
	}
	return c, nil
}

// CommitInfo returns the metadata for ref. Message is the subject line.
func (b *GoGitBackend) CommitInfo(ctx context.Context, ref string) (*models.CommitInfo, error) {
	c, err := b.commit(opCommitInfo, ref)
	if err != nil {
		return nil, err
	}
	subject, _, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
	return &models.CommitInfo{
		Hash:    c.Hash.String(),
		Author:  c.Author.Name,
		Email:   c.Author.Email,
		Date:    c.Author.When.Format(gitDateFormat),
		Message: subject,
	}, nil
}

// treeChanges computes the rename-aware tree diff between two revisions.
func (b *GoGitBackend) treeChanges(ctx context.Context, op, ref1, ref2 string) (object.Changes, error) {
	c1, err := b.commit(op, ref1)
	if err != nil {
		return nil, err
	}
	c2, err := b.commit(op, ref2)
	if err != nil {
		return nil, err
	}
	t1, err := c1.Tree()
	if err != nil {
		return nil, queryErrorf(op, "tree of %s: %v", ref1, err)
	}
	t2, err := c2.Tree()
	if err != nil {
		return nil, queryErrorf(op, "tree of %s: %v", ref2, err)
	}
	changes, err := object.DiffTreeWithOptions(ctx, t1, t2, object.DefaultDiffTreeOptions)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &QueryError{Op: op, Reason: ReasonTimeout}
		}
		return nil, queryErrorf(op, "diff trees: %v", err)
	}
	return changes, nil
}

// ChangeList returns the changed paths sorted by destination path, the
// order git itself reports them in.
func (b *GoGitBackend) ChangeList(ctx context.Context, ref1, ref2 string) ([]models.FileChange, error) {
	changes, err := b.treeChanges(ctx, opChangeList, ref1, ref2)
	if err != nil {
		return nil, err
	}

	result := make([]models.FileChange, 0, len(changes))
	for _, ch := range changes {
		action, err := ch.Action()
		if err != nil {
			return nil, queryErrorf(opChangeList, "classify change: %v", err)
		}
		fc := models.FileChange{}
		switch action {
		case merkletrie.Insert:
			fc.Status, fc.Code, fc.Path = models.StatusAdded, "A", ch.To.Name
		case merkletrie.Delete:
			fc.Status, fc.Code, fc.Path = models.StatusDeleted, "D", ch.From.Name
		default:
			if ch.From.Name != ch.To.Name {
				fc.Status, fc.Code = models.StatusRenamed, "R"
				fc.OldPath, fc.Path = ch.From.Name, ch.To.Name
			} else {
				fc.Status, fc.Code, fc.Path = models.StatusModified, "M", ch.To.Name
			}
		}
		result = append(result, fc)
	}

	sort.SliceStable(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

// DiffStat renders a stat block in the layout git uses.
func (b *GoGitBackend) DiffStat(ctx context.Context, ref1, ref2 string) (string, error) {
	changes, err := b.treeChanges(ctx, opDiffStat, ref1, ref2)
	if err != nil {
		return "", err
	}
	if len(changes) == 0 {
		return "", nil
	}
	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return "", queryErrorf(opDiffStat, "build patch: %v", err)
	}
	return formatStat(patch.Stats()), nil
}

// formatStat renders file stats as " path | N ++--" lines plus a summary.
func formatStat(stats object.FileStats) string {
	if len(stats) == 0 {
		return ""
	}
	nameWidth, countWidth := 0, 1
	var adds, dels int
	for _, s := range stats {
		if len(s.Name) > nameWidth {
			nameWidth = len(s.Name)
		}
		if w := len(fmt.Sprint(s.Addition + s.Deletion)); w > countWidth {
			countWidth = w
		}
		adds += s.Addition
		dels += s.Deletion
	}

	var buf bytes.Buffer
	for _, s := range stats {
		fmt.Fprintf(&buf, " %-*s | %*d %s%s\n", nameWidth, s.Name, countWidth, s.Addition+s.Deletion,
			strings.Repeat("+", s.Addition), strings.Repeat("-", s.Deletion))
	}
	fmt.Fprintf(&buf, " %d %s changed", len(stats), plural(len(stats), "file", "files"))
	if adds > 0 {
		fmt.Fprintf(&buf, ", %d %s(+)", adds, plural(adds, "insertion", "insertions"))
	}
	if dels > 0 {
		fmt.Fprintf(&buf, ", %d %s(-)", dels, plural(dels, "deletion", "deletions"))
	}
	buf.WriteString("\n")
	return buf.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// UnifiedDiff returns the patch text of the range, optionally scoped to one path.
func (b *GoGitBackend) UnifiedDiff(ctx context.Context, ref1, ref2 string, opts DiffOptions) (string, error) {
	changes, err := b.treeChanges(ctx, opUnifiedDiff, ref1, ref2)
	if err != nil {
		return "", err
	}
	if opts.Path != "" {
		var filtered object.Changes
		for _, ch := range changes {
			if ch.From.Name == opts.Path || ch.To.Name == opts.Path {
				filtered = append(filtered, ch)
			}
		}
		changes = filtered
	}
	if len(changes) == 0 {
		return "", nil
	}

	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return "", queryErrorf(opUnifiedDiff, "build patch: %v", err)
	}
	var buf bytes.Buffer
	if err := diff.NewUnifiedEncoder(&buf, opts.Context()).Encode(patch); err != nil {
		return "", queryErrorf(opUnifiedDiff, "encode patch: %v", err)
	}
	return buf.String(), nil
}

// RecentLog returns at most count commits reachable from HEAD, newest first.
func (b *GoGitBackend) RecentLog(ctx context.Context, count int) ([]models.LogEntry, error) {
	entries := make([]models.LogEntry, 0)
	if count <= 0 {
		return entries, nil
	}
	iter, err := b.repo.Log(&git.LogOptions{Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, queryErrorf(opRecentLog, "%v", err)
	}
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		subject, _, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
		entries = append(entries, models.LogEntry{Hash: c.Hash.String(), Message: subject})
		if len(entries) >= count {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &QueryError{Op: opRecentLog, Reason: ReasonTimeout}
		}
		return nil, queryErrorf(opRecentLog, "%v", err)
	}
	return entries, nil
}
