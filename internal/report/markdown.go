package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kilupskalvis/commitdiff/internal/models"
)

const (
	documentTitle  = "# Git Diff Report"
	changesHeading = "## Changes Summary"
	noChanges      = "No changes found."
	fileTimeFormat = "20060102_150405"
)

// IOError reports a failure to persist a report. The report is not
// considered created when Save returns one.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// DefaultFileName returns git_diff_<from>_<to>_<timestamp>.md using the
// user supplied references, shortened.
func DefaultFileName(r *models.ComparisonResult, now time.Time) string {
	return fmt.Sprintf("git_diff_%s_%s_%s.md",
		sanitize(models.ShortRef(r.FromRef)), sanitize(models.ShortRef(r.ToRef)), now.Format(fileTimeFormat))
}

// sanitize keeps references such as "HEAD~2" or "origin/main" usable in
// a file name.
func sanitize(ref string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '-'
		}
		return r
	}, ref)
}

// WriteMarkdown renders r as a Markdown document. Sections whose data is
// absent are omitted.
func WriteMarkdown(w io.Writer, r *models.ComparisonResult, now time.Time) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%s\n\n", documentTitle)
	fmt.Fprintf(bw, "**Generated:** %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(bw, "**Commits:** %s → %s\n\n", r.FromRef, r.ToRef)

	writeCommit(bw, "## From Commit", r.From)
	writeCommit(bw, "## To Commit", r.To)

	if r.HasChanges() {
		fmt.Fprintf(bw, "%s\n\n", changesHeading)
		if len(r.Changes) == 0 {
			fmt.Fprintln(bw, noChanges)
		}
		for _, c := range r.Changes {
			fmt.Fprintf(bw, "- **%s:** %s\n", c.Label(), c.DisplayPath())
		}
		fmt.Fprintln(bw)
	}

	if stat := strings.TrimRight(r.StatText, "\n"); strings.TrimSpace(stat) != "" {
		f := fence(stat)
		fmt.Fprintf(bw, "## Statistics\n\n%s\n%s\n%s\n\n", f, stat, f)
	}

	if diff := strings.TrimRight(r.UnifiedDiff, "\n"); diff != "" {
		f := fence(diff)
		fmt.Fprintf(bw, "## Full Diff\n\n%sdiff\n%s\n%s\n", f, diff, f)
	}

	return bw.Flush()
}

// fence returns a backtick fence longer than any backtick run in text,
// so no line of text can close it.
func fence(text string) string {
	longest, run := 0, 0
	for _, r := range text {
		if r != '`' {
			run = 0
			continue
		}
		run++
		longest = max(longest, run)
	}
	return strings.Repeat("`", max(3, longest+1))
}

func writeCommit(w io.Writer, heading string, c *models.CommitInfo) {
	if c == nil {
		return
	}
	fmt.Fprintf(w, "%s\n", heading)
	fmt.Fprintf(w, "- **Hash:** %s\n", c.Hash)
	fmt.Fprintf(w, "- **Author:** %s <%s>\n", c.Author, c.Email)
	fmt.Fprintf(w, "- **Date:** %s\n", c.Date)
	fmt.Fprintf(w, "- **Message:** %s\n\n", c.Message)
}

// Save writes the report for r to path. The document is written to a
// temporary file in the same directory and renamed into place, so a
// failed save leaves no partial report. An existing file is replaced.
func Save(r *models.ComparisonResult, path string, now time.Time) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &IOError{Path: path, Op: "create directory", Err: err}
	}

	tmpFile, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return &IOError{Path: path, Op: "create", Err: err}
	}
	tmpPath := tmpFile.Name()

	if err := WriteMarkdown(tmpFile, r, now); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return &IOError{Path: path, Op: "write", Err: err}
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return &IOError{Path: path, Op: "write", Err: err}
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return &IOError{Path: path, Op: "chmod", Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &IOError{Path: path, Op: "rename", Err: err}
	}
	return nil
}

// ErrNoChangeSection is returned by ParseChangeList when the document has
// no change summary.
var ErrNoChangeSection = errors.New("report has no change summary")

// ParseChangeList reads the change summary back out of a document
// produced by WriteMarkdown.
func ParseChangeList(rd io.Reader) ([]models.FileChange, error) {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	inSection := false
	changes := []models.FileChange{}
	for sc.Scan() {
		line := sc.Text()
		if !inSection {
			inSection = line == changesHeading
			continue
		}
		if strings.HasPrefix(line, "## ") {
			break
		}
		if line == "" || line == noChanges {
			continue
		}
		c, ok := parseChangeLine(line)
		if !ok {
			return nil, fmt.Errorf("malformed change line %q", line)
		}
		changes = append(changes, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !inSection {
		return nil, ErrNoChangeSection
	}
	return changes, nil
}

// parseChangeLine parses "- **<Label>:** <path>".
func parseChangeLine(line string) (models.FileChange, bool) {
	rest, ok := strings.CutPrefix(line, "- **")
	if !ok {
		return models.FileChange{}, false
	}
	label, path, ok := strings.Cut(rest, ":** ")
	if !ok {
		return models.FileChange{}, false
	}

	st, code := models.ParseStatusLabel(label)
	c := models.FileChange{Status: st, Code: code, Path: path}
	if st == models.StatusRenamed || st == models.StatusCopied {
		if old, dst, found := strings.Cut(path, " → "); found {
			c.OldPath, c.Path = old, dst
		}
	}
	return c, true
}
