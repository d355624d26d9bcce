// Package report renders comparison results to the terminal and to
// Markdown documents.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/kilupskalvis/commitdiff/internal/models"
)

// DefaultSummaryLimit is how many changes a quick summary lists.
const DefaultSummaryLimit = 10

const rule = "============================================================"

// Terminal writes coloured, human-oriented views of a comparison.
type Terminal struct {
	w       io.Writer
	green   *color.Color
	red     *color.Color
	yellow  *color.Color
	cyan    *color.Color
	magenta *color.Color
	bold    *color.Color
}

// NewTerminal creates a Terminal writing to w. Colouring follows
// color.NoColor, which is off when w is not a TTY.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{
		w:       w,
		green:   color.New(color.FgGreen),
		red:     color.New(color.FgRed),
		yellow:  color.New(color.FgYellow),
		cyan:    color.New(color.FgCyan),
		magenta: color.New(color.FgMagenta),
		bold:    color.New(color.Bold),
	}
}

// Comparison prints the full view: both commit headers, the change
// table and the stat block. The unified diff follows when withDiff is set.
// Absent fields are skipped.
func (t *Terminal) Comparison(r *models.ComparisonResult, withDiff bool) {
	t.bold.Fprintf(t.w, "Comparing %s..%s\n", r.FromShort(), r.ToShort())
	fmt.Fprintln(t.w, rule)
	if r.From != nil {
		fmt.Fprintln(t.w, "FROM COMMIT:")
		t.CommitHeader(r.From)
	}
	if r.To != nil {
		fmt.Fprintln(t.w, "TO COMMIT:")
		t.CommitHeader(r.To)
	}
	t.Changes(r.Changes)
	t.Stat(r.StatText)
	if withDiff {
		t.Diff(r.UnifiedDiff)
	}
}

// CommitHeader prints the metadata block of one commit.
func (t *Terminal) CommitHeader(c *models.CommitInfo) {
	if c == nil {
		return
	}
	t.yellow.Fprintf(t.w, "commit %s\n", c.ShortHash())
	fmt.Fprintf(t.w, "Author:  %s <%s>\n", c.Author, c.Email)
	fmt.Fprintf(t.w, "Date:    %s\n", c.Date)
	fmt.Fprintf(t.w, "Message: %s\n", c.Message)
	fmt.Fprintln(t.w, strings.Repeat("-", len(rule)))
}

// Changes prints the change table in input order. A nil slice means the
// change list could not be retrieved and prints nothing.
func (t *Terminal) Changes(changes []models.FileChange) {
	if changes == nil {
		return
	}
	if len(changes) == 0 {
		fmt.Fprintln(t.w, "\nNo changes found.")
		return
	}

	fmt.Fprintf(t.w, "\nSummary: %d file(s) changed\n", len(changes))
	fmt.Fprintln(t.w, rule)
	for _, c := range changes {
		t.statusColor(c.Status).Fprintf(t.w, "%s %-10s", statusIcon(c.Status), c.Label())
		fmt.Fprintf(t.w, " %s\n", c.DisplayPath())
	}
}

// Stat prints the diff statistics block, nothing when empty.
func (t *Terminal) Stat(stat string) {
	if strings.TrimSpace(stat) == "" {
		return
	}
	fmt.Fprintln(t.w, "\nStatistics:")
	fmt.Fprintln(t.w, rule)
	fmt.Fprintln(t.w, strings.TrimRight(stat, "\n"))
}

// Diff prints a unified diff, colouring lines by their prefix only.
// An empty diff prints nothing.
func (t *Terminal) Diff(diff string) {
	if diff == "" {
		return
	}

	fmt.Fprintln(t.w, "\nFull Diff:")
	fmt.Fprintln(t.w, rule)
	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			t.green.Fprintln(t.w, line)
		case strings.HasPrefix(line, "-"):
			t.red.Fprintln(t.w, line)
		case strings.HasPrefix(line, "@@"):
			t.cyan.Fprintln(t.w, line)
		default:
			fmt.Fprintln(t.w, line)
		}
	}
}

// QuickSummary prints a compact view listing at most limit changes. The
// first line carries both short identifiers and the last line the
// number of changed files.
func (t *Terminal) QuickSummary(r *models.ComparisonResult, limit int) {
	if limit <= 0 {
		limit = DefaultSummaryLimit
	}

	t.bold.Fprintf(t.w, "Quick Comparison: %s → %s\n", r.FromShort(), r.ToShort())
	fmt.Fprintln(t.w, strings.Repeat("=", 50))
	if r.From != nil {
		fmt.Fprintf(t.w, "From: %s (%s)\n", r.From.Message, r.From.Author)
	}
	if r.To != nil {
		fmt.Fprintf(t.w, "To:   %s (%s)\n", r.To.Message, r.To.Author)
	}

	fmt.Fprintln(t.w)
	shown := r.Changes
	if len(shown) > limit {
		shown = shown[:limit]
	}
	for _, c := range shown {
		t.statusColor(c.Status).Fprintf(t.w, "  %-10s", c.Label())
		fmt.Fprintf(t.w, " %s\n", c.DisplayPath())
	}
	if rest := r.TotalChanges() - len(shown); rest > 0 {
		fmt.Fprintf(t.w, "  ... and %d more files\n", rest)
	}
	fmt.Fprintf(t.w, "Files changed: %d\n", r.TotalChanges())
}

// RecentLog prints a numbered list of recent commits.
func (t *Terminal) RecentLog(repo string, entries []models.LogEntry) {
	fmt.Fprintf(t.w, "Recent commits in %s:\n", repo)
	if len(entries) == 0 {
		fmt.Fprintln(t.w, "No commits found.")
		return
	}
	for i, e := range entries {
		fmt.Fprintf(t.w, "%d. ", i+1)
		t.yellow.Fprint(t.w, e.ShortHash())
		fmt.Fprintf(t.w, " - %s\n", e.Message)
	}
}

func (t *Terminal) statusColor(s models.ChangeStatus) *color.Color {
	switch s {
	case models.StatusAdded:
		return t.green
	case models.StatusDeleted:
		return t.red
	case models.StatusModified:
		return t.yellow
	case models.StatusRenamed, models.StatusCopied:
		return t.magenta
	default:
		return t.cyan
	}
}

func statusIcon(s models.ChangeStatus) string {
	switch s {
	case models.StatusAdded:
		return "+"
	case models.StatusModified:
		return "~"
	case models.StatusDeleted:
		return "-"
	case models.StatusRenamed:
		return ">"
	case models.StatusCopied:
		return "="
	default:
		return "?"
	}
}
