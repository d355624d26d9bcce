// Package session drives the interactive comparison prompt as an explicit
// linear state machine over injected input and output.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/kilupskalvis/commitdiff/internal/logging"
	"github.com/kilupskalvis/commitdiff/internal/models"
	"github.com/kilupskalvis/commitdiff/internal/report"
	"github.com/kilupskalvis/commitdiff/internal/store"
)

// State is a step of the interactive session.
type State int

const (
	AskRepoPath State = iota
	AskRefs
	ShowInfo
	ShowSummary
	ShowStats
	OfferFullDiff
	OfferSave
	Done
)

var stateNames = [...]string{
	AskRepoPath:   "ask-repo-path",
	AskRefs:       "ask-refs",
	ShowInfo:      "show-info",
	ShowSummary:   "show-summary",
	ShowStats:     "show-stats",
	OfferFullDiff: "offer-full-diff",
	OfferSave:     "offer-save",
	Done:          "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// ErrValidation is returned when required input is missing.
var ErrValidation = errors.New("validation failed")

// Comparer produces a comparison for two references.
type Comparer interface {
	Compare(ctx context.Context, ref1, ref2 string) *models.ComparisonResult
}

// Factory builds a Comparer for the repository at repoPath.
type Factory func(repoPath string) (Comparer, error)

// Recorder stores the history of saved reports.
type Recorder interface {
	Record(ctx context.Context, rep store.Report) (store.Report, error)
}

// Options configures a Session. In, Out and Factory are required.
type Options struct {
	In      io.Reader
	Out     io.Writer
	Factory Factory
	// ReportDir is where saved reports go; empty means the working directory.
	ReportDir string
	History   Recorder
	Logger    *slog.Logger
	Now       func() time.Time
}

// Session holds the state of one interactive run.
type Session struct {
	opts  Options
	in    *bufio.Reader
	out   io.Writer
	term  *report.Terminal
	log   *slog.Logger
	state State

	repoPath string
	ref1     string
	ref2     string
	comparer Comparer
	result   *models.ComparisonResult
	saved    string
}

// New creates a session positioned at AskRepoPath.
func New(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		opts:  opts,
		in:    bufio.NewReader(opts.In),
		out:   opts.Out,
		term:  report.NewTerminal(opts.Out),
		log:   opts.Logger,
		state: AskRepoPath,
	}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Result returns the comparison once ShowInfo has run.
func (s *Session) Result() *models.ComparisonResult { return s.result }

// SavedPath returns the report path if one was saved.
func (s *Session) SavedPath() string { return s.saved }

// Run steps through every state until Done or an error.
func (s *Session) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Git Diff Tool - Interactive Mode")
	fmt.Fprintln(s.out, strings.Repeat("=", 50))
	for s.state != Done {
		if err := s.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Step performs the transition out of the current state. Any error ends
// the session.
func (s *Session) Step(ctx context.Context) error {
	var (
		next State
		err  error
	)
	switch s.state {
	case AskRepoPath:
		next, err = s.askRepoPath()
	case AskRefs:
		next, err = s.askRefs()
	case ShowInfo:
		next, err = s.showInfo(ctx)
	case ShowSummary:
		next, err = s.showSummary()
	case ShowStats:
		next, err = s.showStats()
	case OfferFullDiff:
		next, err = s.offerFullDiff()
	case OfferSave:
		next, err = s.offerSave(ctx)
	case Done:
		return nil
	default:
		return fmt.Errorf("unknown session state %v", s.state)
	}

	s.log.Debug("session transition", "from", s.state, "to", next, "error", err)
	if err != nil {
		s.state = Done
		return err
	}
	s.state = next
	return nil
}

func (s *Session) askRepoPath() (State, error) {
	path, err := s.prompt("Repository path (press Enter for current directory): ")
	if err != nil {
		return Done, err
	}
	if path == "" {
		path = "."
	}
	s.repoPath = path

	comparer, err := s.opts.Factory(path)
	if err != nil {
		fmt.Fprintf(s.out, "Cannot open repository %s: %v\n", path, err)
		return Done, fmt.Errorf("open repository: %w", err)
	}
	s.comparer = comparer
	return AskRefs, nil
}

func (s *Session) askRefs() (State, error) {
	ref1, err := s.prompt("Enter first commit reference (older): ")
	if err != nil {
		return Done, err
	}
	ref2, err := s.prompt("Enter second commit reference (newer): ")
	if err != nil {
		return Done, err
	}
	if ref1 == "" || ref2 == "" {
		fmt.Fprintln(s.out, "Both commit references are required!")
		return Done, fmt.Errorf("%w: both commit references are required", ErrValidation)
	}
	s.ref1, s.ref2 = ref1, ref2
	return ShowInfo, nil
}

func (s *Session) showInfo(ctx context.Context) (State, error) {
	fmt.Fprintf(s.out, "\nAnalyzing commits %s..%s\n", models.ShortRef(s.ref1), models.ShortRef(s.ref2))
	s.result = s.comparer.Compare(ctx, s.ref1, s.ref2)

	fmt.Fprintln(s.out, "\n"+strings.Repeat("=", 60))
	if s.result.From != nil {
		fmt.Fprintln(s.out, "FROM COMMIT:")
		s.term.CommitHeader(s.result.From)
	}
	if s.result.To != nil {
		fmt.Fprintln(s.out, "TO COMMIT:")
		s.term.CommitHeader(s.result.To)
	}
	return ShowSummary, nil
}

func (s *Session) showSummary() (State, error) {
	s.term.Changes(s.result.Changes)
	return ShowStats, nil
}

func (s *Session) showStats() (State, error) {
	s.term.Stat(s.result.StatText)
	return OfferFullDiff, nil
}

func (s *Session) offerFullDiff() (State, error) {
	yes, err := s.confirm("\nShow full diff? (y/N): ")
	if err != nil {
		return Done, err
	}
	if yes {
		s.term.Diff(s.result.UnifiedDiff)
	}
	return OfferSave, nil
}

func (s *Session) offerSave(ctx context.Context) (State, error) {
	yes, err := s.confirm("\nSave diff report to file? (y/N): ")
	if err != nil {
		return Done, err
	}
	if !yes {
		return Done, nil
	}

	now := s.opts.Now()
	path := filepath.Join(s.opts.ReportDir, report.DefaultFileName(s.result, now))
	if err := report.Save(s.result, path, now); err != nil {
		fmt.Fprintf(s.out, "Error saving report: %v\n", err)
		return Done, err
	}
	s.saved = path
	fmt.Fprintf(s.out, "Diff report saved to: %s\n", path)

	if s.opts.History != nil {
		repo, err := filepath.Abs(s.repoPath)
		if err != nil {
			repo = s.repoPath
		}
		if _, err := s.opts.History.Record(ctx, store.NewReport(repo, path, s.result, now)); err != nil {
			s.log.Warn("failed to record report history", "path", path, "error", err)
		}
	}
	return Done, nil
}

// prompt writes label and reads one trimmed line. End of input reads as
// an empty answer.
func (s *Session) prompt(label string) (string, error) {
	fmt.Fprint(s.out, label)
	line, err := s.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// confirm accepts "y" or "yes" in any case; anything else is no.
func (s *Session) confirm(label string) (bool, error) {
	answer, err := s.prompt(label)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
