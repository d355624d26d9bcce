package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/kilupskalvis/commitdiff/internal/report"
	"github.com/kilupskalvis/commitdiff/internal/session"
)

// rootArgs accepts no arguments (interactive mode, or the recent log with
// --repo) or exactly two references.
func rootArgs(cmd *cobra.Command, args []string) error {
	switch len(args) {
	case 0, 2:
		return nil
	default:
		return usageError("expected no arguments or two commit references, got %d", len(args))
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	switch {
	case len(args) == 2:
		return runQuickSummary(cmd, args[0], args[1])
	case cmd.Flags().Changed("repo"):
		return runRecentLog(cmd)
	default:
		return runInteractive(cmd)
	}
}

func runQuickSummary(cmd *cobra.Command, ref1, ref2 string) error {
	repo := repoPath()
	c, err := initContext(cmd, repo)
	if err != nil {
		return err
	}
	defer c.Close()
	c.openCache()

	agg, err := c.aggregator(repo)
	if err != nil {
		return runtimeError("failed to open repository: %v", err)
	}

	result := agg.QuickSummary(cmd.Context(), ref1, ref2)
	report.NewTerminal(cmd.OutOrStdout()).QuickSummary(result, c.Config.SummaryLimit)

	if result.Empty() {
		return runtimeError("no data could be retrieved for %s..%s", ref1, ref2)
	}
	return nil
}

func runRecentLog(cmd *cobra.Command) error {
	repo := repoPath()
	c, err := initContext(cmd, repo)
	if err != nil {
		return err
	}
	defer c.Close()

	backend, err := openBackend(c.Config, repo)
	if err != nil {
		return runtimeError("failed to open repository: %v", err)
	}
	entries, err := backend.RecentLog(cmd.Context(), c.Config.RecentCount)
	if err != nil {
		return runtimeError("failed to get recent commits: %v", err)
	}

	report.NewTerminal(cmd.OutOrStdout()).RecentLog(repo, entries)
	return nil
}

func runInteractive(cmd *cobra.Command) error {
	c, err := initContext(cmd, ".")
	if err != nil {
		return err
	}
	defer c.Close()
	c.openCache()
	c.openHistory()

	opts := session.Options{
		In:  cmd.InOrStdin(),
		Out: cmd.OutOrStdout(),
		Factory: func(repo string) (session.Comparer, error) {
			agg, err := c.aggregator(repo)
			if err != nil {
				return nil, err
			}
			return agg, nil
		},
		ReportDir: c.Config.ReportDir,
		Logger:    c.Logger,
	}
	if c.History != nil {
		opts.History = c.History
	}

	err = session.New(opts).Run(cmd.Context())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrValidation):
		return validationError(err)
	default:
		return runtimeError("%v", err)
	}
}
