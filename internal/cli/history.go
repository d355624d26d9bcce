package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kilupskalvis/commitdiff/internal/models"
	"github.com/kilupskalvis/commitdiff/internal/report"
	"github.com/kilupskalvis/commitdiff/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved reports",
	Long:  `List the reports saved by commitdiff, newest first.`,
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved report",
	Long:  `Show the details of a saved report and the changes recorded in it. The id may be abbreviated.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "n", "n", 20, "Limit the number of reports to show (0 for all)")
	historyCmd.AddCommand(historyShowCmd)
}

// openHistoryContext loads config and requires the history store.
func openHistoryContext(cmd *cobra.Command) (*cmdContext, error) {
	c, err := initContext(cmd, repoPath())
	if err != nil {
		return nil, err
	}
	if !c.Config.History.Enabled {
		c.Close()
		return nil, runtimeError("report history is disabled")
	}
	path, err := c.Config.HistoryPath()
	if err == nil {
		c.History, err = store.New(path)
	}
	if err != nil {
		c.Close()
		return nil, runtimeError("failed to open history: %v", err)
	}
	return c, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	c, err := openHistoryContext(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	reports, err := c.History.List(cmd.Context(), historyLimit)
	if err != nil {
		return runtimeError("failed to list reports: %v", err)
	}

	out := cmd.OutOrStdout()
	if len(reports) == 0 {
		fmt.Fprintln(out, "No reports saved yet")
		return nil
	}

	yellow := color.New(color.FgYellow)
	for _, rep := range reports {
		yellow.Fprintf(out, "%s ", rep.ShortID())
		fmt.Fprintf(out, "%s  %s..%s  %d file(s)  %s\n",
			rep.CreatedAt.Format("2006-01-02 15:04"), models.ShortRef(rep.FromRef), models.ShortRef(rep.ToRef),
			rep.FilesChanged, rep.Path)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	c, err := openHistoryContext(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	rep, err := c.History.Get(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrAmbiguous) {
			return validationError(err)
		}
		return runtimeError("failed to read history: %v", err)
	}

	out := cmd.OutOrStdout()
	color.New(color.FgYellow).Fprintf(out, "report %s\n", rep.ID)
	fmt.Fprintf(out, "Repository: %s\n", rep.Repo)
	fmt.Fprintf(out, "Commits:    %s → %s\n", rep.FromRef, rep.ToRef)
	if rep.FromHash != "" || rep.ToHash != "" {
		fmt.Fprintf(out, "Resolved:   %s → %s\n", models.ShortRef(rep.FromHash), models.ShortRef(rep.ToHash))
	}
	fmt.Fprintf(out, "Saved:      %s\n", rep.CreatedAt.Format("Mon Jan 2 15:04:05 2006"))
	fmt.Fprintf(out, "File:       %s\n", rep.Path)

	f, err := os.Open(rep.Path)
	if err != nil {
		fmt.Fprintf(out, "\nReport file is no longer available: %v\n", err)
		return nil
	}
	defer f.Close()

	changes, err := report.ParseChangeList(f)
	switch {
	case errors.Is(err, report.ErrNoChangeSection):
		fmt.Fprintln(out, "\nThe report has no change summary.")
	case err != nil:
		return runtimeError("failed to read report %s: %v", rep.Path, err)
	default:
		report.NewTerminal(out).Changes(changes)
	}
	return nil
}
