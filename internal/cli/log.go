package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent commits",
	Long:  `Display the most recent commits of the repository, newest first.`,
	Args:  cobra.NoArgs,
	RunE:  runLog,
}

var (
	logOneline bool
	logLimit   int
)

func init() {
	logCmd.Flags().BoolVar(&logOneline, "oneline", false, "Show each commit on a single line")
	logCmd.Flags().IntVarP(&logLimit, "n", "n", 0, "Limit the number of commits to show (default recent_count)")
}

func runLog(cmd *cobra.Command, args []string) error {
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

	limit := logLimit
	if limit <= 0 {
		limit = c.Config.RecentCount
	}
	entries, err := backend.RecentLog(cmd.Context(), limit)
	if err != nil {
		return runtimeError("failed to get commit log: %v", err)
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No commits yet")
		return nil
	}

	yellow := color.New(color.FgYellow)
	for _, e := range entries {
		if logOneline {
			yellow.Fprintf(out, "%s ", e.ShortHash())
			fmt.Fprintln(out, e.Message)
			continue
		}
		yellow.Fprintf(out, "commit %s\n", e.Hash)
		fmt.Fprintf(out, "\n    %s\n\n", e.Message)
	}
	return nil
}
