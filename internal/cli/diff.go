package cli

import (
	"github.com/spf13/cobra"

	"github.com/kilupskalvis/commitdiff/internal/report"
	"github.com/kilupskalvis/commitdiff/internal/vcs"
)

var diffCmd = &cobra.Command{
	Use:   "diff <ref1> <ref2>",
	Short: "Show the unified diff between two commits",
	Long:  `Print the coloured unified diff between two commits, optionally limited to one path.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runDiff,
}

var diffPath string

func init() {
	diffCmd.Flags().StringVar(&diffPath, "path", "", "Limit the diff to this path")
}

func runDiff(cmd *cobra.Command, args []string) error {
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

	diff, err := backend.UnifiedDiff(cmd.Context(), args[0], args[1], vcs.DiffOptions{
		ContextLines: vcs.ContextLines(c.Config.ContextLines),
		Path:         diffPath,
	})
	if err != nil {
		return runtimeError("failed to compute diff: %v", err)
	}

	report.NewTerminal(cmd.OutOrStdout()).Diff(diff)
	return nil
}
