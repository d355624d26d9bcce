package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilupskalvis/commitdiff/internal/report"
	"github.com/kilupskalvis/commitdiff/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report <ref1> <ref2>",
	Short: "Save a Markdown diff report",
	Long: `Compare two commits and save the result as a Markdown report.

Without --output the report is written to the configured report directory
as git_diff_<ref1>_<ref2>_<timestamp>.md.`,
	Args: cobra.ExactArgs(2),
	RunE: runReport,
}

var reportOutput string

func init() {
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Report file path")
}

func runReport(cmd *cobra.Command, args []string) error {
	repo := repoPath()
	c, err := initContext(cmd, repo)
	if err != nil {
		return err
	}
	defer c.Close()
	c.openCache()
	c.openHistory()

	agg, err := c.aggregator(repo)
	if err != nil {
		return runtimeError("failed to open repository: %v", err)
	}

	result := agg.Compare(cmd.Context(), args[0], args[1])
	if result.Empty() {
		return runtimeError("no data could be retrieved for %s..%s", args[0], args[1])
	}

	now := time.Now()
	path := reportOutput
	if path == "" {
		path = filepath.Join(c.Config.ReportDir, report.DefaultFileName(result, now))
	}
	if err := report.Save(result, path, now); err != nil {
		return runtimeError("failed to save report: %v", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Diff report saved to: %s\n", path)

	if c.History != nil {
		abs, err := filepath.Abs(repo)
		if err != nil {
			abs = repo
		}
		rec, err := c.History.Record(cmd.Context(), store.NewReport(abs, path, result, now))
		if err != nil {
			c.Logger.Warn("failed to record report history", "error", err)
		} else {
			c.Logger.Info("report recorded", "id", rec.ID)
		}
	}
	return nil
}
