package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [ref]",
	Short: "Show commit details",
	Long:  `Show the metadata of one commit. Defaults to HEAD.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
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

	ref := "HEAD"
	if len(args) > 0 {
		ref = args[0]
	}
	info, err := backend.CommitInfo(cmd.Context(), ref)
	if err != nil {
		return runtimeError("commit not found: %s: %v", ref, err)
	}

	out := cmd.OutOrStdout()
	color.New(color.FgYellow).Fprintf(out, "commit %s\n", info.Hash)
	fmt.Fprintf(out, "Author: %s <%s>\n", info.Author, info.Email)
	fmt.Fprintf(out, "Date:   %s\n", info.Date)
	fmt.Fprintf(out, "\n    %s\n", info.Message)
	return nil
}
