package cli

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/kilupskalvis/commitdiff/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default " + config.RepoFile + " into the repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.Initialize(repoPath())
		if err != nil {
			return runtimeError("%v", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := initContext(cmd, repoPath())
		if err != nil {
			return err
		}
		defer c.Close()

		out := cmd.OutOrStdout()
		for _, src := range c.Config.Sources() {
			fmt.Fprintf(out, "# from %s\n", src)
		}
		data, err := toml.Marshal(c.Config)
		if err != nil {
			return runtimeError("failed to marshal config: %v", err)
		}
		_, err = out.Write(data)
		return err
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
