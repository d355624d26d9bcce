package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilupskalvis/commitdiff/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the comparison cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached comparisons",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, path, err := openCacheContext(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		n, err := c.Cache.Clear()
		if err != nil {
			return runtimeError("failed to clear cache: %v", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached comparison(s) from %s\n", n, path)
		return nil
	},
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show cache location and size",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, path, err := openCacheContext(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		n, err := c.Cache.Len()
		if err != nil {
			return runtimeError("failed to read cache: %v", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Path:    %s\nEntries: %d\n", path, n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheInfoCmd)
}

// openCacheContext opens the cache regardless of cache.enabled.
func openCacheContext(cmd *cobra.Command) (*cmdContext, string, error) {
	c, err := initContext(cmd, repoPath())
	if err != nil {
		return nil, "", err
	}
	path, err := c.Config.CachePath()
	if err == nil {
		c.Cache, err = cache.Open(path)
	}
	if err != nil {
		c.Close()
		return nil, "", runtimeError("failed to open cache: %v", err)
	}
	return c, path, nil
}
