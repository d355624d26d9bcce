// Package cli implements the command-line interface for commitdiff.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kilupskalvis/commitdiff/internal/cache"
	"github.com/kilupskalvis/commitdiff/internal/config"
	"github.com/kilupskalvis/commitdiff/internal/core"
	"github.com/kilupskalvis/commitdiff/internal/logging"
	"github.com/kilupskalvis/commitdiff/internal/store"
	"github.com/kilupskalvis/commitdiff/internal/vcs"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitRuntime = 1
	ExitUsage   = 2
)

// exitError carries the process exit code for a failed command.
type exitError struct {
	code  int
	err   error
	usage bool // print the command usage after the error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func runtimeError(format string, args ...interface{}) error {
	return &exitError{code: ExitRuntime, err: fmt.Errorf(format, args...)}
}

func usageError(format string, args ...interface{}) error {
	return &exitError{code: ExitUsage, err: fmt.Errorf(format, args...), usage: true}
}

func validationError(err error) error {
	return &exitError{code: ExitUsage, err: err}
}

// openBackend creates the query backend for a repository. Tests replace it.
var openBackend = func(cfg *config.Config, repo string) (vcs.Backend, error) {
	return vcs.New(cfg.Backend, repo, vcs.Options{
		GitBinary: cfg.GitBinary,
		Timeout:   cfg.QueryTimeout(),
		Retries:   cfg.QueryRetries,
	})
}

// Global flags
var (
	flagRepo     string
	flagContext  int
	flagBackend  string
	flagLogLevel string
	flagNoCache  bool
)

// cmdContext holds common resources for CLI commands
type cmdContext struct {
	Config  *config.Config
	Logger  *slog.Logger
	Cache   *cache.Cache
	History *store.Store
}

// Close releases resources held by cmdContext
func (c *cmdContext) Close() {
	if c.Cache != nil {
		c.Cache.Close()
	}
	if c.History != nil {
		c.History.Close()
	}
}

// repoPath returns the --repo value or the working directory.
func repoPath() string {
	if flagRepo == "" {
		return "."
	}
	return flagRepo
}

// buildOverrides turns explicitly set global flags into config overrides.
func buildOverrides(cmd *cobra.Command) map[string]string {
	m := make(map[string]string)
	flags := cmd.Flags()
	if flags.Changed("context") {
		m["context_lines"] = strconv.Itoa(flagContext)
	}
	if flags.Changed("backend") {
		m["backend"] = flagBackend
	}
	if flags.Changed("log-level") {
		m["log_level"] = flagLogLevel
	}
	if flagNoCache {
		m["cache.enabled"] = "false"
	}
	return m
}

// initContext loads config for repo and builds the logger.
func initContext(cmd *cobra.Command, repo string) (*cmdContext, error) {
	cfg, err := config.Load(repo, buildOverrides(cmd))
	if err != nil {
		return nil, validationError(err)
	}
	logger := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	logger.Debug("config loaded", "sources", cfg.Sources(), "backend", cfg.Backend)
	return &cmdContext{Config: cfg, Logger: logger}, nil
}

// openCache opens the comparison cache when enabled. Failure only
// disables caching.
func (c *cmdContext) openCache() {
	if !c.Config.Cache.Enabled || c.Cache != nil {
		return
	}
	path, err := c.Config.CachePath()
	if err == nil {
		c.Cache, err = cache.Open(path)
	}
	if err != nil {
		c.Logger.Warn("comparison cache disabled", "error", err)
	}
}

// openHistory opens the report history when enabled. Failure only
// disables history.
func (c *cmdContext) openHistory() {
	if !c.Config.History.Enabled || c.History != nil {
		return
	}
	path, err := c.Config.HistoryPath()
	if err == nil {
		c.History, err = store.New(path)
	}
	if err != nil {
		c.Logger.Warn("report history disabled", "error", err)
	}
}

// aggregator builds an Aggregator for repo, using the cache if open.
func (c *cmdContext) aggregator(repo string) (*core.Aggregator, error) {
	backend, err := openBackend(c.Config, repo)
	if err != nil {
		return nil, err
	}
	key, err := filepath.Abs(repo)
	if err != nil {
		key = repo
	}
	opts := core.Options{
		ContextLines: vcs.ContextLines(c.Config.ContextLines),
		RepoKey:      key,
		Logger:       c.Logger,
	}
	if c.Cache != nil {
		opts.Cache = c.Cache
	}
	return core.NewAggregator(backend, opts), nil
}

var rootCmd = &cobra.Command{
	Use:   "commitdiff [<ref1> <ref2>]",
	Short: "Compare two commits and report the differences",
	Long: `commitdiff compares two commits of a git repository: commit metadata,
changed files, statistics and the unified diff.

  commitdiff                    interactive mode
  commitdiff <ref1> <ref2>      quick comparison
  commitdiff --repo <path>      show recent commits`,
	Example: `  commitdiff HEAD~2 HEAD
  commitdiff abc1234 def5678
  commitdiff --repo /path/to/repo`,
	Args:          rootArgs,
	RunE:          runRoot,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Run executes the root command with os.Args and returns an exit code.
func Run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return execute(ctx, os.Args[1:])
}

func execute(ctx context.Context, args []string) int {
	rootCmd.SetArgs(args)
	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err == nil {
		return ExitSuccess
	}

	stderr := rootCmd.ErrOrStderr()
	fmt.Fprintf(stderr, "error: %v\n", err)

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.usage {
			printUsage(stderr, cmd)
		}
		return ee.code
	}
	// Flag and argument errors raised by cobra itself.
	printUsage(stderr, cmd)
	return ExitUsage
}

func printUsage(w io.Writer, cmd *cobra.Command) {
	if cmd == nil {
		cmd = rootCmd
	}
	fmt.Fprint(w, cmd.UsageString())
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagRepo, "repo", "C", "", "Path to the repository")
	pf.IntVar(&flagContext, "context", 3, "Lines of context in unified diffs")
	pf.StringVar(&flagBackend, "backend", "", "Query backend (exec or gogit)")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.BoolVar(&flagNoCache, "no-cache", false, "Do not read or write the comparison cache")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
