// Package config loads commitdiff settings. Values are layered:
// defaults, the user file, the repository file, COMMITDIFF_* environment
// variables and finally command-line overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	AppName      = "commitdiff"
	RepoFile     = ".commitdiff.toml"
	UserFile     = "config.toml"
	CacheFile    = "cache.db"
	HistoryFile  = "history.db"
	EnvPrefix    = "COMMITDIFF_"
	BackendExec  = "exec"
	BackendGoGit = "gogit"
)

// ErrNoRepoConfig is returned by FindRepoConfig when no repository file
// exists in the directory or any parent.
var ErrNoRepoConfig = errors.New("no " + RepoFile + " found (or any parent up to root)")

// Config holds the effective settings.
type Config struct {
	Backend             string      `toml:"backend"`
	GitBinary           string      `toml:"git_binary"`
	QueryTimeoutSeconds int         `toml:"query_timeout_seconds"`
	QueryRetries        int         `toml:"query_retries"`
	ContextLines        int         `toml:"context_lines"`
	SummaryLimit        int         `toml:"summary_limit"`
	RecentCount         int         `toml:"recent_count"`
	ReportDir           string      `toml:"report_dir"`
	LogLevel            string      `toml:"log_level"`
	LogFormat           string      `toml:"log_format"`
	Cache               StoreConfig `toml:"cache"`
	History             StoreConfig `toml:"history"`

	sources []string // files merged into this config, in order
}

// StoreConfig configures an on-disk database.
type StoreConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Backend:             BackendExec,
		GitBinary:           "git",
		QueryTimeoutSeconds: 20,
		QueryRetries:        0,
		ContextLines:        3,
		SummaryLimit:        10,
		RecentCount:         5,
		ReportDir:           ".",
		LogLevel:            "warn",
		LogFormat:           "text",
		Cache:               StoreConfig{Enabled: true},
		History:             StoreConfig{Enabled: true},
	}
}

// Dir returns the per-user configuration directory.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

// UserPath returns the path of the per-user config file.
func UserPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, UserFile), nil
}

// FindRepoConfig finds the repository config file by walking up from start.
func FindRepoConfig(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for {
		path := filepath.Join(dir, RepoFile)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoRepoConfig
		}
		dir = parent
	}
}

// Load builds the effective config for the repository at repoPath.
// overrides are keyed by TOML key (e.g. "context_lines") and applied last.
func Load(repoPath string, overrides map[string]string) (*Config, error) {
	cfg := Default()

	userPath, err := UserPath()
	if err != nil {
		return nil, err
	}
	if err := cfg.mergeFile(userPath); err != nil {
		return nil, err
	}

	repoCfg, err := FindRepoConfig(repoPath)
	switch {
	case err == nil:
		if err := cfg.mergeFile(repoCfg); err != nil {
			return nil, err
		}
	case !errors.Is(err, ErrNoRepoConfig):
		return nil, err
	}

	if err := cfg.mergeEnv(); err != nil {
		return nil, err
	}
	for key, value := range overrides {
		if err := cfg.Set(key, value); err != nil {
			return nil, fmt.Errorf("invalid override: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeFile decodes path over the current values. Keys absent from the
// file keep their value. A missing file is not an error.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	c.sources = append(c.sources, path)
	return nil
}

func (c *Config) mergeEnv() error {
	for _, key := range keys {
		name := EnvPrefix + envName(key)
		if v, ok := os.LookupEnv(name); ok && v != "" {
			if err := c.Set(key, v); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return nil
}

// envName maps "cache.enabled" to "CACHE_ENABLED".
func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// keys lists every settable key in TOML notation.
var keys = []string{
	"backend", "git_binary", "query_timeout_seconds", "query_retries",
	"context_lines", "summary_limit", "recent_count", "report_dir",
	"log_level", "log_format",
	"cache.enabled", "cache.path", "history.enabled", "history.path",
}

// Set assigns one key from its string form.
func (c *Config) Set(key, value string) error {
	var err error
	switch key {
	case "backend":
		c.Backend = value
	case "git_binary":
		c.GitBinary = value
	case "query_timeout_seconds":
		c.QueryTimeoutSeconds, err = strconv.Atoi(value)
	case "query_retries":
		c.QueryRetries, err = strconv.Atoi(value)
	case "context_lines":
		c.ContextLines, err = strconv.Atoi(value)
	case "summary_limit":
		c.SummaryLimit, err = strconv.Atoi(value)
	case "recent_count":
		c.RecentCount, err = strconv.Atoi(value)
	case "report_dir":
		c.ReportDir = value
	case "log_level":
		c.LogLevel = value
	case "log_format":
		c.LogFormat = value
	case "cache.enabled":
		c.Cache.Enabled, err = strconv.ParseBool(value)
	case "cache.path":
		c.Cache.Path = value
	case "history.enabled":
		c.History.Enabled, err = strconv.ParseBool(value)
	case "history.path":
		c.History.Path = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendExec, BackendGoGit:
	default:
		return fmt.Errorf("backend must be %q or %q, got %q", BackendExec, BackendGoGit, c.Backend)
	}
	if c.QueryTimeoutSeconds <= 0 {
		return fmt.Errorf("query_timeout_seconds must be positive")
	}
	if c.QueryRetries < 0 {
		return fmt.Errorf("query_retries must not be negative")
	}
	if c.ContextLines < 0 {
		return fmt.Errorf("context_lines must not be negative")
	}
	if c.SummaryLimit <= 0 || c.RecentCount <= 0 {
		return fmt.Errorf("summary_limit and recent_count must be positive")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// QueryTimeout returns the per-query deadline.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSeconds) * time.Second
}

// Sources returns the config files that contributed to c.
func (c *Config) Sources() []string {
	return c.sources
}

// CachePath returns the comparison cache database path.
func (c *Config) CachePath() (string, error) {
	if c.Cache.Path != "" {
		return c.Cache.Path, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine cache directory: %w", err)
	}
	return filepath.Join(dir, AppName, CacheFile), nil
}

// HistoryPath returns the report history database path.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, HistoryFile), nil
}

// Save writes c to path as TOML.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Initialize writes a default repository config file into dir.
func Initialize(dir string) (string, error) {
	path := filepath.Join(dir, RepoFile)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", path)
	}

	cfg := Default()
	if err := cfg.Save(path); err != nil {
		return "", err
	}
	return path, nil
}
