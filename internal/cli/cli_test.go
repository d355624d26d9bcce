package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilupskalvis/commitdiff/internal/config"
	"github.com/kilupskalvis/commitdiff/internal/models"
	"github.com/kilupskalvis/commitdiff/internal/vcs"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// resetFlags restores every flag of every command to its default.
func resetFlags() {
	var walk func(*cobra.Command)
	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	walk = func(c *cobra.Command) {
		reset(c.Flags())
		reset(c.PersistentFlags())
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}

// isolate points config, cache and history at temp directories.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, "cache"))
	t.Setenv("COMMITDIFF_REPORT_DIR", filepath.Join(home, "reports"))
	return home
}

// useBackend makes every command query b.
func useBackend(t *testing.T, b vcs.Backend) {
	t.Helper()
	prev := openBackend
	openBackend = func(*config.Config, string) (vcs.Backend, error) { return b, nil }
	t.Cleanup(func() { openBackend = prev })
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()
	resetFlags()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	})

	code := execute(context.Background(), args)
	return stdout.String(), stderr.String(), code
}

func testBackend() *vcs.MockBackend {
	m := vcs.NewMockBackend()
	m.AddCommit(&models.CommitInfo{Hash: "1111111111111111", Author: "Ada", Email: "ada@example.com", Date: "d1", Message: "one"}, "v1")
	m.AddCommit(&models.CommitInfo{Hash: "2222222222222222", Author: "Grace", Email: "grace@example.com", Date: "d2", Message: "two"}, "v2")
	var changes []models.FileChange
	for i := 0; i < 15; i++ {
		changes = append(changes, models.FileChange{Status: models.StatusModified, Code: "M", Path: fmt.Sprintf("pkg/file%02d.go", i)})
	}
	m.SetRange("v1", "v2", changes, " 15 files changed, 30 insertions(+)\n", "@@ -1 +1 @@\n-a\n+b\n")
	m.Log = []models.LogEntry{
		{Hash: "2222222222222222", Message: "two"},
		{Hash: "1111111111111111", Message: "one"},
	}
	return m
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestQuickSummary_UnknownRefs(t *testing.T) {
	isolate(t)
	useBackend(t, vcs.NewMockBackend())

	stdout, stderr, code := runCLI(t, "", "abc123", "def456")

	out := lines(stdout)
	assert.Contains(t, out[0], "abc123")
	assert.Contains(t, out[0], "def456")
	assert.Equal(t, "Files changed: 0", out[len(out)-1])
	assert.Equal(t, ExitRuntime, code)
	assert.Contains(t, stderr, "error: no data could be retrieved")
}

func TestQuickSummary_Truncates(t *testing.T) {
	isolate(t)
	useBackend(t, testBackend())

	stdout, _, code := runCLI(t, "", "v1", "v2")

	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, lines(stdout)[0], "11111111 → 22222222")
	assert.Contains(t, stdout, "pkg/file09.go")
	assert.NotContains(t, stdout, "pkg/file10.go")
	assert.Contains(t, stdout, "... and 5 more files")
	assert.Equal(t, "Files changed: 15", lines(stdout)[len(lines(stdout))-1])
}

func TestRecentLog(t *testing.T) {
	isolate(t)
	useBackend(t, testBackend())

	stdout, _, code := runCLI(t, "", "--repo", "/src/app")

	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "Recent commits in /src/app:\n1. 22222222 - two\n2. 11111111 - one\n", stdout)
}

func TestUsageErrors(t *testing.T) {
	isolate(t)
	useBackend(t, testBackend())

	tests := []struct {
		name string
		args []string
	}{
		{"one ref", []string{"v1"}},
		{"three refs", []string{"v1", "v2", "v3"}},
		{"unknown flag", []string{"--bogus"}},
		{"repo without path", []string{"--repo"}},
		{"report missing ref", []string{"report", "v1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, code := runCLI(t, "", tt.args...)
			assert.Equal(t, ExitUsage, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, "error:")
			assert.Contains(t, stderr, "Usage:")
		})
	}
}

func TestInteractive(t *testing.T) {
	isolate(t)
	useBackend(t, testBackend())

	stdout, _, code := runCLI(t, "\nv1\nv2\ny\nn\n")

	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Interactive Mode")
	assert.Contains(t, stdout, "FROM COMMIT:")
	assert.Contains(t, stdout, "Full Diff:")
	assert.NotContains(t, stdout, "saved to")
}

func TestInteractive_MissingRefs(t *testing.T) {
	isolate(t)
	useBackend(t, testBackend())

	stdout, stderr, code := runCLI(t, "\n\n\n")

	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stdout, "Both commit references are required!")
	assert.NotContains(t, stderr, "Usage:")
}

func TestReportAndHistory(t *testing.T) {
	home := isolate(t)
	useBackend(t, testBackend())
	path := filepath.Join(home, "out", "report.md")

	stdout, stderr, code := runCLI(t, "", "report", "v1", "v2", "-o", path)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "Diff report saved to: "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "- **Modified:** pkg/file14.go")

	stdout, _, code = runCLI(t, "", "history")
	require.Equal(t, ExitSuccess, code)
	require.Len(t, lines(stdout), 1)
	assert.Contains(t, stdout, "v1..v2  15 file(s)")
	id := strings.Fields(stdout)[0]

	stdout, stderr, code = runCLI(t, "", "history", "show", id)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "Commits:    v1 → v2")
	assert.Contains(t, stdout, "Summary: 15 file(s) changed")
	assert.Contains(t, stdout, "pkg/file00.go")

	_, _, code = runCLI(t, "", "history", "show", "zzzz")
	assert.Equal(t, ExitUsage, code)
}

func TestReport_DefaultName(t *testing.T) {
	home := isolate(t)
	useBackend(t, testBackend())

	stdout, stderr, code := runCLI(t, "", "report", "v1", "v2", "--no-cache")
	require.Equal(t, ExitSuccess, code, stderr)

	entries, err := os.ReadDir(filepath.Join(home, "reports"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "git_diff_v1_v2_"))
	assert.Contains(t, stdout, entries[0].Name())
}

func TestDiff_PathAndContext(t *testing.T) {
	isolate(t)
	m := testBackend()
	useBackend(t, m)

	stdout, _, code := runCLI(t, "", "diff", "v1", "v2", "--path", "pkg/file01.go", "--context", "7")

	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "pkg/file01.go", m.LastDiffOpt.Path)
	assert.Equal(t, 7, m.LastDiffOpt.ContextLines)
	assert.Contains(t, stdout, "+b")
}

func TestDiff_ZeroContext(t *testing.T) {
	isolate(t)
	m := testBackend()
	useBackend(t, m)

	_, _, code := runCLI(t, "", "diff", "v1", "v2", "--context", "0")

	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, 0, m.LastDiffOpt.Context())

	_, _, code = runCLI(t, "", "diff", "v1", "v2")

	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, vcs.DefaultContextLines, m.LastDiffOpt.Context())
}

func TestDiff_QueryFailure(t *testing.T) {
	isolate(t)
	m := testBackend()
	m.UnifiedDiffErr = &vcs.QueryError{Op: "unified diff", Reason: "bad revision"}
	useBackend(t, m)

	_, stderr, code := runCLI(t, "", "diff", "v1", "v2")

	assert.Equal(t, ExitRuntime, code)
	assert.Contains(t, stderr, "bad revision")
}

func TestCache_ServesRepeatedComparison(t *testing.T) {
	isolate(t)
	m := testBackend()
	useBackend(t, m)

	_, _, code := runCLI(t, "", "v1", "v2")
	require.Equal(t, ExitSuccess, code)
	_, _, code = runCLI(t, "", "v1", "v2")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, 1, m.Calls("change list"))

	stdout, _, code := runCLI(t, "", "cache", "info")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Entries: 1")

	stdout, _, code = runCLI(t, "", "cache", "clear")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Cleared 1 cached comparison(s)")

	_, _, code = runCLI(t, "", "v1", "v2", "--no-cache")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, 2, m.Calls("change list"))
}

func TestConfigInitAndShow(t *testing.T) {
	isolate(t)
	repo := t.TempDir()

	stdout, _, code := runCLI(t, "", "config", "init", "--repo", repo)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, filepath.Join(repo, config.RepoFile))

	stdout, _, code = runCLI(t, "", "config", "show", "--repo", repo, "--context", "9")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "# from "+filepath.Join(repo, config.RepoFile))
	assert.Contains(t, stdout, "context_lines = 9")

	_, stderr, code := runCLI(t, "", "config", "init", "--repo", repo)
	assert.Equal(t, ExitRuntime, code)
	assert.Contains(t, stderr, "already exists")
}

func TestInvalidConfig(t *testing.T) {
	isolate(t)
	useBackend(t, testBackend())

	_, stderr, code := runCLI(t, "", "v1", "v2", "--backend", "svn")

	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "backend must be")
}

func TestVersion(t *testing.T) {
	stdout, _, code := runCLI(t, "", "version")

	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "commitdiff version dev\n", stdout)
}

func TestLog(t *testing.T) {
	isolate(t)
	useBackend(t, testBackend())

	stdout, _, code := runCLI(t, "", "log", "--oneline", "-n", "1")

	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "22222222 two\n", stdout)
}

func TestShow(t *testing.T) {
	isolate(t)
	useBackend(t, testBackend())

	stdout, _, code := runCLI(t, "", "show", "v1")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "commit 1111111111111111")
	assert.Contains(t, stdout, "Author: Ada <ada@example.com>")

	_, stderr, code := runCLI(t, "", "show", "nope")
	assert.Equal(t, ExitRuntime, code)
	assert.Contains(t, stderr, "commit not found: nope")
}
