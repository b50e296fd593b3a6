package cli_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/livetype/internal/cli"
	"github.com/yaklabco/livetype/pkg/fsutil"
	"github.com/yaklabco/livetype/pkg/runner"
)

func testInfo() cli.BuildInfo {
	return cli.BuildInfo{Version: "test-version", Commit: "test-commit", Date: "test-date"}
}

func TestNewRootCommand(t *testing.T) {
	t.Parallel()

	cmd := cli.NewRootCommand(testInfo())
	require.NotNil(t, cmd)
	assert.Equal(t, "livetype", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	for _, name := range []string{"debug", "config", "no-config", "color"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing global flag %q", name)
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	t.Parallel()

	cmd := cli.NewRootCommand(testInfo())
	for _, name := range []string{"compile", "pdf", "inspect", "serve", "init", "version"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestSubcommandFlags(t *testing.T) {
	t.Parallel()

	renderFlags := []string{"width", "height-cutoff", "encoding", "font", "locale", "prelude-file"}

	type testCase struct {
		command string
		flags   []string
	}

	tests := []testCase{
		{
			command: "compile",
			flags: append([]string{
				"format", "jobs", "out", "exclude", "resolve-rounds", "strict",
				"no-context", "compact", "verbose", "fragments", "payload",
			}, renderFlags...),
		},
		{command: "pdf", flags: append([]string{"output", "resolve-rounds"}, renderFlags...)},
		{command: "inspect", flags: append([]string{"mode", "no-compile", "text", "inflections"}, renderFlags...)},
		{command: "serve", flags: append([]string{"addr", "resolve-rounds"}, renderFlags...)},
		{command: "init", flags: []string{"force", "full", "format", "output"}},
	}

	for _, tc := range tests {
		t.Run(tc.command, func(t *testing.T) {
			t.Parallel()

			root := cli.NewRootCommand(testInfo())
			sub, _, err := root.Find([]string{tc.command})
			require.NoError(t, err)
			for _, name := range tc.flags {
				assert.NotNil(t, sub.Flags().Lookup(name), "%s: missing flag %q", tc.command, name)
			}
		})
	}
}

func TestServeDefaultAddr(t *testing.T) {
	t.Parallel()

	root := cli.NewRootCommand(testInfo())
	sub, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.Equal(t, cli.DefaultAddr, sub.Flags().Lookup("addr").DefValue)
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	cmd := cli.NewRootCommand(testInfo())
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	out := stdout.String()
	assert.Contains(t, out, "livetype")
	assert.Contains(t, out, "test-version")
	assert.Contains(t, out, "test-commit")
}

func TestUsageErrors(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name string
		args []string
	}

	tests := []testCase{
		{name: "unknown flag", args: []string{"compile", "--no-such-flag"}},
		{name: "version takes no args", args: []string{"version", "extra"}},
		{name: "pdf needs a file", args: []string{"pdf"}},
		{name: "inspect takes one file", args: []string{"inspect", "a.typ", "b.typ"}},
		{name: "unknown inspect mode", args: []string{"--no-config", "inspect", "--mode", "draft", "a.typ"}},
		{name: "invalid init format", args: []string{"init", "--format", "toml", "--output", "unused"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cmd := cli.NewRootCommand(testInfo())
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(tc.args)

			err := cmd.Execute()
			require.ErrorIs(t, err, cli.ErrUsage)
			assert.Equal(t, cli.ExitInvalidUsage, cli.ExitCodeFromError(err))
		})
	}
}

func TestExitCodeFromResult(t *testing.T) {
	t.Parallel()

	stats := func(mutate func(*runner.Stats)) *runner.Result {
		s := runner.Stats{DiagnosticsBySeverity: map[string]int{}}
		mutate(&s)
		return &runner.Result{Stats: s}
	}

	type testCase struct {
		name   string
		result *runner.Result
		strict bool
		want   int
	}

	tests := []testCase{
		{name: "nil result", result: nil, want: cli.ExitSuccess},
		{name: "clean", result: stats(func(*runner.Stats) {}), want: cli.ExitSuccess},
		{
			name:   "errored document",
			result: stats(func(s *runner.Stats) { s.DocumentsErrored = 1 }),
			want:   cli.ExitCompileErrors,
		},
		{
			name:   "aborted document",
			result: stats(func(s *runner.Stats) { s.DocumentsAborted = 1 }),
			want:   cli.ExitCompileErrors,
		},
		{
			name:   "error diagnostics",
			result: stats(func(s *runner.Stats) { s.DiagnosticsBySeverity["error"] = 2 }),
			want:   cli.ExitCompileErrors,
		},
		{
			name:   "warnings",
			result: stats(func(s *runner.Stats) { s.DiagnosticsBySeverity["warning"] = 1 }),
			want:   cli.ExitSuccess,
		},
		{
			name:   "warnings in strict mode",
			result: stats(func(s *runner.Stats) { s.DiagnosticsBySeverity["warning"] = 1 }),
			strict: true,
			want:   cli.ExitCompileWarnings,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, cli.ExitCodeFromResult(tc.result, tc.strict))
		})
	}
}

func TestExitCodeFromError(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name string
		err  error
		want int
	}

	tests := []testCase{
		{name: "nil", err: nil, want: cli.ExitSuccess},
		{name: "issues", err: &cli.IssuesError{Code: cli.ExitCompileWarnings}, want: cli.ExitCompileWarnings},
		{name: "wrapped issues", err: fmt.Errorf("run: %w", &cli.IssuesError{Code: 1}), want: 1},
		{name: "bare issues sentinel", err: cli.ErrCompileIssuesFound, want: cli.ExitCompileErrors},
		{name: "usage", err: fmt.Errorf("%w: bad flag", cli.ErrUsage), want: cli.ExitInvalidUsage},
		{name: "config", err: errors.Join(cli.ErrConfig, errors.New("parse")), want: cli.ExitConfigError},
		{name: "not found", err: fmt.Errorf("read: %w", fsutil.ErrNotFound), want: cli.ExitIOError},
		{name: "interactive stdin", err: cli.ErrInteractiveStdin, want: cli.ExitIOError},
		{name: "other", err: errors.New("boom"), want: cli.ExitInternalError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, cli.ExitCodeFromError(tc.err))
		})
	}
}

func TestIssuesErrorUnwraps(t *testing.T) {
	t.Parallel()

	err := &cli.IssuesError{Code: 2}
	require.ErrorIs(t, err, cli.ErrCompileIssuesFound)
	assert.Contains(t, err.Error(), "exit code 2")
}
