package runner_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/livetype/pkg/runner"
)

func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"intro.typ":          "= Intro",
		"chapters/one.typ":   "One",
		"chapters/two.TYP":   "Two",
		"chapters/notes.txt": "skip",
		"drafts/old.typ":     "Old",
		".hidden/secret.typ": "skip",
		".dot.typ":           "skip",
		"build/out/gen.typ":  "Gen",
	})

	type testCase struct {
		name string
		opts runner.Options
		want []string
	}

	tests := []testCase{
		{
			name: "whole tree",
			opts: runner.Options{},
			want: []string{"build/out/gen.typ", "chapters/one.typ", "chapters/two.TYP", "drafts/old.typ", "intro.typ"},
		},
		{
			name: "exclude directory glob",
			opts: runner.Options{ExcludeGlobs: []string{"drafts/**", "**/out"}},
			want: []string{"chapters/one.typ", "chapters/two.TYP", "intro.typ"},
		},
		{
			name: "include base name glob",
			opts: runner.Options{IncludeGlobs: []string{"o*.typ"}},
			want: []string{"chapters/one.typ", "drafts/old.typ"},
		},
		{
			name: "include nested glob",
			opts: runner.Options{IncludeGlobs: []string{"chapters/**"}},
			want: []string{"chapters/one.typ", "chapters/two.TYP"},
		},
		{
			name: "custom extensions",
			opts: runner.Options{Extensions: []string{".txt"}},
			want: []string{"chapters/notes.txt"},
		},
		{
			name: "explicit hidden file and duplicates",
			opts: runner.Options{Paths: []string{".dot.typ", "intro.typ", "./intro.typ"}},
			want: []string{".dot.typ", "intro.typ"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			opts := tc.opts
			opts.WorkingDir = dir
			files, err := runner.Discover(context.Background(), opts)
			require.NoError(t, err)

			want := make([]string, len(tc.want))
			for i, w := range tc.want {
				want[i] = filepath.Join(dir, filepath.FromSlash(w))
			}
			assert.Equal(t, want, files)
		})
	}
}

func TestDiscoverMissingPath(t *testing.T) {
	t.Parallel()

	_, err := runner.Discover(context.Background(), runner.Options{
		Paths:      []string{"missing.typ"},
		WorkingDir: t.TempDir(),
	})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDiscoverCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Discover(ctx, runner.Options{WorkingDir: t.TempDir()})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDiscoverDirectorySymlinks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	outside := t.TempDir()
	writeTree(t, outside, map[string]string{"linked.typ": "Linked"})
	writeTree(t, dir, map[string]string{"main.typ": "Main"})
	if err := os.Symlink(outside, filepath.Join(dir, "shared")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	files, err := runner.Discover(context.Background(), runner.Options{WorkingDir: dir})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "main.typ")}, files)

	files, err = runner.Discover(context.Background(), runner.Options{WorkingDir: dir, FollowSymlinks: true})
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestDefaultExtensions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{".typ"}, runner.DefaultExtensions())
}
