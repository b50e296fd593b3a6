package fsutil_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/livetype/pkg/fsutil"
)

func TestWriteAtomic(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name     string
		existing string
		content  string
		mode     os.FileMode
		wantMode os.FileMode
	}

	tests := []testCase{
		{name: "new file", content: "<svg/>", mode: 0o600, wantMode: 0o600},
		{name: "overwrite", existing: "old", content: "new", mode: 0o644, wantMode: 0o644},
		{name: "default mode", content: "x", wantMode: fsutil.DefaultFileMode},
		{name: "empty content", content: "", mode: 0o644, wantMode: 0o644},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			path := filepath.Join(dir, "fragment.svg")
			if tc.existing != "" {
				require.NoError(t, os.WriteFile(path, []byte(tc.existing), 0o644))
			}

			require.NoError(t, fsutil.WriteAtomic(context.Background(), path, []byte(tc.content), tc.mode))

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tc.content, string(got))

			stat, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, tc.wantMode, stat.Mode().Perm())

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

func TestWriteAtomicCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "out.pdf")
	err := fsutil.WriteAtomic(ctx, path, []byte("%PDF"), 0)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, path)
}

func TestWriteAtomicMissingParent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	err := fsutil.WriteAtomic(context.Background(), filepath.Join(dir, "missing", "out.pdf"), []byte("x"), 0)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp."), "temp file left behind: %s", e.Name())
	}
}

func TestWriteAtomicIfChanged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fragment.svg")

	written, err := fsutil.WriteAtomicIfChanged(ctx, path, []byte("a"), 0)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = fsutil.WriteAtomicIfChanged(ctx, path, []byte("a"), 0)
	require.NoError(t, err)
	assert.False(t, written)

	written, err = fsutil.WriteAtomicIfChanged(ctx, path, []byte("b"), 0)
	require.NoError(t, err)
	assert.True(t, written)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "b", string(got))
}
