package typeset_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/yaklabco/livetype/pkg/typeset"
)

func TestFileTableSetSourceKeepsHandedOutSources(t *testing.T) {
	t.Parallel()

	table := typeset.NewFileTable()
	first := table.SetSource("lib.typ", "#let who = [old]")

	second := table.SetSource("lib.typ", "#let who = [new]")
	assert.NotSame(t, first, second)
	assert.Equal(t, "#let who = [old]", first.Text())

	current, err := table.Source("lib.typ")
	require.NoError(t, err)
	assert.Same(t, second, current)
	assert.Equal(t, "#let who = [new]", current.Text())
}

func TestFileTableConcurrentReplaceAndCompile(t *testing.T) {
	t.Parallel()

	table := typeset.NewFileTable()
	table.SetSource(mainFile, "#import \"lib.typ\": who\n\nHello #who")
	table.SetSource("lib.typ", "#let who = [v0]")
	world := typeset.NewTableWorld(table, mainFile, typeset.DefaultFontBook())
	compiler := typeset.NewCompiler(nil)

	var group errgroup.Group
	group.Go(func() error {
		for i := 1; i <= 50; i++ {
			table.SetSource("lib.typ", fmt.Sprintf("#let who = [v%d]", i))
		}
		return nil
	})
	for range 4 {
		group.Go(func() error {
			for range 10 {
				if res := compiler.Compile(context.Background(), world); res.HasErrors() {
					return fmt.Errorf("compile failed: %v", res.Errors())
				}
			}
			return nil
		})
	}
	require.NoError(t, group.Wait())
}
