package typeset_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/livetype/pkg/source"
	"github.com/yaklabco/livetype/pkg/typeset"
)

func labels(completions []typeset.Completion) []string {
	out := make([]string, 0, len(completions))
	for _, c := range completions {
		out = append(out, c.Label)
	}
	return out
}

func TestAutocomplete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		explicit bool
		from     int
		contains []string
		excludes []string
	}{
		{
			name:     "builtin after hash",
			text:     "#te",
			from:     1,
			contains: []string{"text"},
			excludes: []string{"rect"},
		},
		{
			name:     "keywords after hash",
			text:     "#le",
			from:     1,
			contains: []string{"let"},
		},
		{
			name:     "let bindings",
			text:     "#let total = 1\n#to",
			from:     16,
			contains: []string{"total"},
		},
		{
			name:     "set targets",
			text:     "#set pa",
			from:     5,
			contains: []string{"page", "par"},
			excludes: []string{"rect"},
		},
		{
			name:     "named parameters",
			text:     "#text(si",
			from:     6,
			contains: []string{"size"},
			excludes: []string{"fill"},
		},
		{
			name:     "set rule parameters",
			text:     "#set page(mar",
			from:     10,
			contains: []string{"margin"},
		},
		{
			name:     "argument values",
			text:     "#text(fill: bl",
			from:     12,
			contains: []string{"blue", "black", "block"},
		},
		{
			name:     "explicit in markup",
			text:     "Hello ",
			explicit: true,
			from:     6,
			contains: []string{"heading", "text"},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			src := source.New(mainFile, testCase.text)
			from, completions, ok := typeset.Autocomplete(nil, nil, src, len(testCase.text), testCase.explicit)
			require.True(t, ok)
			assert.Equal(t, testCase.from, from)

			got := labels(completions)
			for _, want := range testCase.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range testCase.excludes {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}

func TestAutocompleteMarkupNeedsExplicit(t *testing.T) {
	t.Parallel()

	src := source.New(mainFile, "Hello wor")
	_, completions, ok := typeset.Autocomplete(nil, nil, src, src.Len(), false)
	assert.False(t, ok)
	assert.Empty(t, completions)

	_, _, ok = typeset.Autocomplete(nil, nil, src, src.Len()+1, true)
	assert.False(t, ok)
}

func TestTooltip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		cursor int
		kind   typeset.TooltipKind
		value  string
	}{
		{
			name:   "let binding",
			text:   "#let width = 5pt\n#width",
			cursor: 21,
			kind:   typeset.TooltipCode,
			value:  "let width = 5pt",
		},
		{
			name:   "raw language",
			text:   "```rust\nfn main() {}\n```",
			cursor: 10,
			kind:   typeset.TooltipText,
			value:  "Raw text in `rust`.",
		},
		{
			name:   "length conversion",
			text:   "#h(1in)",
			cursor: 4,
			kind:   typeset.TooltipCode,
			value:  "72pt",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			src := source.New(mainFile, testCase.text)
			tip, ok := typeset.Tooltip(nil, nil, src, testCase.cursor, typeset.SideAfter)
			require.True(t, ok)
			assert.Equal(t, testCase.kind, tip.Kind)
			assert.Equal(t, testCase.value, tip.Value)
		})
	}
}

func TestTooltipBuiltinDocs(t *testing.T) {
	t.Parallel()

	src := source.New(mainFile, "#rect(width: 1cm)")
	tip, ok := typeset.Tooltip(nil, nil, src, 3, typeset.SideAfter)
	require.True(t, ok)
	assert.Equal(t, typeset.TooltipText, tip.Kind)
	assert.Contains(t, tip.Value, "rectangle")

	_, ok = typeset.Tooltip(nil, nil, source.New(mainFile, "plain"), 2, typeset.SideAfter)
	assert.False(t, ok)
}

func TestJumpFromClick(t *testing.T) {
	t.Parallel()

	text := autoPage + "Hello #link(\"https://example.com\")[site]"
	world := newWorld(t, text, nil)
	res := typeset.NewCompiler(nil).Compile(context.Background(), world)
	require.False(t, res.HasErrors(), messages(res.Diagnostics))

	start := len(autoPage)

	jump, ok := typeset.JumpFromClick(world, res.Document, typeset.Point{X: 2, Y: 5})
	require.True(t, ok)
	assert.False(t, jump.IsURL())
	assert.Equal(t, mainFile, jump.File)
	assert.Equal(t, start, jump.Offset)

	jump, ok = typeset.JumpFromClick(world, res.Document, typeset.Point{X: 4, Y: 5})
	require.True(t, ok)
	assert.Equal(t, start+1, jump.Offset)

	// "Hello " is 33pt wide; the link text follows it.
	jump, ok = typeset.JumpFromClick(world, res.Document, typeset.Point{X: 40, Y: 5})
	require.True(t, ok)
	assert.True(t, jump.IsURL())
	assert.Equal(t, "https://example.com", jump.URL)

	_, ok = typeset.JumpFromClick(world, res.Document, typeset.Point{X: 5, Y: 500})
	assert.False(t, ok)

	_, ok = typeset.JumpFromClick(world, nil, typeset.Point{})
	assert.False(t, ok)
}
