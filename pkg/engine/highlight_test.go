package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/livetype/pkg/engine"
)

func classes(highlights []engine.Highlight) map[string]engine.Range {
	out := make(map[string]engine.Range, len(highlights))
	for _, h := range highlights {
		if _, seen := out[h.Class]; !seen {
			out[h.Class] = h.Range
		}
	}
	return out
}

func TestHighlight(t *testing.T) {
	t.Parallel()

	eng, h := newEngine(t)

	tests := []struct {
		name string
		text string
		want map[string]engine.Range
	}{
		{
			name: "heading",
			text: "== Section",
			want: map[string]engine.Range{
				"typ-heading typ-heading-level-2": {Start: 0, End: 10},
				"typ-marker":                      {Start: 0, End: 3},
			},
		},
		{
			name: "utf-16 offsets",
			text: "é *b* _i_",
			want: map[string]engine.Range{
				"typ-strong": {Start: 2, End: 5},
				"typ-emph":   {Start: 6, End: 9},
			},
		},
		{
			name: "code",
			text: "#let n = \"s\"\n#text(size: 12pt)[x] // note",
			want: map[string]engine.Range{
				"typ-str":     {Start: 9, End: 12},
				"typ-func":    {Start: 14, End: 18},
				"typ-num":     {Start: 25, End: 29},
				"typ-comment": {Start: 34, End: 41},
			},
		},
		{
			name: "math and raw",
			text: "$x$ `y`",
			want: map[string]engine.Range{
				"typ-math": {Start: 0, End: 3},
				"typ-raw":  {Start: 4, End: 7},
			},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			highlights, err := eng.Highlight(h, testCase.text)
			require.NoError(t, err)
			got := classes(highlights)
			for class, r := range testCase.want {
				assert.Equal(t, r, got[class], class)
			}
		})
	}
}

func TestHighlightErrors(t *testing.T) {
	t.Parallel()

	eng, h := newEngine(t)
	highlights, err := eng.Highlight(h, "#broken(")
	require.NoError(t, err)
	assert.Contains(t, classes(highlights), "typ-error")
}
