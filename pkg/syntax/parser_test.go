package syntax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/livetype/pkg/syntax"
)

func kinds(nodes []*syntax.Node) []syntax.Kind {
	out := make([]syntax.Kind, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Kind)
	}
	return out
}

func TestParseDocumentWithBrokenCall(t *testing.T) {
	t.Parallel()

	text := "Intro text\n\n$x^2+1$\n\n#broken(\n\nMore text\n"
	root := syntax.Parse(text)

	require.Equal(t, syntax.Markup, root.Kind)
	assert.Equal(t, len(text), root.End)
	assert.Equal(t, []syntax.Kind{
		syntax.Text, syntax.Space, syntax.Text, syntax.Parbreak,
		syntax.Equation, syntax.Parbreak,
		syntax.FuncCall, syntax.Parbreak,
		syntax.Text, syntax.Space, syntax.Text, syntax.Space,
	}, kinds(root.Children))

	call := root.Children[6]
	assert.Equal(t, "#broken(", call.Text)
	assert.True(t, call.IsCall("broken"))
	assert.True(t, call.Erroneous())

	errs := root.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "#broken(", errs[0].Text)
	assert.Equal(t, "unclosed delimiter", errs[0].Message)
}

func TestParseRecoversWhenCallIsFollowedByDirective(t *testing.T) {
	t.Parallel()

	text := "#broken(\n#block(above: 0pt, below: 0pt)\n"
	root := syntax.Parse(text)

	calls := syntax.FindAll(root, func(n *syntax.Node) bool { return n.Kind == syntax.FuncCall })
	require.Len(t, calls, 2)
	assert.Equal(t, "#broken(", calls[0].Text)
	assert.True(t, calls[1].IsCall("block"))
	assert.False(t, calls[1].Erroneous())
	assert.Len(t, root.Errors(), 1)
}

func TestParseTopLevelKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want syntax.Kind
	}{
		{"heading", "== Title", syntax.Heading},
		{"list item", "- item", syntax.ListItem},
		{"enum item plus", "+ item", syntax.EnumItem},
		{"enum item numbered", "3. item", syntax.EnumItem},
		{"strong", "*bold*", syntax.Strong},
		{"emph", "_slanted_", syntax.Emph},
		{"inline raw", "`code`", syntax.Raw},
		{"block raw", "```go\nx := 1\n```", syntax.Raw},
		{"equation", "$a + b$", syntax.Equation},
		{"line comment", "// note", syntax.LineComment},
		{"block comment", "/* note */", syntax.BlockComment},
		{"escape", `\#`, syntax.Escape},
		{"linebreak", `\ `, syntax.Linebreak},
		{"let", "#let x = 1", syntax.LetBinding},
		{"set", "#set text(size: 12pt)", syntax.SetRule},
		{"show", "#show heading: strong", syntax.ShowRule},
		{"import", `#import "lib.typ": a, b`, syntax.ModuleImport},
		{"include", `#include "chapter.typ"`, syntax.ModuleInclude},
		{"call with content", "#box[inner]", syntax.FuncCall},
		{"plain ident", "#title", syntax.Ident},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			root := syntax.Parse(testCase.text)
			require.NotEmpty(t, root.Children)
			assert.Equal(t, testCase.want, root.Children[0].Kind)
			assert.False(t, root.Erroneous(), "unexpected errors: %v", root.Errors())
		})
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		wantError string
	}{
		{"unclosed equation", "$x + 1", "$"},
		{"unclosed strong", "*bold", "*"},
		{"unclosed content block", "#box[text", "#box["},
		{"unclosed string", `#text("abc`, `"abc`},
		{"bare hash", "# x", "#"},
		{"let without name", "#let = 1", "#let"},
		{"set without args", "#set text", "#set text"},
		{"unclosed block comment", "/* never", "/*"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			errs := syntax.Parse(testCase.text).Errors()
			require.NotEmpty(t, errs)
			assert.Equal(t, testCase.wantError, errs[0].Text)
		})
	}
}

func TestParseNodeDetails(t *testing.T) {
	t.Parallel()

	t.Run("heading level", func(t *testing.T) {
		t.Parallel()

		root := syntax.Parse("=== Deep")
		assert.Equal(t, 3, root.Children[0].Level())
	})

	t.Run("raw language", func(t *testing.T) {
		t.Parallel()

		root := syntax.Parse("```rust\nfn main() {}\n```")
		raw := root.Children[0]
		assert.True(t, raw.IsBlockRaw())
		assert.Equal(t, "rust", raw.Lang)
		assert.Equal(t, "fn main() {}", raw.Value)
	})

	t.Run("display equation", func(t *testing.T) {
		t.Parallel()

		assert.True(t, syntax.Parse("$ x $").Children[0].IsDisplay())
		assert.False(t, syntax.Parse("$x$").Children[0].IsDisplay())
	})

	t.Run("named arguments", func(t *testing.T) {
		t.Parallel()

		root := syntax.Parse(`#rect(width: 2cm, fill: "red")`)
		args := root.Children[0].Child(syntax.Args)
		require.NotNil(t, args)
		named := args.ChildrenOf(syntax.Named)
		require.Len(t, named, 2)
		assert.Equal(t, "width", named[0].Children[0].Value)
		assert.Equal(t, "2cm", named[0].Children[1].Value)
		assert.Equal(t, "red", named[1].Children[1].Value)
	})

	t.Run("pagebreak call", func(t *testing.T) {
		t.Parallel()

		root := syntax.Parse("#pagebreak()")
		assert.True(t, root.Children[0].IsCall("pagebreak"))
	})

	t.Run("embedded node includes hash", func(t *testing.T) {
		t.Parallel()

		root := syntax.Parse("a #f(1) b")
		call := syntax.FindFirst(root, func(n *syntax.Node) bool { return n.Kind == syntax.FuncCall })
		require.NotNil(t, call)
		assert.Equal(t, 2, call.Start)
		assert.Equal(t, "#f(1)", call.Text)
	})
}

func TestLeafAt(t *testing.T) {
	t.Parallel()

	root := syntax.Parse("#text(size: 12pt)")

	leaf := root.LeafAt(3, true)
	require.NotNil(t, leaf)
	assert.Equal(t, syntax.Ident, leaf.Kind)
	assert.Equal(t, "text", leaf.Value)

	leaf = root.LeafAt(13, true)
	require.NotNil(t, leaf)
	assert.Equal(t, syntax.Numeric, leaf.Kind)
}

func TestKindPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, syntax.Space.IsTrivia())
	assert.True(t, syntax.Parbreak.IsTrivia())
	assert.False(t, syntax.Text.IsTrivia())
	assert.True(t, syntax.LetBinding.IsStatement())
	assert.False(t, syntax.FuncCall.IsStatement())
	assert.Equal(t, "FuncCall", syntax.FuncCall.String())
}
