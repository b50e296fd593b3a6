package typeset

import (
	"context"
	"fmt"

	"github.com/yaklabco/livetype/pkg/syntax"
)

// Compiler turns the main source of a world into a laid-out document.
// A Compiler holds no per-document state and is safe for concurrent use.
type Compiler struct {
	fonts FontBook
}

// NewCompiler creates a compiler. fonts is used when the world provides no
// font book of its own; nil selects DefaultFontBook.
func NewCompiler(fonts FontBook) *Compiler {
	if fonts == nil {
		fonts = DefaultFontBook()
	}
	return &Compiler{fonts: fonts}
}

// Compile compiles the world's main source. The returned result carries a
// document only when no error diagnostics were produced.
func (c *Compiler) Compile(ctx context.Context, world World) Result {
	main := world.Main()
	src, err := world.Source(main)
	if err != nil {
		return Result{
			Diagnostics: []Diagnostic{{
				Severity: SeverityError,
				Span:     Detached(),
				Message:  fmt.Sprintf("failed to load main source %q: %v", string(main), err),
			}},
			Requests: []Request{{Kind: RequestSource, Path: string(main)}},
		}
	}

	root := syntax.Parse(src.Text())
	if root.Erroneous() {
		var diags []Diagnostic
		for _, n := range root.Errors() {
			diags = append(diags, Diagnostic{
				Severity: SeverityError,
				Span:     Span{File: main, Start: n.Start, End: n.End},
				Message:  n.Message,
			})
		}
		return Result{Diagnostics: diags}
	}

	if err := ctx.Err(); err != nil {
		return Result{Diagnostics: []Diagnostic{{
			Severity: SeverityError,
			Span:     Detached(),
			Message:  fmt.Sprintf("compilation canceled: %v", err),
		}}}
	}

	fonts := c.fonts
	if wf := world.Fonts(); wf != nil {
		fonts = wf
	}

	e := newEvaluator(ctx, world, fonts)
	body, _ := e.evalMarkup(root.Children, newScope(e.global), true)

	res := Result{Diagnostics: e.diags, Requests: e.requests}
	if res.HasErrors() {
		return res
	}

	l := &layouter{fonts: fonts}
	res.Document = l.layoutDocument(body, e.page)
	return res
}
