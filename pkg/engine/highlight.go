package engine

import (
	"fmt"

	"github.com/yaklabco/livetype/pkg/source"
	"github.com/yaklabco/livetype/pkg/syntax"
)

// Highlight tags a range of the user document with CSS classes.
type Highlight struct {
	Range Range  `json:"range"`
	Class string `json:"class"`
}

// highlightClass returns the classes for n, or "" when n is not tagged.
func highlightClass(n *syntax.Node, parent *syntax.Node) string {
	switch n.Kind {
	case syntax.Heading:
		return fmt.Sprintf("typ-heading typ-heading-level-%d", n.Level())
	case syntax.Marker:
		return "typ-marker"
	case syntax.Strong:
		return "typ-strong"
	case syntax.Emph:
		return "typ-emph"
	case syntax.Raw:
		return "typ-raw"
	case syntax.Equation:
		return "typ-math"
	case syntax.LineComment, syntax.BlockComment:
		return "typ-comment"
	case syntax.Escape:
		return "typ-escape"
	case syntax.Keyword, syntax.Bool, syntax.None, syntax.Auto:
		return "typ-key"
	case syntax.Str:
		return "typ-str"
	case syntax.Numeric:
		return "typ-num"
	case syntax.Ident:
		if parent != nil && parent.Kind == syntax.FuncCall && parent.Children[0] == n {
			return "typ-func"
		}
		return "typ-pol"
	case syntax.Error:
		return "typ-error"
	default:
		return ""
	}
}

// highlight tags the syntax of text. Ranges are UTF-16 and appear in
// pre-order, so an enclosing node precedes the nodes it contains.
func highlight(text string) []Highlight {
	src := source.New("", text)
	var out []Highlight

	var walk func(n, parent *syntax.Node)
	walk = func(n, parent *syntax.Node) {
		if class := highlightClass(n, parent); class != "" && n.End > n.Start {
			if r, ok := utf16Range(src, n.Start, n.End); ok {
				out = append(out, Highlight{Range: r, Class: class})
			}
		}
		for _, c := range n.Children {
			walk(c, n)
		}
	}
	walk(syntax.Parse(text), nil)
	return out
}
