package typeset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yaklabco/livetype/pkg/langdetect"
	"github.com/yaklabco/livetype/pkg/source"
	"github.com/yaklabco/livetype/pkg/syntax"
)

// CompletionKind classifies a completion.
type CompletionKind string

const (
	CompletionFunc     CompletionKind = "func"
	CompletionKeyword  CompletionKind = "keyword"
	CompletionVariable CompletionKind = "variable"
	CompletionParam    CompletionKind = "param"
	CompletionConstant CompletionKind = "constant"
)

// Completion is one autocomplete suggestion.
type Completion struct {
	Kind   CompletionKind `json:"kind"`
	Label  string         `json:"label"`
	Apply  string         `json:"apply,omitempty"`
	Detail string         `json:"detail,omitempty"`
}

// TooltipKind tells how a tooltip value is to be presented.
type TooltipKind string

const (
	TooltipText TooltipKind = "text"
	TooltipCode TooltipKind = "code"
)

// TooltipContent is hover information. Text tooltips are markdown.
type TooltipContent struct {
	Kind  TooltipKind `json:"kind"`
	Value string      `json:"value"`
}

// Side selects which neighbor of a cursor position a hover refers to.
type Side int

const (
	SideBefore Side = iota
	SideAfter
)

// Jump is the target of a click into the document: a byte offset in a
// source file, or an external URL.
type Jump struct {
	URL    string    `json:"url,omitempty"`
	File   source.ID `json:"file,omitempty"`
	Offset int       `json:"offset"`
}

// IsURL reports whether the jump leaves the document.
func (j Jump) IsURL() bool {
	return j.URL != ""
}

//nolint:gochecknoglobals // Read-only lookup tables.
var (
	keywords  = []string{"let", "set", "show", "import", "include"}
	constants = []string{"none", "auto", "true", "false"}

	setParams = map[string][]string{
		"page":    {"width", "height", "margin", "fill"},
		"text":    {"size", "fill", "font", "weight", "style", "lang"},
		"heading": {"fill"},
		"par":     {"leading", "spacing"},
		"block":   {"above", "below"},
		"link":    {"fill"},
	}
)

func isIdentByte(c byte) bool {
	return c == '_' || c == '-' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// identStart returns the start of the identifier that ends at cursor.
func identStart(text string, cursor int) int {
	from := cursor
	for from > 0 && isIdentByte(text[from-1]) {
		from--
	}
	return from
}

// openCall finds the innermost unclosed argument list before offset and
// returns its callee and whether it belongs to a set rule.
func openCall(text string, offset int) (callee string, set bool, argStart int, ok bool) {
	depth := 0
	for i := offset - 1; i >= 0; i-- {
		switch text[i] {
		case ')':
			depth++
		case '[', ']':
			if depth == 0 {
				return "", false, 0, false
			}
		case '(':
			if depth > 0 {
				depth--
				continue
			}
			from := identStart(text, i)
			if from == i {
				return "", false, 0, false
			}
			callee = text[from:i]
			before := strings.TrimRight(text[:from], " \t")
			set = strings.HasSuffix(before, "#set")
			if !set && (from == 0 || text[from-1] != '#') && !strings.HasSuffix(before, ":") && !strings.HasSuffix(before, ",") && !strings.HasSuffix(before, "(") {
				return "", false, 0, false
			}
			return callee, set, i + 1, true
		}
	}
	return "", false, 0, false
}

// inValuePosition reports whether the argument being typed already has a name.
func inValuePosition(text string, argStart, from int) bool {
	seg := text[argStart:from]
	if i := strings.LastIndexByte(seg, ','); i >= 0 {
		seg = seg[i+1:]
	}
	return strings.Contains(seg, ":")
}

func letNames(root *syntax.Node, before int) []string {
	var names []string
	for _, n := range syntax.FindAll(root, func(n *syntax.Node) bool { return n.Kind == syntax.LetBinding }) {
		if n.End > before {
			continue
		}
		if ident := n.Child(syntax.Ident); ident != nil {
			names = append(names, ident.Value)
		}
	}
	return names
}

// Autocomplete suggests completions at a byte cursor in src. It returns the
// byte offset the completions replace from. Without explicit, suggestions
// are only offered in code.
func Autocomplete(_ World, _ *Document, src *source.Source, cursor int, explicit bool) (int, []Completion, bool) {
	text := src.Text()
	if cursor < 0 || cursor > len(text) {
		return 0, nil, false
	}
	root := syntax.Parse(text)
	from := identStart(text, cursor)
	prefix := text[from:cursor]

	var out []Completion
	add := func(c Completion) {
		if strings.HasPrefix(c.Label, prefix) {
			out = append(out, c)
		}
	}
	values := func() {
		for _, name := range Builtins() {
			b, _ := lookupBuiltin(name)
			add(Completion{Kind: CompletionFunc, Label: name, Apply: name + "()", Detail: firstSentence(b.doc)})
		}
		for _, name := range letNames(root, from) {
			add(Completion{Kind: CompletionVariable, Label: name})
		}
	}

	before := strings.TrimRight(text[:from], " \t")
	switch {
	case strings.HasSuffix(before, "#set") && from > len(before):
		for _, name := range Settable() {
			add(Completion{Kind: CompletionFunc, Label: name, Apply: name + "()"})
		}
	case from > 0 && text[from-1] == '#':
		values()
		for _, kw := range keywords {
			add(Completion{Kind: CompletionKeyword, Label: kw})
		}
	default:
		callee, set, argStart, ok := openCall(text, from)
		switch {
		case ok && !inValuePosition(text, argStart, from):
			params := setParams[callee]
			if !set {
				if b, found := lookupBuiltin(callee); found {
					params = b.params
				}
			}
			for _, p := range params {
				add(Completion{Kind: CompletionParam, Label: p, Apply: p + ": "})
			}
		case ok:
			values()
			for _, c := range constants {
				add(Completion{Kind: CompletionConstant, Label: c})
			}
			for name := range namedColors {
				add(Completion{Kind: CompletionConstant, Label: name})
			}
		case explicit:
			for _, name := range Builtins() {
				out = append(out, Completion{Kind: CompletionFunc, Label: name, Apply: "#" + name + "()"})
			}
			from = cursor
		}
	}

	if len(out) == 0 {
		return 0, nil, false
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Label < out[j].Label
	})
	return from, out, true
}

func firstSentence(doc string) string {
	if i := strings.Index(doc, ". "); i >= 0 {
		return doc[:i+1]
	}
	if i := strings.IndexByte(doc, '\n'); i >= 0 {
		return doc[:i]
	}
	return doc
}

// nodePath returns the nodes from root down to the deepest one at offset.
func nodePath(root *syntax.Node, offset int, before bool) []*syntax.Node {
	var out []*syntax.Node
	for n := root; n != nil; {
		out = append(out, n)
		var next *syntax.Node
		for _, c := range n.Children {
			if c.Contains(offset) && (before || c.End != offset) {
				next = c
				break
			}
		}
		n = next
	}
	return out
}

// Tooltip describes the thing at a byte cursor in src.
func Tooltip(_ World, _ *Document, src *source.Source, cursor int, side Side) (TooltipContent, bool) {
	text := src.Text()
	if cursor < 0 || cursor > len(text) {
		return TooltipContent{}, false
	}
	root := syntax.Parse(text)
	nodes := nodePath(root, cursor, side == SideBefore)

	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		switch n.Kind {
		case syntax.Ident:
			if tip, ok := identTooltip(root, n, nodes[:i]); ok {
				return tip, true
			}
		case syntax.Raw:
			lang := n.Lang
			if lang == "" && n.IsBlockRaw() {
				if detected := langdetect.Detect([]byte(n.Value)); detected != langdetect.Unknown {
					return TooltipContent{Kind: TooltipText, Value: fmt.Sprintf("Raw text, detected as `%s`.", detected)}, true
				}
			}
			if lang == "" {
				return TooltipContent{Kind: TooltipText, Value: "Raw text."}, true
			}
			return TooltipContent{Kind: TooltipText, Value: fmt.Sprintf("Raw text in `%s`.", lang)}, true
		case syntax.Numeric:
			if v, err := parseNumeric(n.Value); err == nil {
				if l, ok := v.(length); ok && l.pt != 0 && n.Value != l.String() {
					return TooltipContent{Kind: TooltipCode, Value: l.String()}, true
				}
			}
		}
	}
	return TooltipContent{}, false
}

func identTooltip(root, ident *syntax.Node, ancestors []*syntax.Node) (TooltipContent, bool) {
	name := ident.Value
	if len(ancestors) > 0 && ancestors[len(ancestors)-1].Kind == syntax.SetRule {
		if params, ok := setParams[name]; ok {
			return TooltipContent{
				Kind:  TooltipText,
				Value: fmt.Sprintf("Sets defaults for `%s`. Settable: %s.", name, strings.Join(params, ", ")),
			}, true
		}
	}

	for _, n := range syntax.FindAll(root, func(n *syntax.Node) bool { return n.Kind == syntax.LetBinding }) {
		if id := n.Child(syntax.Ident); id != nil && id.Value == name && n.End <= ident.Start {
			return TooltipContent{Kind: TooltipCode, Value: strings.TrimPrefix(n.Text, "#")}, true
		}
	}

	if b, ok := lookupBuiltin(name); ok {
		return TooltipContent{Kind: TooltipText, Value: b.doc}, true
	}
	return TooltipContent{}, false
}

// JumpFromClick finds what was clicked at p, in document coordinates with
// pages stacked vertically. Links win over the content below them.
func JumpFromClick(world World, doc *Document, p Point) (Jump, bool) {
	if doc == nil {
		return Jump{}, false
	}
	y := 0.0
	for _, page := range doc.Pages {
		if p.Y >= y && p.Y <= y+page.Frame.Height {
			local := Point{X: p.X, Y: p.Y - y}
			if url, ok := hitLink(page.Frame, local); ok {
				return Jump{URL: url}, true
			}
			return hitSource(world, page.Frame, local)
		}
		y += page.Frame.Height
	}
	return Jump{}, false
}

func groupLocal(g *GroupItem, pos, p Point) (Point, bool) {
	inv, ok := g.Transform.Invert()
	if !ok {
		return Point{}, false
	}
	return inv.Apply(Point{X: p.X - pos.X, Y: p.Y - pos.Y}), true
}

func within(pos Point, w, h float64, p Point) bool {
	return Rect{Min: pos, Max: Point{X: pos.X + w, Y: pos.Y + h}}.Contains(p)
}

func hitLink(f *Frame, p Point) (string, bool) {
	for i := len(f.Items) - 1; i >= 0; i-- {
		it := f.Items[i]
		switch item := it.Item.(type) {
		case *LinkItem:
			if within(it.Pos, item.Width, item.Height, p) {
				return item.URL, true
			}
		case *GroupItem:
			if local, ok := groupLocal(item, it.Pos, p); ok {
				if url, ok := hitLink(item.Frame, local); ok {
					return url, true
				}
			}
		}
	}
	return "", false
}

func hitSource(world World, f *Frame, p Point) (Jump, bool) {
	for i := len(f.Items) - 1; i >= 0; i-- {
		it := f.Items[i]
		switch item := it.Item.(type) {
		case *TextItem:
			top := it.Pos.Y - item.Ascender*item.Size
			if !within(Point{X: it.Pos.X, Y: top}, item.Width(), (item.Ascender+item.Descender)*item.Size, p) {
				continue
			}
			x := it.Pos.X
			for _, g := range item.Glyphs {
				if p.X <= x+g.Advance {
					start, end, ok := SpanRange(world, g.Span)
					if !ok {
						break
					}
					offset := start
					if p.X > x+g.Advance/2 && end-start == len(g.Text) {
						offset = end
					}
					return Jump{File: g.Span.File, Offset: offset}, true
				}
				x += g.Advance
			}
		case *ShapeItem:
			if jump, ok := spanJump(world, item.Span, within(it.Pos, item.Width, item.Height, p)); ok {
				return jump, true
			}
		case *ImageItem:
			if jump, ok := spanJump(world, item.Span, within(it.Pos, item.Width, item.Height, p)); ok {
				return jump, true
			}
		case *GroupItem:
			if local, ok := groupLocal(item, it.Pos, p); ok {
				if jump, ok := hitSource(world, item.Frame, local); ok {
					return jump, true
				}
			}
		}
	}
	return Jump{}, false
}

func spanJump(world World, span Span, hit bool) (Jump, bool) {
	if !hit {
		return Jump{}, false
	}
	start, _, ok := SpanRange(world, span)
	if !ok {
		return Jump{}, false
	}
	return Jump{File: span.File, Offset: start}, true
}
