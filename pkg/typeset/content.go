package typeset

import "github.com/yaklabco/livetype/pkg/source"

// content is the evaluated, not yet layouted form of markup.
type content []elem

// elem is one element of content. Styles are not stored on elements; they
// are resolved during layout from setElem and styledElem wrappers.
type elem interface {
	isElem()
}

// textElem is a run of text. When exact is set, byte i of text corresponds
// to byte span.Start+i of span.File.
type textElem struct {
	text  string
	span  Span
	exact bool
}

type spaceElem struct{}

type linebreakElem struct{}

type parbreakElem struct{}

// styledElem applies a style change to its body.
type styledElem struct {
	body  content
	apply func(*style)
}

// setElem applies a style change to the remaining siblings.
type setElem struct {
	apply func(*style)
}

type headingElem struct {
	level int
	body  content
	span  Span
}

type listElem struct {
	marker     string
	markerSpan Span
	body       content
}

// equationElem is inline or display math. Glyph spans are exact unless
// fixed is set, in which case every glyph carries span.
type equationElem struct {
	body    string
	display bool
	span    Span
	offset  int
	fixed   bool
}

func (el *equationElem) spans(left int) func(off, n int) Span {
	if el.fixed {
		return fixedSpan(el.span)
	}
	return exactSpans(el.span, el.offset+left)
}

type rawElem struct {
	text   string
	lang   string
	block  bool
	span   Span
	offset int
	exact  bool
}

// blockElem is a block-level container. With inline set it is a box that
// sits on the baseline of a paragraph.
type blockElem struct {
	body   content
	fill   Color
	inset  length
	width  *length
	height *length
	above  *length
	below  *length
	inline bool
	span   Span
}

type rectElem struct {
	width  *length
	height *length
	fill   Color
	body   content
	span   Span
}

type imageElem struct {
	data   []byte
	format string
	width  float64
	height float64
	fit    *length
	span   Span
}

type spacingElem struct {
	amount   length
	vertical bool
}

type transformElem struct {
	body      content
	transform Transform
	span      Span
}

type linkElem struct {
	url  string
	body content
	span Span
}

type pagebreakElem struct{}

func (*textElem) isElem()      {}
func (*spaceElem) isElem()     {}
func (*linebreakElem) isElem() {}
func (*parbreakElem) isElem()  {}
func (*styledElem) isElem()    {}
func (*setElem) isElem()       {}
func (*headingElem) isElem()   {}
func (*listElem) isElem()      {}
func (*equationElem) isElem()  {}
func (*rawElem) isElem()       {}
func (*blockElem) isElem()     {}
func (*rectElem) isElem()      {}
func (*imageElem) isElem()     {}
func (*spacingElem) isElem()   {}
func (*transformElem) isElem() {}
func (*linkElem) isElem()      {}
func (*pagebreakElem) isElem() {}

// respan returns a copy of c in which every span that is not detached and
// does not point into file is replaced by at. Content built by a function
// from another file is attributed to the call site this way. Copies are
// made because content values are shared between variables.
func (c content) respan(file source.ID, at Span) content {
	if c == nil {
		return nil
	}
	foreign := func(s Span) bool {
		return !s.IsDetached() && s.File != file
	}
	fix := func(s Span) Span {
		if foreign(s) {
			return at
		}
		return s
	}

	out := make(content, 0, len(c))
	for _, el := range c {
		switch el := el.(type) {
		case *textElem:
			cp := *el
			if foreign(cp.span) {
				cp.span, cp.exact = at, false
			}
			out = append(out, &cp)
		case *styledElem:
			cp := *el
			cp.body = cp.body.respan(file, at)
			out = append(out, &cp)
		case *headingElem:
			cp := *el
			cp.body, cp.span = cp.body.respan(file, at), fix(cp.span)
			out = append(out, &cp)
		case *listElem:
			cp := *el
			cp.body, cp.markerSpan = cp.body.respan(file, at), fix(cp.markerSpan)
			out = append(out, &cp)
		case *equationElem:
			cp := *el
			if foreign(cp.span) {
				cp.span, cp.fixed = at, true
			}
			out = append(out, &cp)
		case *rawElem:
			cp := *el
			if foreign(cp.span) {
				cp.span, cp.exact = at, false
			}
			out = append(out, &cp)
		case *blockElem:
			cp := *el
			cp.body, cp.span = cp.body.respan(file, at), fix(cp.span)
			out = append(out, &cp)
		case *rectElem:
			cp := *el
			cp.body, cp.span = cp.body.respan(file, at), fix(cp.span)
			out = append(out, &cp)
		case *imageElem:
			cp := *el
			cp.span = fix(cp.span)
			out = append(out, &cp)
		case *transformElem:
			cp := *el
			cp.body, cp.span = cp.body.respan(file, at), fix(cp.span)
			out = append(out, &cp)
		case *linkElem:
			cp := *el
			cp.body, cp.span = cp.body.respan(file, at), fix(cp.span)
			out = append(out, &cp)
		default:
			out = append(out, el)
		}
	}
	return out
}

// style is the set of properties resolved during layout.
type style struct {
	font        string
	size        float64
	fill        Color
	bold        bool
	italic      bool
	lang        string
	headingFill Color
	linkFill    Color
	leading     length
	spacing     length
	above       length
	below       length
}

func defaultStyle() style {
	return style{
		font:    FamilySans,
		size:    11,
		fill:    Black,
		lang:    "en",
		leading: length{em: 0.65},
		spacing: length{em: 1.2},
		above:   length{em: 1.2},
		below:   length{em: 1.2},
	}
}

// pageStyle holds page settings. Nil dimensions are automatic.
type pageStyle struct {
	width  *float64
	height *float64
	margin float64
	fill   Color
}

func defaultPage() pageStyle {
	width, height := 595.0, 842.0
	return pageStyle{width: &width, height: &height, margin: 48}
}
