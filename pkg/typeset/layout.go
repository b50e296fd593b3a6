package typeset

import (
	"math"
	"strings"
)

// rawFill is the background of raw blocks.
//
//nolint:gochecknoglobals // Immutable value.
var rawFill = Color{R: 0xf3, G: 0xf3, B: 0xf3, A: 0xff}

const (
	rawInset  = 4.0
	rectInset = 5.0
	rawScale  = 0.9
)

type childKind int

const (
	childFrame childKind = iota
	childSpacing
	childPagebreak
)

// flowChild is one entry of a vertical flow. Spacing between two frames is
// the larger of the first one's below and the second one's above.
type flowChild struct {
	kind   childKind
	frame  *Frame
	above  float64
	below  float64
	amount float64
}

type pieceKind int

const (
	pieceWord pieceKind = iota
	pieceSpace
	pieceGlue
	pieceBreak
	pieceFrame
)

// piece is one unit of inline content waiting for line breaking.
type piece struct {
	kind    pieceKind
	text    *TextItem
	frame   *Frame
	width   float64
	ascent  float64
	descent float64
	link    string
}

type layouter struct {
	fonts FontBook
}

func (l *layouter) font(family string) *Font {
	if f, ok := l.fonts.Font(family); ok {
		return f
	}
	if f := l.fonts.Fallback(); f != nil {
		return f
	}
	return &Font{Family: FamilySans, Ascender: 0.8, Descender: 0.2, Advance: 0.5}
}

// shape turns text into a text item. spanAt returns the span of the
// cluster at byte offset off with length n.
func (l *layouter) shape(text string, st style, family string, spanAt func(off, n int) Span) (*TextItem, *Font) {
	font := l.font(family)
	item := &TextItem{
		Font:      font.Family,
		Size:      st.size,
		Ascender:  font.Ascender,
		Descender: font.Descender,
		Fill:      st.fill,
		Bold:      st.bold,
		Italic:    st.italic,
	}
	for _, c := range font.Shape(text, st.size) {
		item.Glyphs = append(item.Glyphs, Glyph{Text: c.Text, Advance: c.Advance, Span: spanAt(c.Offset, len(c.Text))})
	}
	return item, font
}

func exactSpans(base Span, start int) func(off, n int) Span {
	return func(off, n int) Span {
		return Span{File: base.File, Start: start + off, End: start + off + n}
	}
}

func fixedSpan(span Span) func(off, n int) Span {
	return func(int, int) Span { return span }
}

// flow lays content out into a frame of the given width. An infinite width
// shrinks the frame to its content.
func (l *layouter) flow(c content, st style, width float64) *Frame {
	b := &builder{l: l, width: width}
	b.collect(c, st)
	b.flush()
	return stack(b.children, width)
}

func isEmpty(f *Frame) bool {
	return len(f.Items) == 0 && f.Height == 0
}

func stack(children []flowChild, width float64) *Frame {
	f := &Frame{}
	y, pending := 0.0, 0.0
	started := false
	maxW := 0.0
	for _, c := range children {
		switch c.kind {
		case childSpacing:
			y += c.amount
			pending, started = 0, false
		case childPagebreak:
		case childFrame:
			if isEmpty(c.frame) {
				continue
			}
			if started {
				y += math.Max(pending, c.above)
			}
			f.PushFrame(Point{Y: y}, c.frame)
			y += c.frame.Height
			pending, started = c.below, true
			maxW = math.Max(maxW, c.frame.Width)
		}
	}
	f.Height = y
	f.Width = width
	if math.IsInf(width, 1) {
		f.Width = maxW
	}
	return f
}

// builder collects the flow children of one region.
type builder struct {
	l        *layouter
	width    float64
	children []flowChild
	pieces   []piece
	parStyle style
	link     string
}

func (b *builder) push(f *Frame, above, below float64) {
	b.children = append(b.children, flowChild{kind: childFrame, frame: f, above: above, below: below})
}

func (b *builder) collect(c content, st style) {
	for _, el := range c {
		switch el := el.(type) {
		case *setElem:
			el.apply(&st)
		case *styledElem:
			inner := st
			el.apply(&inner)
			b.collect(el.body, inner)
		case *textElem:
			b.text(el, st)
		case *spaceElem:
			b.space(st)
		case *linebreakElem:
			b.startPar(st)
			b.pieces = append(b.pieces, piece{kind: pieceBreak})
		case *parbreakElem:
			b.flush()
		case *linkElem:
			saved := b.link
			b.link = el.url
			inner := st
			if !st.linkFill.Transparent() {
				inner.fill = st.linkFill
			}
			b.collect(el.body, inner)
			b.link = saved
		case *equationElem:
			if el.display {
				b.flush()
				b.displayEquation(el, st)
			} else {
				b.inlineEquation(el, st)
			}
		case *rawElem:
			if el.block {
				b.flush()
				b.rawBlock(el, st)
			} else {
				b.inlineRaw(el, st)
			}
		case *blockElem:
			if el.inline {
				b.startPar(st)
				f := b.l.container(el, st, b.width)
				b.pieces = append(b.pieces, piece{kind: pieceFrame, frame: f, width: f.Width, ascent: f.Height, link: b.link})
			} else {
				b.flush()
				b.block(el, st)
			}
		case *spacingElem:
			amount := el.amount.resolve(st.size)
			if el.vertical {
				b.flush()
				b.children = append(b.children, flowChild{kind: childSpacing, amount: amount})
			} else {
				b.startPar(st)
				b.pieces = append(b.pieces, piece{kind: pieceGlue, width: amount, link: b.link})
			}
		case *headingElem:
			b.flush()
			b.heading(el, st)
		case *listElem:
			b.flush()
			b.listItem(el, st)
		case *rectElem:
			b.flush()
			b.rect(el, st)
		case *imageElem:
			b.flush()
			b.image(el, st)
		case *transformElem:
			b.flush()
			b.transform(el, st)
		case *pagebreakElem:
			b.flush()
			b.children = append(b.children, flowChild{kind: childPagebreak})
		}
	}
}

func (b *builder) startPar(st style) {
	if len(b.pieces) == 0 {
		b.parStyle = st
	}
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// words splits text at whitespace and calls fn for every word with its
// byte offset. Whitespace runs call fn with an empty word.
func words(text string, fn func(word string, off int)) {
	start := -1
	for i := 0; i <= len(text); i++ {
		if i == len(text) || isBlank(text[i]) {
			if start >= 0 {
				fn(text[start:i], start)
				start = -1
			}
			if i < len(text) {
				fn("", i)
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
}

func (b *builder) text(el *textElem, st style) {
	b.startPar(st)
	words(el.text, func(word string, off int) {
		if word == "" {
			b.space(st)
			return
		}
		spans := fixedSpan(el.span)
		if el.exact {
			spans = exactSpans(el.span, el.span.Start+off)
		}
		b.word(word, st, st.font, spans, "")
	})
}

func (b *builder) word(word string, st style, family string, spans func(off, n int) Span, lang string) {
	item, font := b.l.shape(word, st, family, spans)
	item.Lang = lang
	b.pieces = append(b.pieces, piece{
		kind:    pieceWord,
		text:    item,
		width:   item.Width(),
		ascent:  font.Ascender * st.size,
		descent: font.Descender * st.size,
		link:    b.link,
	})
}

func (b *builder) space(st style) {
	b.startPar(st)
	if n := len(b.pieces); n > 0 && b.pieces[n-1].kind == pieceSpace {
		return
	}
	b.pieces = append(b.pieces, piece{
		kind:  pieceSpace,
		width: b.l.font(st.font).Advance * st.size,
		link:  b.link,
	})
}

// trimmed returns the body without surrounding whitespace and the offset of
// the first kept byte.
func trimmed(body string) (string, int) {
	left := len(body) - len(strings.TrimLeft(body, " \t\r\n"))
	return strings.TrimSpace(body), left
}

func (b *builder) inlineEquation(el *equationElem, st style) {
	b.startPar(st)
	text, left := trimmed(el.body)
	if text == "" {
		return
	}
	ms := st
	ms.italic = true
	b.word(text, ms, FamilyMath, el.spans(left), "")
}

func (b *builder) inlineRaw(el *rawElem, st style) {
	b.startPar(st)
	words(el.text, func(word string, off int) {
		if word == "" {
			b.space(st)
			return
		}
		spans := fixedSpan(el.span)
		if el.exact {
			spans = exactSpans(el.span, el.offset+off)
		}
		b.word(word, st, FamilyMono, spans, el.lang)
	})
}

func (b *builder) flush() {
	if len(b.pieces) == 0 {
		return
	}
	st := b.parStyle
	lines := b.l.breakLines(b.pieces, b.width, st)
	b.pieces = nil

	spacing := st.spacing.resolve(st.size)
	leading := st.leading.resolve(st.size)
	for i, line := range lines {
		above, below := leading, leading
		if i == 0 {
			above = spacing
		}
		if i == len(lines)-1 {
			below = spacing
		}
		b.push(line, above, below)
	}
}

// breakLines distributes pieces over lines greedily.
func (l *layouter) breakLines(pieces []piece, width float64, st style) []*Frame {
	font := l.font(st.font)
	strutAscent, strutDescent := font.Ascender*st.size, font.Descender*st.size

	var lines []*Frame
	var cur []piece
	curWidth := 0.0
	finish := func(force bool) {
		for len(cur) > 0 && cur[len(cur)-1].kind == pieceSpace {
			curWidth -= cur[len(cur)-1].width
			cur = cur[:len(cur)-1]
		}
		if len(cur) == 0 && !force {
			return
		}
		lines = append(lines, buildLine(cur, strutAscent, strutDescent))
		cur, curWidth = nil, 0
	}

	for _, p := range pieces {
		switch p.kind {
		case pieceBreak:
			finish(true)
		case pieceSpace:
			if len(cur) == 0 {
				continue
			}
			cur = append(cur, p)
			curWidth += p.width
		default:
			if len(cur) > 0 && curWidth+p.width > width+1e-9 {
				finish(false)
			}
			cur = append(cur, p)
			curWidth += p.width
		}
	}
	finish(false)
	return lines
}

func buildLine(pieces []piece, strutAscent, strutDescent float64) *Frame {
	ascent, descent := strutAscent, strutDescent
	for _, p := range pieces {
		ascent = math.Max(ascent, p.ascent)
		descent = math.Max(descent, p.descent)
	}

	f := NewFrame(0, ascent+descent)
	x := 0.0
	link, linkStart := "", 0.0
	endLink := func() {
		if link != "" {
			f.Push(Point{X: linkStart}, &LinkItem{Width: x - linkStart, Height: f.Height, URL: link})
		}
	}
	for _, p := range pieces {
		if p.link != link {
			endLink()
			link, linkStart = p.link, x
		}
		switch p.kind {
		case pieceWord:
			f.Push(Point{X: x, Y: ascent}, p.text)
		case pieceFrame:
			f.Push(Point{X: x, Y: ascent - p.frame.Height}, &GroupItem{Frame: p.frame, Transform: Identity()})
		}
		x += p.width
	}
	endLink()
	f.Width = x
	return f
}

func headingScale(level int) float64 {
	switch level {
	case 1:
		return 1.4
	case 2:
		return 1.2
	default:
		return 1
	}
}

func (b *builder) heading(el *headingElem, st style) {
	hs := st
	hs.size = st.size * headingScale(el.level)
	hs.bold = true
	if !st.headingFill.Transparent() {
		hs.fill = st.headingFill
	}
	f := b.l.flow(el.body, hs, b.width)
	f.Items = append([]Positioned{{Item: &TagItem{Name: "heading"}}}, f.Items...)
	b.push(f, st.above.resolve(hs.size), st.below.resolve(st.size))
}

func (b *builder) listItem(el *listElem, st style) {
	indent := 1.5 * st.size
	body := b.l.flow(el.body, st, b.width-indent)

	marker, font := b.l.shape(el.marker, st, st.font, fixedSpan(el.markerSpan))
	baseline := font.Ascender * st.size
	for _, it := range body.Items {
		if _, ok := it.Item.(*TextItem); ok {
			baseline = it.Pos.Y
			break
		}
	}

	f := NewFrame(indent+body.Width, math.Max(body.Height, (font.Ascender+font.Descender)*st.size))
	f.Push(Point{Y: baseline}, marker)
	f.PushFrame(Point{X: indent}, body)
	leading := st.leading.resolve(st.size)
	b.push(f, leading, leading)
}

func (b *builder) displayEquation(el *equationElem, st style) {
	text, left := trimmed(el.body)
	ms := st
	ms.italic = true
	item, font := b.l.shape(text, ms, FamilyMath, el.spans(left))
	w := item.Width()
	h := (font.Ascender + font.Descender) * st.size

	inner := NewFrame(w, h)
	inner.Push(Point{Y: font.Ascender * st.size}, item)

	fw, x := b.width, (b.width-w)/2
	if isInf(b.width) {
		fw, x = w, 0
	}
	f := NewFrame(fw, h)
	f.Push(Point{X: x}, &GroupItem{Frame: inner, Transform: Identity()})
	spacing := st.spacing.resolve(st.size)
	b.push(f, spacing, spacing)
}

func isInf(f float64) bool {
	return math.IsInf(f, 1)
}

func (b *builder) rawBlock(el *rawElem, st style) {
	rs := st
	rs.size = st.size * rawScale
	font := b.l.font(FamilyMono)
	lineHeight := (font.Ascender + font.Descender + 0.3) * rs.size

	inner := &Frame{}
	y, off := 0.0, 0
	for _, line := range strings.Split(el.text, "\n") {
		spans := fixedSpan(el.span)
		if el.exact {
			spans = exactSpans(el.span, el.offset+off)
		}
		item, _ := b.l.shape(line, rs, FamilyMono, spans)
		item.Lang = el.lang
		inner.Push(Point{Y: y + font.Ascender*rs.size}, item)
		inner.Width = math.Max(inner.Width, item.Width())
		y += lineHeight
		off += len(line) + 1
	}
	inner.Height = y

	w := b.width
	if isInf(w) {
		w = inner.Width + 2*rawInset
	}
	f := NewFrame(w, inner.Height+2*rawInset)
	f.Push(Point{}, &ShapeItem{Width: w, Height: f.Height, Fill: rawFill, Span: el.span})
	f.PushFrame(Point{X: rawInset, Y: rawInset}, inner)
	b.push(f, st.above.resolve(st.size), st.below.resolve(st.size))
}

// container lays out a block or box.
func (l *layouter) container(el *blockElem, st style, avail float64) *Frame {
	inset := el.inset.resolve(st.size)
	width := avail
	if el.width != nil {
		width = el.width.resolve(st.size)
	}
	innerAvail := width - 2*inset
	if el.inline && el.width == nil {
		innerAvail = math.Inf(1)
	}
	body := l.flow(el.body, st, innerAvail)

	w := width
	if el.width == nil && (el.inline || isInf(avail)) {
		w = body.Width + 2*inset
	}
	h := body.Height + 2*inset
	if el.height != nil {
		h = el.height.resolve(st.size)
	}
	if len(el.body) == 0 && el.fill.Transparent() && el.height == nil {
		h = 0
	}

	f := NewFrame(w, h)
	if !el.fill.Transparent() {
		f.Push(Point{}, &ShapeItem{Width: w, Height: h, Fill: el.fill, Span: el.span})
	}
	if len(body.Items) > 0 {
		f.Push(Point{X: inset, Y: inset}, &GroupItem{Frame: body, Transform: Identity()})
	}
	return f
}

func (b *builder) block(el *blockElem, st style) {
	above, below := st.above.resolve(st.size), st.below.resolve(st.size)
	if el.above != nil {
		above = el.above.resolve(st.size)
	}
	if el.below != nil {
		below = el.below.resolve(st.size)
	}
	b.push(b.l.container(el, st, b.width), above, below)
}

func (b *builder) rect(el *rectElem, st style) {
	w, h := 45.0, 30.0
	if el.width != nil {
		w = el.width.resolve(st.size)
	}
	if el.height != nil {
		h = el.height.resolve(st.size)
	}

	var body *Frame
	if len(el.body) > 0 {
		avail := math.Inf(1)
		if el.width != nil {
			avail = w - 2*rectInset
		}
		body = b.l.flow(el.body, st, avail)
		if el.width == nil {
			w = body.Width + 2*rectInset
		}
		if el.height == nil {
			h = body.Height + 2*rectInset
		}
	}

	shape := &ShapeItem{Width: w, Height: h, Fill: el.fill, Span: el.span}
	if el.fill.Transparent() {
		shape.Stroke = Black
	}
	f := NewFrame(w, h)
	f.Push(Point{}, shape)
	if body != nil && len(body.Items) > 0 {
		f.Push(Point{X: rectInset, Y: rectInset}, &GroupItem{Frame: body, Transform: Identity()})
	}
	b.push(f, st.above.resolve(st.size), st.below.resolve(st.size))
}

func (b *builder) image(el *imageElem, st style) {
	w, h := el.width, el.height
	if el.fit != nil && w > 0 {
		target := el.fit.resolve(st.size)
		h, w = h*target/w, target
	}
	if !isInf(b.width) && w > b.width && w > 0 {
		h, w = h*b.width/w, b.width
	}
	f := NewFrame(w, h)
	f.Push(Point{}, &ImageItem{Width: w, Height: h, Format: el.format, Data: el.data, Span: el.span})
	b.push(f, st.above.resolve(st.size), st.below.resolve(st.size))
}

func (b *builder) transform(el *transformElem, st style) {
	body := b.l.flow(el.body, st, math.Inf(1))
	if isEmpty(body) {
		return
	}
	cx, cy := body.Width/2, body.Height/2
	t := Translate(-cx, -cy).Then(el.transform).Then(Translate(cx, cy))
	f := NewFrame(body.Width, body.Height)
	f.Push(Point{}, &GroupItem{Frame: body, Transform: t})
	b.push(f, st.above.resolve(st.size), st.below.resolve(st.size))
}

// layoutDocument lays out top-level content into pages.
func (l *layouter) layoutDocument(c content, page pageStyle) *Document {
	avail := math.Inf(1)
	if page.width != nil {
		avail = math.Max(0, *page.width-2*page.margin)
	}
	b := &builder{l: l, width: avail}
	b.collect(c, defaultStyle())
	b.flush()
	return paginate(b.children, page)
}

func paginate(children []flowChild, page pageStyle) *Document {
	region := math.Inf(1)
	if page.height != nil {
		region = math.Max(0, *page.height-2*page.margin)
	}

	var frames []*Frame
	var heights []float64
	cur := &Frame{}
	y, pending := 0.0, 0.0
	started := false
	maxW := 0.0
	nextPage := func() {
		frames = append(frames, cur)
		heights = append(heights, y)
		cur = &Frame{}
		y, pending, started = 0, 0, false
	}

	for _, c := range children {
		switch c.kind {
		case childPagebreak:
			nextPage()
		case childSpacing:
			y += c.amount
			pending, started = 0, false
		case childFrame:
			if isEmpty(c.frame) {
				continue
			}
			gap := 0.0
			if started {
				gap = math.Max(pending, c.above)
				if y+gap+c.frame.Height > region {
					nextPage()
					gap = 0
				}
			}
			y += gap
			cur.PushFrame(Point{X: page.margin, Y: page.margin + y}, c.frame)
			y += c.frame.Height
			pending, started = c.below, true
			maxW = math.Max(maxW, c.frame.Width)
		}
	}
	nextPage()

	doc := &Document{Pages: make([]Page, 0, len(frames))}
	for i, f := range frames {
		f.Width = maxW + 2*page.margin
		if page.width != nil {
			f.Width = *page.width
		}
		f.Height = heights[i] + 2*page.margin
		if page.height != nil {
			f.Height = *page.height
		}
		doc.Pages = append(doc.Pages, Page{Frame: f, Fill: page.fill})
	}
	return doc
}
