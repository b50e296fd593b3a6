package syntax

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// msgUnclosed is reported for every delimiter that is opened but never closed.
const msgUnclosed = "unclosed delimiter"

// Parse parses markup text into a tree rooted at a Markup node.
// Parsing never fails: problems are recorded as Error nodes in the tree.
func Parse(text string) *Node {
	p := &parser{src: text}
	children := p.markup(func() bool { return false }, false)
	return &Node{Kind: Markup, Start: 0, End: len(text), Text: text, Children: children}
}

// parser is a hand-written recursive-descent parser over a byte cursor.
type parser struct {
	src string
	pos int

	// inBlock counts enclosing content blocks; depth tracks unmatched '['
	// inside the innermost one so that its closing ']' can be found.
	inBlock int
	depth   int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	return p.peekAt(0)
}

func (p *parser) peekAt(off int) byte {
	if p.pos+off >= len(p.src) || p.pos+off < 0 {
		return 0
	}
	return p.src[p.pos+off]
}

func (p *parser) node(kind Kind, start, end int, children ...*Node) *Node {
	return &Node{Kind: kind, Start: start, End: end, Text: p.src[start:end], Children: children}
}

func (p *parser) errorNode(start, end int, message string) *Node {
	n := p.node(Error, start, end)
	n.Message = message
	return n
}

func (p *parser) atLineEnd() bool {
	c := p.peek()
	return c == '\n' || (c == '\r' && p.peekAt(1) == '\n')
}

// atLineStart reports whether only blanks precede the cursor on its line.
func (p *parser) atLineStart() bool {
	for i := p.pos - 1; i >= 0; i-- {
		switch p.src[i] {
		case ' ', '\t':
			continue
		case '\n':
			return true
		default:
			return false
		}
	}
	return true
}

// markup parses nodes until stop returns true or input ends. Inline markup
// additionally ends at a line break.
func (p *parser) markup(stop func() bool, inline bool) []*Node {
	var nodes []*Node
	for !p.eof() && !stop() {
		if inline && p.atLineEnd() {
			break
		}
		nodes = append(nodes, p.markupNode(inline))
	}
	return nodes
}

func (p *parser) markupNode(inline bool) *Node {
	c := p.peek()
	if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
		return p.space(inline)
	}
	if !inline && p.atLineStart() {
		if n := p.lineMarker(); n != nil {
			return n
		}
	}

	switch c {
	case '/':
		switch p.peekAt(1) {
		case '/':
			return p.lineComment()
		case '*':
			return p.blockComment()
		}
	case '$':
		return p.equation()
	case '`':
		return p.raw()
	case '*':
		if n := p.delimited(Strong, '*'); n != nil {
			return n
		}
	case '_':
		if n := p.delimited(Emph, '_'); n != nil {
			return n
		}
	case '\\':
		return p.escape()
	case '#':
		return p.embedded()
	case '[':
		if p.inBlock > 0 {
			p.depth++
		}
		p.pos++
		return p.node(Text, p.pos-1, p.pos)
	case ']':
		if p.inBlock > 0 {
			p.depth--
		}
		p.pos++
		return p.node(Text, p.pos-1, p.pos)
	}

	return p.text()
}

func isTextStop(c, next byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '#', '$', '`', '\\', '*', '_', '[', ']':
		return true
	case '/':
		return next == '/' || next == '*'
	default:
		return false
	}
}

func (p *parser) text() *Node {
	start := p.pos
	_, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
	for !p.eof() && !isTextStop(p.peek(), p.peekAt(1)) {
		p.pos++
	}
	n := p.node(Text, start, p.pos)
	n.Value = n.Text
	return n
}

func (p *parser) space(inline bool) *Node {
	start := p.pos
	newlines := 0
	for !p.eof() {
		c := p.peek()
		if c == ' ' || c == '\t' {
			p.pos++
			continue
		}
		if inline && p.atLineEnd() {
			break
		}
		if c == '\r' {
			p.pos++
			continue
		}
		if c == '\n' {
			newlines++
			p.pos++
			continue
		}
		break
	}

	kind := Space
	if newlines >= 2 {
		kind = Parbreak
	}
	return p.node(kind, start, p.pos)
}

// lineMarker parses headings, list items and enumeration items, which are
// only recognized at the start of a line.
func (p *parser) lineMarker() *Node {
	start := p.pos
	c := p.peek()

	var kind Kind
	markerEnd := start
	switch {
	case c == '=':
		for markerEnd < len(p.src) && p.src[markerEnd] == '=' {
			markerEnd++
		}
		kind = Heading
	case c == '-' && p.peekAt(1) != '-':
		markerEnd++
		kind = ListItem
	case c == '+':
		markerEnd++
		kind = EnumItem
	case c >= '0' && c <= '9':
		for markerEnd < len(p.src) && p.src[markerEnd] >= '0' && p.src[markerEnd] <= '9' {
			markerEnd++
		}
		if markerEnd >= len(p.src) || p.src[markerEnd] != '.' {
			return nil
		}
		markerEnd++
		kind = EnumItem
	default:
		return nil
	}

	if markerEnd >= len(p.src) || (p.src[markerEnd] != ' ' && p.src[markerEnd] != '\t') {
		return nil
	}
	for markerEnd < len(p.src) && (p.src[markerEnd] == ' ' || p.src[markerEnd] == '\t') {
		markerEnd++
	}

	marker := p.node(Marker, start, markerEnd)
	marker.Value = strings.TrimSpace(marker.Text)
	p.pos = markerEnd

	body := p.markup(func() bool { return false }, true)
	n := p.node(kind, start, p.pos, append([]*Node{marker}, body...)...)
	if kind == EnumItem {
		n.Value = strings.TrimSuffix(marker.Value, ".")
	}
	return n
}

// Level returns the heading level, or 0 for other nodes.
func (n *Node) Level() int {
	if n.Kind != Heading || len(n.Children) == 0 {
		return 0
	}
	return len(n.Children[0].Value)
}

func (p *parser) lineComment() *Node {
	start := p.pos
	for !p.eof() && !p.atLineEnd() {
		p.pos++
	}
	return p.node(LineComment, start, p.pos)
}

func (p *parser) blockComment() *Node {
	start := p.pos
	idx := strings.Index(p.src[start+2:], "*/")
	if idx < 0 {
		p.pos = len(p.src)
		return p.node(BlockComment, start, p.pos, p.errorNode(start, start+2, msgUnclosed))
	}
	p.pos = start + 2 + idx + 2
	return p.node(BlockComment, start, p.pos)
}

// findClosing searches for an unescaped delim starting at from. The search
// stops at a blank line. It returns -1 when no delimiter was found.
func (p *parser) findClosing(from int, delim byte) int {
	newlines := 0
	for i := from; i < len(p.src); i++ {
		switch c := p.src[i]; c {
		case '\\':
			i++
		case '\n':
			newlines++
			if newlines >= 2 {
				return -1
			}
		case ' ', '\t', '\r':
		default:
			if c == delim {
				return i
			}
			newlines = 0
		}
	}
	return -1
}

func (p *parser) equation() *Node {
	start := p.pos
	end := p.findClosing(start+1, '$')
	if end < 0 {
		p.pos = start + 1
		return p.node(Equation, start, p.pos, p.errorNode(start, p.pos, msgUnclosed))
	}
	p.pos = end + 1
	n := p.node(Equation, start, p.pos)
	n.Value = p.src[start+1 : end]
	return n
}

func (p *parser) raw() *Node {
	start := p.pos
	ticks := 0
	for p.peekAt(ticks) == '`' {
		ticks++
	}

	switch {
	case ticks == 2:
		p.pos += 2
		return p.node(Raw, start, p.pos)
	case ticks >= 3:
		fence := p.src[start : start+ticks]
		langStart := start + ticks
		langEnd := langStart
		for langEnd < len(p.src) && isIdentChar(p.src[langEnd]) {
			langEnd++
		}
		idx := strings.Index(p.src[langEnd:], fence)
		if idx < 0 {
			p.pos = langEnd
			return p.node(Raw, start, p.pos, p.errorNode(start, start+ticks, msgUnclosed))
		}
		body := p.src[langEnd : langEnd+idx]
		p.pos = langEnd + idx + ticks

		n := p.node(Raw, start, p.pos)
		n.Lang = p.src[langStart:langEnd]
		body = strings.TrimPrefix(strings.TrimPrefix(body, "\r"), "\n")
		n.Value = strings.TrimRight(body, " \t\r\n")
		return n
	default:
		end := p.findClosing(start+1, '`')
		if end < 0 {
			p.pos = start + 1
			return p.node(Raw, start, p.pos, p.errorNode(start, p.pos, msgUnclosed))
		}
		p.pos = end + 1
		n := p.node(Raw, start, p.pos)
		n.Value = p.src[start+1 : end]
		return n
	}
}

// IsBlockRaw reports whether a raw node uses a fence of three or more backticks.
func (n *Node) IsBlockRaw() bool {
	return n.Kind == Raw && strings.HasPrefix(n.Text, "```")
}

// delimited parses strong or emphasized text. It returns nil when the
// delimiter cannot open here, in which case it is plain text.
func (p *parser) delimited(kind Kind, delim byte) *Node {
	start := p.pos
	if start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(p.src[:start])
		if unicode.IsLetter(prev) || unicode.IsDigit(prev) {
			return nil
		}
	}
	switch p.peekAt(1) {
	case 0, ' ', '\t', '\r', '\n':
		return nil
	}

	p.pos++
	open := p.node(Marker, start, p.pos)
	body := p.markup(func() bool { return p.peek() == delim }, true)

	if p.peek() == delim {
		p.pos++
		closing := p.node(Marker, p.pos-1, p.pos)
		children := append([]*Node{open}, body...)
		return p.node(kind, start, p.pos, append(children, closing)...)
	}

	children := append([]*Node{open, p.errorNode(start, start+1, msgUnclosed)}, body...)
	return p.node(kind, start, p.pos, children...)
}

func (p *parser) escape() *Node {
	start := p.pos
	p.pos++
	switch p.peek() {
	case 0, ' ', '\t', '\r', '\n':
		return p.node(Linebreak, start, p.pos)
	}
	_, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
	n := p.node(Escape, start, p.pos)
	n.Value = p.src[start+1 : p.pos]
	return n
}
