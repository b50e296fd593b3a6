package syntax

import "strings"

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '-'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func (p *parser) skipInline() {
	for p.peek() == ' ' || p.peek() == '\t' {
		p.pos++
	}
}

// skipCodeTrivia skips whitespace between code tokens. It refuses to cross a
// blank line and reports whether it stopped in front of one.
func (p *parser) skipCodeTrivia() bool {
	newlines := 0
	for !p.eof() {
		switch p.peek() {
		case '\n':
			newlines++
			if newlines >= 2 {
				return true
			}
			p.pos++
		case ' ', '\t', '\r':
			p.pos++
		default:
			return false
		}
	}
	return false
}

// ident consumes an identifier with optional field accesses (a.b.c).
func (p *parser) ident() string {
	start := p.pos
	for {
		for !p.eof() && isIdentChar(p.peek()) {
			// A trailing hyphen belongs to the surrounding text.
			if p.peek() == '-' && !isIdentStart(p.peekAt(1)) {
				break
			}
			p.pos++
		}
		if p.peek() == '.' && isIdentStart(p.peekAt(1)) {
			p.pos++
			continue
		}
		return p.src[start:p.pos]
	}
}

func (p *parser) keyword(start int, word string) *Node {
	p.pos = start + 1 + len(word)
	n := p.node(Keyword, start+1, p.pos)
	n.Value = word
	return n
}

// embedded parses a code expression introduced by '#'.
func (p *parser) embedded() *Node {
	start := p.pos
	p.pos++

	if isIdentStart(p.peek()) {
		save := p.pos
		word := p.ident()
		p.pos = save
		switch word {
		case "let":
			return p.letBinding(start)
		case "set":
			return p.setRule(start)
		case "show":
			return p.showRule(start)
		case "import":
			return p.importStmt(start)
		case "include":
			return p.includeStmt(start)
		}
	}

	if n := p.expr(start); n != nil {
		return n
	}
	return p.errorNode(start, p.pos, "expected expression")
}

// expr parses one expression at the cursor. The resulting node starts at
// start, which lets embedded expressions include their '#'.
func (p *parser) expr(start int) *Node {
	c := p.peek()
	switch {
	case c == '"':
		return p.str(start)
	case isDigit(c), (c == '-' || c == '.') && isDigit(p.peekAt(1)):
		return p.numeric(start)
	case c == '(':
		n, _ := p.args(start, Array)
		return n
	case c == '[':
		n, _ := p.contentBlock(start)
		return n
	case isIdentStart(c):
		identStart := p.pos
		name := p.ident()
		var kind Kind
		switch name {
		case "true", "false":
			kind = Bool
		case "none":
			kind = None
		case "auto":
			kind = Auto
		default:
			ident := p.node(Ident, identStart, p.pos)
			ident.Value = name
			return p.postfix(start, ident)
		}
		n := p.node(kind, start, p.pos)
		n.Value = name
		return n
	}
	return nil
}

// postfix attaches argument lists and trailing content blocks to a callee.
func (p *parser) postfix(start int, callee *Node) *Node {
	if p.peek() != '(' && p.peek() != '[' {
		callee.Start = start
		callee.Text = p.src[start:callee.End]
		return callee
	}

	call := &Node{Kind: FuncCall, Start: start, Children: []*Node{callee}}
	if p.peek() == '(' {
		args, ok := p.args(p.pos, Args)
		call.Children = append(call.Children, args)
		if !ok {
			call.Children = append(call.Children, p.errorNode(start, args.End, msgUnclosed))
			call.End = p.pos
			call.Text = p.src[start:call.End]
			return call
		}
	}
	for p.peek() == '[' {
		body, ok := p.contentBlock(p.pos)
		call.Children = append(call.Children, body)
		if !ok {
			call.Children = append(call.Children, p.errorNode(start, body.Start+1, msgUnclosed))
			break
		}
	}
	call.End = p.pos
	call.Text = p.src[start:call.End]
	return call
}

// args parses a parenthesized, comma-separated list. It reports false when
// the list is not closed; the cursor is then left after the last complete
// item so that the remainder is parsed as markup again.
func (p *parser) args(start int, kind Kind) (*Node, bool) {
	p.pos++
	n := &Node{Kind: kind, Start: start}
	lastEnd := p.pos

	fail := func() (*Node, bool) {
		p.pos = lastEnd
		n.End = lastEnd
		n.Text = p.src[start:lastEnd]
		return n, false
	}

	for {
		if blank := p.skipCodeTrivia(); blank || p.eof() {
			return fail()
		}
		if p.peek() == ')' {
			p.pos++
			n.End = p.pos
			n.Text = p.src[start:n.End]
			return n, true
		}

		item := p.argItem()
		if item == nil {
			return fail()
		}
		n.Children = append(n.Children, item)
		lastEnd = p.pos

		if blank := p.skipCodeTrivia(); blank || p.eof() {
			return fail()
		}
		switch p.peek() {
		case ',':
			p.pos++
			lastEnd = p.pos
		case ')':
		default:
			return fail()
		}
	}
}

// argItem parses a positional or named argument.
func (p *parser) argItem() *Node {
	if isIdentStart(p.peek()) {
		save := p.pos
		name := p.ident()
		nameNode := p.node(Ident, save, p.pos)
		nameNode.Value = name
		p.skipInline()
		if p.peek() == ':' {
			p.pos++
			if blank := p.skipCodeTrivia(); blank {
				return nil
			}
			value := p.expr(p.pos)
			if value == nil {
				return nil
			}
			return p.node(Named, save, p.pos, nameNode, value)
		}
		p.pos = save
	}
	return p.expr(p.pos)
}

func (p *parser) contentBlock(start int) (*Node, bool) {
	p.pos++
	savedDepth := p.depth
	p.depth = 0
	p.inBlock++
	children := p.markup(func() bool { return p.peek() == ']' && p.depth == 0 }, false)
	p.inBlock--
	p.depth = savedDepth

	if p.peek() != ']' {
		return p.node(ContentBlock, start, p.pos, children...), false
	}
	p.pos++
	return p.node(ContentBlock, start, p.pos, children...), true
}

func (p *parser) str(start int) *Node {
	p.pos++
	var value strings.Builder
	for !p.eof() {
		c := p.peek()
		switch {
		case c == '"':
			p.pos++
			n := p.node(Str, start, p.pos)
			n.Value = value.String()
			return n
		case c == '\n':
			n := p.node(Str, start, p.pos, p.errorNode(start, p.pos, "unclosed string"))
			n.Value = value.String()
			return n
		case c == '\\' && p.peekAt(1) != 0:
			switch p.peekAt(1) {
			case 'n':
				value.WriteByte('\n')
			case 't':
				value.WriteByte('\t')
			default:
				value.WriteByte(p.peekAt(1))
			}
			p.pos += 2
		default:
			value.WriteByte(c)
			p.pos++
		}
	}
	n := p.node(Str, start, p.pos, p.errorNode(start, p.pos, "unclosed string"))
	n.Value = value.String()
	return n
}

func (p *parser) numeric(start int) *Node {
	numStart := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	for isDigit(p.peek()) {
		p.pos++
	}
	if p.peek() == '.' && isDigit(p.peekAt(1)) {
		p.pos++
		for isDigit(p.peek()) {
			p.pos++
		}
	}
	if p.peek() == '%' {
		p.pos++
	} else {
		for (p.peek() >= 'a' && p.peek() <= 'z') || (p.peek() >= 'A' && p.peek() <= 'Z') {
			p.pos++
		}
	}
	n := p.node(Numeric, start, p.pos)
	n.Value = p.src[numStart:p.pos]
	return n
}

func (p *parser) letBinding(start int) *Node {
	kw := p.keyword(start, "let")
	children := []*Node{kw}
	p.skipInline()

	if !isIdentStart(p.peek()) {
		children = append(children, p.errorNode(start, kw.End, "expected identifier"))
		return p.node(LetBinding, start, p.pos, children...)
	}
	nameStart := p.pos
	name := p.ident()
	ident := p.node(Ident, nameStart, p.pos)
	ident.Value = name
	children = append(children, ident)

	if p.peek() == '(' {
		params, ok := p.args(p.pos, Params)
		children = append(children, params)
		if !ok {
			children = append(children, p.errorNode(start, params.End, msgUnclosed))
			return p.node(LetBinding, start, p.pos, children...)
		}
	}

	save := p.pos
	p.skipInline()
	if p.peek() != '=' {
		p.pos = save
		return p.node(LetBinding, start, p.pos, children...)
	}
	p.pos++
	p.skipInline()

	value := p.expr(p.pos)
	if value == nil {
		children = append(children, p.errorNode(start, p.pos, "expected expression"))
		return p.node(LetBinding, start, p.pos, children...)
	}
	children = append(children, value)
	return p.node(LetBinding, start, p.pos, children...)
}

func (p *parser) setRule(start int) *Node {
	kw := p.keyword(start, "set")
	children := []*Node{kw}
	p.skipInline()

	if !isIdentStart(p.peek()) {
		children = append(children, p.errorNode(start, kw.End, "expected identifier"))
		return p.node(SetRule, start, p.pos, children...)
	}
	nameStart := p.pos
	name := p.ident()
	ident := p.node(Ident, nameStart, p.pos)
	ident.Value = name
	children = append(children, ident)

	if p.peek() != '(' {
		children = append(children, p.errorNode(start, p.pos, "expected argument list"))
		return p.node(SetRule, start, p.pos, children...)
	}
	args, ok := p.args(p.pos, Args)
	children = append(children, args)
	if !ok {
		children = append(children, p.errorNode(start, args.End, msgUnclosed))
	}
	return p.node(SetRule, start, p.pos, children...)
}

func (p *parser) showRule(start int) *Node {
	kw := p.keyword(start, "show")
	bodyStart := p.pos
	for !p.eof() && !p.atLineEnd() {
		p.pos++
	}
	n := p.node(ShowRule, start, p.pos, kw)
	n.Value = strings.TrimSpace(p.src[bodyStart:p.pos])
	return n
}

func (p *parser) importStmt(start int) *Node {
	children := []*Node{p.keyword(start, "import")}
	p.skipInline()

	path := p.expr(p.pos)
	if path == nil || path.Kind != Str {
		children = append(children, p.errorNode(start, p.pos, "expected path"))
		return p.node(ModuleImport, start, p.pos, children...)
	}
	children = append(children, path)

	save := p.pos
	p.skipInline()
	if p.peek() != ':' {
		p.pos = save
		return p.node(ModuleImport, start, p.pos, children...)
	}
	p.pos++
	p.skipInline()

	if p.peek() == '*' {
		p.pos++
		star := p.node(Marker, p.pos-1, p.pos)
		star.Value = "*"
		children = append(children, star)
		return p.node(ModuleImport, start, p.pos, children...)
	}

	for isIdentStart(p.peek()) {
		nameStart := p.pos
		name := p.ident()
		ident := p.node(Ident, nameStart, p.pos)
		ident.Value = name
		children = append(children, ident)

		save = p.pos
		p.skipInline()
		if p.peek() != ',' {
			p.pos = save
			break
		}
		p.pos++
		p.skipInline()
	}
	return p.node(ModuleImport, start, p.pos, children...)
}

func (p *parser) includeStmt(start int) *Node {
	children := []*Node{p.keyword(start, "include")}
	p.skipInline()

	path := p.expr(p.pos)
	if path == nil || path.Kind != Str {
		children = append(children, p.errorNode(start, p.pos, "expected path"))
		return p.node(ModuleInclude, start, p.pos, children...)
	}
	children = append(children, path)
	return p.node(ModuleInclude, start, p.pos, children...)
}
