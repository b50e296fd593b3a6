package typeset

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/yaklabco/livetype/pkg/langdetect"
	"github.com/yaklabco/livetype/pkg/source"
	"github.com/yaklabco/livetype/pkg/syntax"
)

// maxCallDepth bounds closure recursion.
const maxCallDepth = 64

// evalError is an error raised during evaluation.
type evalError struct {
	span    Span
	message string
	hints   []string
	trace   []TracePoint
}

func (e *evalError) Error() string {
	return e.message
}

func errAt(span Span, format string, args ...any) *evalError {
	return &evalError{span: span, message: fmt.Sprintf(format, args...)}
}

type module struct {
	scope *scope
	body  content
}

type evaluator struct {
	ctx   context.Context
	world World
	fonts FontBook

	// file is the file whose nodes are currently evaluated.
	file source.ID

	page     pageStyle
	global   *scope
	diags    []Diagnostic
	requests []Request
	depth    int
	loading  map[source.ID]bool
	modules  map[source.ID]*module
}

func newEvaluator(ctx context.Context, world World, fonts FontBook) *evaluator {
	return &evaluator{
		ctx:     ctx,
		world:   world,
		fonts:   fonts,
		file:    world.Main(),
		page:    defaultPage(),
		global:  library(),
		loading: make(map[source.ID]bool),
		modules: make(map[source.ID]*module),
	}
}

func (e *evaluator) span(n *syntax.Node) Span {
	return Span{File: e.file, Start: n.Start, End: n.End}
}

func (e *evaluator) fail(err error) {
	var ee *evalError
	if !errors.As(err, &ee) {
		ee = &evalError{message: err.Error()}
	}
	e.diags = append(e.diags, Diagnostic{
		Severity: SeverityError,
		Span:     ee.span,
		Message:  ee.message,
		Hints:    ee.hints,
		Trace:    ee.trace,
	})
}

func (e *evaluator) warn(span Span, message string, hints ...string) {
	e.diags = append(e.diags, Diagnostic{
		Severity: SeverityWarning,
		Span:     span,
		Message:  message,
		Hints:    hints,
	})
}

func (e *evaluator) request(kind RequestKind, p string) {
	for _, r := range e.requests {
		if r.Kind == kind && r.Path == p {
			return
		}
	}
	e.requests = append(e.requests, Request{Kind: kind, Path: p})
}

// evalMarkup evaluates a sequence of markup nodes. In recovering mode an
// error is recorded and evaluation continues with the next node; otherwise
// the first error is returned.
func (e *evaluator) evalMarkup(nodes []*syntax.Node, sc *scope, recovering bool) (content, error) {
	var out content
	enumNext := 1
	for _, n := range nodes {
		if recovering {
			if err := e.ctx.Err(); err != nil {
				e.fail(fmt.Errorf("compilation canceled: %w", err))
				return out, nil
			}
		}

		switch {
		case n.Kind == syntax.EnumItem:
			num := enumNext
			if parsed, err := strconv.Atoi(n.Value); err == nil {
				num = parsed
			}
			enumNext = num + 1
			body, err := e.evalMarkup(n.Children[1:], sc, false)
			if err != nil {
				if !recovering {
					return out, err
				}
				e.fail(err)
				continue
			}
			out = append(out, &listElem{
				marker:     strconv.Itoa(num) + ".",
				markerSpan: e.span(n.Children[0]),
				body:       body,
			})
			continue
		case n.Kind == syntax.Parbreak, !n.Kind.IsTrivia():
			enumNext = 1
		}

		c, err := e.evalMarkupNode(n, sc)
		if err != nil {
			if !recovering {
				return out, err
			}
			e.fail(err)
			continue
		}
		out = append(out, c...)
	}
	return out, nil
}

func withoutMarkers(nodes []*syntax.Node) []*syntax.Node {
	out := make([]*syntax.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Kind != syntax.Marker {
			out = append(out, n)
		}
	}
	return out
}

func (e *evaluator) evalMarkupNode(n *syntax.Node, sc *scope) (content, error) {
	switch n.Kind {
	case syntax.Text:
		return content{&textElem{text: n.Text, span: e.span(n), exact: true}}, nil
	case syntax.Space:
		return content{&spaceElem{}}, nil
	case syntax.Parbreak:
		return content{&parbreakElem{}}, nil
	case syntax.Linebreak:
		return content{&linebreakElem{}}, nil
	case syntax.Escape:
		return content{&textElem{text: n.Value, span: e.span(n)}}, nil
	case syntax.LineComment, syntax.BlockComment:
		return nil, nil
	case syntax.Heading:
		body, err := e.evalMarkup(n.Children[1:], sc, false)
		return content{&headingElem{level: n.Level(), body: body, span: e.span(n)}}, err
	case syntax.ListItem:
		body, err := e.evalMarkup(n.Children[1:], sc, false)
		return content{&listElem{marker: "•", markerSpan: e.span(n.Children[0]), body: body}}, err
	case syntax.Strong:
		body, err := e.evalMarkup(withoutMarkers(n.Children), sc, false)
		return content{&styledElem{body: body, apply: func(s *style) { s.bold = true }}}, err
	case syntax.Emph:
		body, err := e.evalMarkup(withoutMarkers(n.Children), sc, false)
		return content{&styledElem{body: body, apply: func(s *style) { s.italic = true }}}, err
	case syntax.Raw:
		return content{e.evalRaw(n)}, nil
	case syntax.Equation:
		return content{&equationElem{
			body:    n.Value,
			display: n.IsDisplay(),
			span:    e.span(n),
			offset:  n.Start + 1,
		}}, nil
	default:
		return e.evalEmbedded(n, sc)
	}
}

func (e *evaluator) evalRaw(n *syntax.Node) *rawElem {
	r := &rawElem{text: n.Value, lang: langdetect.Normalize(n.Lang), block: n.IsBlockRaw(), span: e.span(n)}
	if n.Value != "" {
		if idx := strings.Index(n.Text, n.Value); idx >= 0 {
			r.offset = n.Start + idx
			r.exact = true
		}
	}
	if r.block && r.lang == "" && n.Value != "" {
		if lang := langdetect.Detect([]byte(n.Value)); lang != langdetect.Unknown {
			r.lang = lang
		}
	}
	return r
}

func (e *evaluator) evalEmbedded(n *syntax.Node, sc *scope) (content, error) {
	switch n.Kind {
	case syntax.LetBinding:
		return nil, e.evalLet(n, sc)
	case syntax.SetRule:
		apply, err := e.evalSet(n, sc)
		if err != nil || apply == nil {
			return nil, err
		}
		return content{&setElem{apply: apply}}, nil
	case syntax.ShowRule:
		e.warn(e.span(n), "show rules are not supported and were ignored",
			"use a set rule or wrap the content in a function call instead")
		return nil, nil
	case syntax.ModuleImport:
		return nil, e.evalImport(n, sc)
	case syntax.ModuleInclude:
		mod, err := e.loadModule(n.Child(syntax.Str), n)
		if err != nil {
			return nil, err
		}
		return mod.body.respan(e.file, e.span(n)), nil
	}

	v, err := e.evalExpr(n, sc)
	if err != nil {
		return nil, err
	}
	return e.toContent(v, e.span(n)), nil
}

// toContent converts a value for insertion into markup.
func (e *evaluator) toContent(v value, span Span) content {
	if c, ok := v.(content); ok {
		return c
	}
	text, ok := display(v)
	if !ok || text == "" {
		return nil
	}
	return content{&textElem{text: text, span: span}}
}

func (e *evaluator) evalExpr(n *syntax.Node, sc *scope) (value, error) {
	switch n.Kind {
	case syntax.Str:
		return n.Value, nil
	case syntax.Numeric:
		v, err := parseNumeric(n.Value)
		if err != nil {
			return nil, errAt(e.span(n), "%s", err.Error())
		}
		return v, nil
	case syntax.Bool:
		return n.Value == "true", nil
	case syntax.None:
		return noneValue{}, nil
	case syntax.Auto:
		return autoValue{}, nil
	case syntax.Ident:
		return e.lookup(n, sc)
	case syntax.FuncCall:
		return e.evalCall(n, sc)
	case syntax.ContentBlock:
		return e.evalMarkup(n.Children, newScope(sc), false)
	case syntax.Array:
		return e.evalArray(n, sc)
	default:
		return nil, errAt(e.span(n), "expected expression, found %s", strings.ToLower(n.Kind.String()))
	}
}

// lookup resolves an identifier with optional field access.
func (e *evaluator) lookup(n *syntax.Node, sc *scope) (value, error) {
	parts := strings.Split(n.Value, ".")
	v, ok := sc.lookup(parts[0])
	if !ok {
		err := errAt(e.span(n), "unknown variable: %s", parts[0])
		if suggestion := closestName(parts[0], sc.names()); suggestion != "" {
			err.hints = []string{fmt.Sprintf("did you mean `%s`?", suggestion)}
		}
		return nil, err
	}
	for _, field := range parts[1:] {
		d, isDict := v.(*dict)
		if !isDict {
			return nil, errAt(e.span(n), "cannot access fields on type %s", typeName(v))
		}
		v, ok = d.values[field]
		if !ok {
			return nil, errAt(e.span(n), "dictionary does not contain key %q", field)
		}
	}
	return v, nil
}

// closestName returns a binding that differs from name by at most two edits.
func closestName(name string, candidates []string) string {
	best, bestDist := "", 3
	sort.Strings(candidates)
	for _, c := range candidates {
		if d := editDistance(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func (e *evaluator) evalArray(n *syntax.Node, sc *scope) (value, error) {
	named := n.ChildrenOf(syntax.Named)
	if len(named) > 0 && len(named) == len(n.Children) {
		d := newDict()
		for _, item := range named {
			v, err := e.evalExpr(item.Children[1], sc)
			if err != nil {
				return nil, err
			}
			d.set(item.Children[0].Value, v)
		}
		return d, nil
	}
	if len(named) > 0 {
		return nil, errAt(e.span(named[0]), "cannot mix named and positional items")
	}

	items := make(array, 0, len(n.Children))
	for _, item := range n.Children {
		v, err := e.evalExpr(item, sc)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}

	// A single item without a trailing comma is a parenthesized expression.
	trimmed := strings.TrimSpace(strings.TrimSuffix(n.Text, ")"))
	if len(items) == 1 && !strings.HasSuffix(trimmed, ",") {
		return items[0], nil
	}
	return items, nil
}

func (e *evaluator) evalArgs(call *syntax.Node, sc *scope) (*callArgs, error) {
	args := &callArgs{span: e.span(call), named: make(map[string]argValue)}
	for _, c := range call.Children[1:] {
		switch c.Kind {
		case syntax.Args:
			if err := e.evalArgList(c, sc, args); err != nil {
				return nil, err
			}
		case syntax.ContentBlock:
			v, err := e.evalExpr(c, sc)
			if err != nil {
				return nil, err
			}
			args.pos = append(args.pos, argValue{v: v, span: e.span(c)})
		}
	}
	return args, nil
}

func (e *evaluator) evalArgList(list *syntax.Node, sc *scope, args *callArgs) error {
	for _, item := range list.Children {
		if item.Kind == syntax.Named {
			name := item.Children[0].Value
			if _, dup := args.named[name]; dup {
				return errAt(e.span(item), "duplicate argument: %s", name)
			}
			v, err := e.evalExpr(item.Children[1], sc)
			if err != nil {
				return err
			}
			args.named[name] = argValue{v: v, span: e.span(item.Children[1])}
			continue
		}
		v, err := e.evalExpr(item, sc)
		if err != nil {
			return err
		}
		args.pos = append(args.pos, argValue{v: v, span: e.span(item)})
	}
	return nil
}

func (e *evaluator) evalCall(n *syntax.Node, sc *scope) (value, error) {
	calleeNode := n.Children[0]
	fn, err := e.lookup(calleeNode, sc)
	if err != nil {
		return nil, err
	}
	args, err := e.evalArgs(n, sc)
	if err != nil {
		return nil, err
	}

	switch f := fn.(type) {
	case *builtin:
		v, err := f.call(e, args)
		if err != nil {
			return nil, err
		}
		return v, args.finish()
	case *closure:
		return e.callClosure(f, args)
	default:
		return nil, errAt(e.span(calleeNode), "expected function, found %s", typeName(fn))
	}
}

func (e *evaluator) callClosure(f *closure, args *callArgs) (value, error) {
	if e.depth >= maxCallDepth {
		return nil, errAt(args.span, "maximum function call depth exceeded")
	}

	sc := newScope(f.scope)
	sc.define(f.name, f)
	for _, p := range f.params {
		if p.hasDef {
			if a, ok := args.namedArg(p.name); ok {
				sc.define(p.name, a.v)
			} else {
				sc.define(p.name, p.def)
			}
			continue
		}
		a, ok := args.take()
		if !ok {
			return nil, errAt(args.span, "missing argument: %s", p.name)
		}
		sc.define(p.name, a.v)
	}
	if err := args.finish(); err != nil {
		return nil, err
	}

	e.depth++
	saved := e.file
	e.file = f.file
	v, err := e.evalExpr(f.body, sc)
	e.file = saved
	e.depth--

	if err != nil {
		var ee *evalError
		if errors.As(err, &ee) {
			ee.trace = append(ee.trace, TracePoint{
				Span:    args.span,
				Message: fmt.Sprintf("error occurred in this call of function `%s`", f.name),
			})
		}
		return nil, err
	}
	if c, ok := v.(content); ok && f.file != saved {
		v = c.respan(saved, args.span)
	}
	return v, nil
}

func (e *evaluator) evalLet(n *syntax.Node, sc *scope) error {
	ident := n.Child(syntax.Ident)
	if ident == nil {
		return errAt(e.span(n), "expected identifier")
	}
	var valueNode *syntax.Node
	if last := n.Children[len(n.Children)-1]; last != ident && last.Kind != syntax.Params && last.Kind != syntax.Keyword {
		valueNode = last
	}

	if params := n.Child(syntax.Params); params != nil {
		if valueNode == nil {
			return errAt(e.span(n), "expected function body")
		}
		c := &closure{name: ident.Value, body: valueNode, scope: sc, file: e.file}
		for _, p := range params.Children {
			switch p.Kind {
			case syntax.Ident:
				c.params = append(c.params, param{name: p.Value})
			case syntax.Named:
				def, err := e.evalExpr(p.Children[1], sc)
				if err != nil {
					return err
				}
				c.params = append(c.params, param{name: p.Children[0].Value, def: def, hasDef: true})
			default:
				return errAt(e.span(p), "expected identifier, found %s", strings.ToLower(p.Kind.String()))
			}
		}
		sc.define(ident.Value, c)
		return nil
	}

	var v value = noneValue{}
	if valueNode != nil {
		var err error
		if v, err = e.evalExpr(valueNode, sc); err != nil {
			return err
		}
	}
	sc.define(ident.Value, v)
	return nil
}

func (e *evaluator) evalSet(n *syntax.Node, sc *scope) (func(*style), error) {
	target := n.Child(syntax.Ident)
	args := &callArgs{span: e.span(n), named: make(map[string]argValue)}
	if list := n.Child(syntax.Args); list != nil {
		if err := e.evalArgList(list, sc, args); err != nil {
			return nil, err
		}
	}

	setter, ok := setters[target.Value]
	if !ok {
		if _, known := sc.lookup(target.Value); known {
			return nil, errAt(e.span(target), "set rules are not supported for `%s`", target.Value)
		}
		return nil, errAt(e.span(target), "unknown variable: %s", target.Value)
	}
	apply, err := setter(e, args)
	if err != nil {
		return nil, err
	}
	return apply, args.finish()
}

func (e *evaluator) evalImport(n *syntax.Node, sc *scope) error {
	mod, err := e.loadModule(n.Child(syntax.Str), n)
	if err != nil {
		return err
	}

	if n.Child(syntax.Marker) != nil {
		for name, v := range mod.scope.vars {
			sc.define(name, v)
		}
		return nil
	}

	names := n.ChildrenOf(syntax.Ident)
	if len(names) == 0 {
		d := newDict()
		keys := make([]string, 0, len(mod.scope.vars))
		for k := range mod.scope.vars {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			d.set(k, mod.scope.vars[k])
		}
		stem := strings.TrimSuffix(path.Base(n.Child(syntax.Str).Value), path.Ext(n.Child(syntax.Str).Value))
		sc.define(stem, d)
		return nil
	}

	for _, name := range names {
		v, ok := mod.scope.vars[name.Value]
		if !ok {
			return errAt(e.span(name), "unresolved import: %s", name.Value)
		}
		sc.define(name.Value, v)
	}
	return nil
}

// resolvePath resolves p relative to the file being evaluated.
func (e *evaluator) resolvePath(p string) source.ID {
	if strings.HasPrefix(p, "/") {
		return source.ID(path.Clean(p))
	}
	return source.ID(path.Join(path.Dir(string(e.file)), p))
}

func (e *evaluator) loadModule(pathNode, stmt *syntax.Node) (*module, error) {
	p := pathNode.Value
	if strings.HasPrefix(p, "@") {
		e.request(RequestPackage, p)
		err := errAt(e.span(pathNode), "package not found: %s", p)
		err.hints = []string{"the package was requested from the host; compile again once it is installed"}
		return nil, err
	}

	id := e.resolvePath(p)
	if mod, ok := e.modules[id]; ok {
		return mod, nil
	}
	if e.loading[id] {
		return nil, errAt(e.span(pathNode), "cyclic import")
	}
	src, err := e.world.Source(id)
	if err != nil {
		e.request(RequestSource, string(id))
		return nil, errAt(e.span(pathNode), "file not found (searching at %s)", id)
	}

	importTrace := TracePoint{Span: e.span(stmt), Message: "error occurred while importing this module"}
	root := syntax.Parse(src.Text())
	if errs := root.Errors(); len(errs) > 0 {
		return nil, &evalError{
			span:    Span{File: id, Start: errs[0].Start, End: errs[0].End},
			message: errs[0].Message,
			trace:   []TracePoint{importTrace},
		}
	}

	e.loading[id] = true
	saved := e.file
	e.file = id
	modScope := newScope(e.global)
	body, err := e.evalMarkup(root.Children, modScope, false)
	e.file = saved
	delete(e.loading, id)

	if err != nil {
		var ee *evalError
		if errors.As(err, &ee) {
			ee.trace = append(ee.trace, importTrace)
		}
		return nil, err
	}
	mod := &module{scope: modScope, body: body}
	e.modules[id] = mod
	return mod, nil
}
