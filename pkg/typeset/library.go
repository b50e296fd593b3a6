package typeset

import (
	"bytes"
	"image"
	"sort"
	"strings"

	// Image decoders used by image().
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/lucasb-eyer/go-colorful"
)

// pxToPt converts image pixels at 96 dpi to points.
const pxToPt = 0.75

type argValue struct {
	v    value
	span Span
}

// callArgs holds the evaluated arguments of a call. Builtins consume what
// they understand; finish reports the rest.
type callArgs struct {
	span  Span
	pos   []argValue
	named map[string]argValue
}

func (a *callArgs) take() (argValue, bool) {
	if len(a.pos) == 0 {
		return argValue{}, false
	}
	first := a.pos[0]
	a.pos = a.pos[1:]
	return first, true
}

func (a *callArgs) expect(what string) (argValue, error) {
	v, ok := a.take()
	if !ok {
		return argValue{}, errAt(a.span, "missing argument: %s", what)
	}
	return v, nil
}

func (a *callArgs) namedArg(name string) (argValue, bool) {
	v, ok := a.named[name]
	if ok {
		delete(a.named, name)
	}
	return v, ok
}

func (a *callArgs) finish() error {
	if len(a.pos) > 0 {
		return errAt(a.pos[0].span, "unexpected argument")
	}
	if len(a.named) > 0 {
		names := make([]string, 0, len(a.named))
		for name := range a.named {
			names = append(names, name)
		}
		sort.Strings(names)
		return errAt(a.named[names[0]].span, "unexpected argument: %s", names[0])
	}
	return nil
}

func castLength(a argValue) (length, error) {
	switch v := a.v.(type) {
	case length:
		return v, nil
	case float64:
		if v == 0 {
			return length{}, nil
		}
	}
	return length{}, errAt(a.span, "expected length, found %s", typeName(a.v))
}

// castOptLength accepts a length or auto. Auto yields nil.
func castOptLength(a argValue) (*length, error) {
	if _, ok := a.v.(autoValue); ok {
		return nil, nil
	}
	l, err := castLength(a)
	if err != nil {
		return nil, errAt(a.span, "expected length or auto, found %s", typeName(a.v))
	}
	return &l, nil
}

// castColor accepts a color or none. None yields a transparent color.
func castColor(a argValue) (Color, error) {
	switch v := a.v.(type) {
	case Color:
		return v, nil
	case noneValue:
		return Color{}, nil
	}
	return Color{}, errAt(a.span, "expected color or none, found %s", typeName(a.v))
}

func castString(a argValue) (string, error) {
	if s, ok := a.v.(string); ok {
		return s, nil
	}
	return "", errAt(a.span, "expected string, found %s", typeName(a.v))
}

func castFloat(a argValue) (float64, error) {
	switch v := a.v.(type) {
	case float64:
		return v, nil
	case ratio:
		return float64(v), nil
	}
	return 0, errAt(a.span, "expected number, found %s", typeName(a.v))
}

func castContent(a argValue) content {
	if c, ok := a.v.(content); ok {
		return c
	}
	text, ok := display(a.v)
	if !ok {
		return nil
	}
	return content{&textElem{text: text, span: a.span}}
}

// colorFrom converts a go-colorful color.
func colorFrom(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return Color{R: r, G: g, B: b, A: 255}
}

// ParseColor parses a hex color such as "#1e66f5" or "#abc".
func ParseColor(hex string) (Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, err
	}
	return colorFrom(c), nil
}

//nolint:gochecknoglobals // Read-only lookup table.
var namedColors = map[string]string{
	"black":   "#000000",
	"gray":    "#aaaaaa",
	"silver":  "#dddddd",
	"white":   "#ffffff",
	"navy":    "#001f3f",
	"blue":    "#0074d9",
	"aqua":    "#7fdbff",
	"teal":    "#39cccc",
	"green":   "#2ecc40",
	"lime":    "#01ff70",
	"yellow":  "#ffdc00",
	"orange":  "#ff851b",
	"red":     "#ff4136",
	"maroon":  "#85144b",
	"fuchsia": "#f012be",
	"purple":  "#b10dc9",
}

//nolint:gochecknoglobals // Read-only lookup table.
var loremWords = strings.Fields(`Lorem ipsum dolor sit amet consectetur adipiscing elit sed do
eiusmod tempor incididunt ut labore et dolore magna aliqua Ut enim ad minim veniam quis
nostrud exercitation ullamco laboris nisi ut aliquip ex ea commodo consequat`)

// library builds the global scope.
func library() *scope {
	sc := newScope(nil)
	for name, hex := range namedColors {
		c, _ := ParseColor(hex)
		sc.define(name, c)
	}
	for _, b := range builtins {
		sc.define(b.name, b)
	}
	return sc
}

// Builtins returns the names of all built-in functions, sorted.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for _, b := range builtins {
		names = append(names, b.name)
	}
	sort.Strings(names)
	return names
}

func lookupBuiltin(name string) (*builtin, bool) {
	for _, b := range builtins {
		if b.name == name {
			return b, true
		}
	}
	return nil, false
}

// builtins lists the built-in functions. It is read-only after init.
//
//nolint:gochecknoglobals // Read-only after init.
var builtins []*builtin

//nolint:gochecknoinits // Builtin bodies refer back to evaluator methods.
func init() {
	builtins = []*builtin{
		{
			name: "text", params: []string{"size", "fill", "font", "weight", "style", "lang"},
			doc:  "Customizes the look and layout of text.\n\n```\n#text(size: 14pt, fill: blue)[Hello]\n```",
			call: builtinText,
		},
		{
			name: "strong", doc: "Strongly emphasizes content by increasing the font weight.",
			call: func(_ *evaluator, a *callArgs) (value, error) {
				body, err := a.expect("body")
				return content{&styledElem{body: castContent(body), apply: func(s *style) { s.bold = true }}}, err
			},
		},
		{
			name: "emph", doc: "Emphasizes content by setting it in italics.",
			call: func(_ *evaluator, a *callArgs) (value, error) {
				body, err := a.expect("body")
				return content{&styledElem{body: castContent(body), apply: func(s *style) { s.italic = true }}}, err
			},
		},
		{
			name: "heading", params: []string{"level"},
			doc:  "A section heading. Usually written with `=` markup at the start of a line.",
			call: builtinHeading,
		},
		{
			name: "block", params: []string{"fill", "inset", "width", "height", "above", "below"},
			doc:  "A block-level container. Such a container can be used to separate content, size it and give it a background.",
			call: func(e *evaluator, a *callArgs) (value, error) { return e.container(a, false) },
		},
		{
			name: "box", params: []string{"fill", "inset", "width", "height"},
			doc:  "An inline-level container that sizes content.",
			call: func(e *evaluator, a *callArgs) (value, error) { return e.container(a, true) },
		},
		{
			name: "rect", params: []string{"width", "height", "fill"},
			doc:  "A rectangle with optional content.\n\n```\n#rect(width: 2cm, height: 1cm, fill: red)\n```",
			call: builtinRect,
		},
		{
			name: "image", params: []string{"width"},
			doc:  "A raster image. Supported formats are PNG, JPEG, GIF, BMP and WebP.",
			call: builtinImage,
		},
		{
			name: "h", doc: "Inserts horizontal spacing into a paragraph.",
			call: func(_ *evaluator, a *callArgs) (value, error) { return spacing(a, false) },
		},
		{
			name: "v", doc: "Inserts vertical spacing into a flow of blocks.",
			call: func(_ *evaluator, a *callArgs) (value, error) { return spacing(a, true) },
		},
		{
			name: "rotate", doc: "Rotates content around its center without affecting the layout.",
			call: builtinRotate,
		},
		{
			name: "scale", params: []string{"x", "y"},
			doc:  "Scales content around its center without affecting the layout.",
			call: builtinScale,
		},
		{
			name: "link", doc: "Links to a URL.\n\n```\n#link(\"https://example.com\")[Example]\n```",
			call: builtinLink,
		},
		{
			name: "pagebreak", doc: "A manual page break.",
			call: func(_ *evaluator, _ *callArgs) (value, error) { return content{&pagebreakElem{}}, nil },
		},
		{
			name: "lorem", doc: "Creates blind text with the given number of words.",
			call: builtinLorem,
		},
		{
			name: "upper", doc: "Converts a string to uppercase.",
			call: func(_ *evaluator, a *callArgs) (value, error) { return mapString(a, strings.ToUpper) },
		},
		{
			name: "lower", doc: "Converts a string to lowercase.",
			call: func(_ *evaluator, a *callArgs) (value, error) { return mapString(a, strings.ToLower) },
		},
		{
			name: "rgb", doc: "Creates an RGB color from a hex string or from red, green and blue components.",
			call: builtinRGB,
		},
		{
			name: "luma", doc: "Creates a grayscale color.",
			call: func(_ *evaluator, a *callArgs) (value, error) {
				arg, err := a.expect("lightness")
				if err != nil {
					return nil, err
				}
				f, err := castFloat(arg)
				if err != nil {
					return nil, err
				}
				return colorFrom(colorful.Color{R: component(f), G: component(f), B: component(f)}), nil
			},
		},
		{
			name: "str", doc: "Converts a value to a string.",
			call: func(_ *evaluator, a *callArgs) (value, error) {
				arg, err := a.expect("value")
				if err != nil {
					return nil, err
				}
				text, _ := display(arg.v)
				return text, nil
			},
		},
		{
			name: "repr", doc: "Returns the string representation of a value.",
			call: func(_ *evaluator, a *callArgs) (value, error) {
				arg, err := a.expect("value")
				return repr(arg.v), err
			},
		},
		{
			name: "panic", doc: "Fails with an error.",
			call: func(_ *evaluator, a *callArgs) (value, error) {
				parts := make([]string, 0, len(a.pos))
				for _, arg := range a.pos {
					parts = append(parts, repr(arg.v))
				}
				a.pos = nil
				if len(parts) == 0 {
					return nil, errAt(a.span, "panicked")
				}
				return nil, errAt(a.span, "panicked with: %s", strings.Join(parts, ", "))
			},
		},
	}
}

// component maps a 0-255 number or a ratio to [0, 1].
func component(f float64) float64 {
	if f > 1 {
		return f / 255
	}
	return f
}

func builtinText(e *evaluator, a *callArgs) (value, error) {
	apply, err := textSetter(e, a)
	if err != nil {
		return nil, err
	}
	body, err := a.expect("body")
	if err != nil {
		return nil, err
	}
	return content{&styledElem{body: castContent(body), apply: apply}}, nil
}

func builtinHeading(_ *evaluator, a *callArgs) (value, error) {
	level := 1
	if arg, ok := a.namedArg("level"); ok {
		f, err := castFloat(arg)
		if err != nil {
			return nil, err
		}
		level = max(1, int(f))
	}
	body, err := a.expect("body")
	if err != nil {
		return nil, err
	}
	return content{&headingElem{level: level, body: castContent(body), span: a.span}}, nil
}

func (e *evaluator) container(a *callArgs, inline bool) (value, error) {
	b := &blockElem{inline: inline, span: a.span}
	var err error
	if arg, ok := a.namedArg("fill"); ok {
		if b.fill, err = castColor(arg); err != nil {
			return nil, err
		}
	}
	if arg, ok := a.namedArg("inset"); ok {
		if b.inset, err = castLength(arg); err != nil {
			return nil, err
		}
	}
	for name, dst := range map[string]**length{"width": &b.width, "height": &b.height} {
		if arg, ok := a.namedArg(name); ok {
			if *dst, err = castOptLength(arg); err != nil {
				return nil, err
			}
		}
	}
	if !inline {
		for name, dst := range map[string]**length{"above": &b.above, "below": &b.below} {
			if arg, ok := a.namedArg(name); ok {
				l, err := castLength(arg)
				if err != nil {
					return nil, err
				}
				*dst = &l
			}
		}
	}
	if body, ok := a.take(); ok {
		b.body = castContent(body)
	}
	return content{b}, nil
}

func builtinRect(_ *evaluator, a *callArgs) (value, error) {
	r := &rectElem{span: a.span}
	var err error
	if arg, ok := a.namedArg("width"); ok {
		if r.width, err = castOptLength(arg); err != nil {
			return nil, err
		}
	}
	if arg, ok := a.namedArg("height"); ok {
		if r.height, err = castOptLength(arg); err != nil {
			return nil, err
		}
	}
	if arg, ok := a.namedArg("fill"); ok {
		if r.fill, err = castColor(arg); err != nil {
			return nil, err
		}
	}
	if body, ok := a.take(); ok {
		r.body = castContent(body)
	}
	return content{r}, nil
}

func builtinImage(e *evaluator, a *callArgs) (value, error) {
	arg, err := a.expect("path")
	if err != nil {
		return nil, err
	}
	p, err := castString(arg)
	if err != nil {
		return nil, err
	}

	id := e.resolvePath(p)
	data, err := e.world.File(id)
	if err != nil {
		e.request(RequestFile, string(id))
		return nil, errAt(arg.span, "file not found (searching at %s)", id)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errAt(arg.span, "failed to decode image: %s", err.Error())
	}

	img := &imageElem{
		data:   data,
		format: format,
		width:  float64(cfg.Width) * pxToPt,
		height: float64(cfg.Height) * pxToPt,
		span:   a.span,
	}
	if w, ok := a.namedArg("width"); ok {
		if img.fit, err = castOptLength(w); err != nil {
			return nil, err
		}
	}
	return content{img}, nil
}

func spacing(a *callArgs, vertical bool) (value, error) {
	arg, err := a.expect("amount")
	if err != nil {
		return nil, err
	}
	l, err := castLength(arg)
	if err != nil {
		return nil, err
	}
	return content{&spacingElem{amount: l, vertical: vertical}}, nil
}

func builtinRotate(_ *evaluator, a *callArgs) (value, error) {
	arg, err := a.expect("angle")
	if err != nil {
		return nil, err
	}
	deg, ok := arg.v.(angle)
	if !ok {
		return nil, errAt(arg.span, "expected angle, found %s", typeName(arg.v))
	}
	body, err := a.expect("body")
	if err != nil {
		return nil, err
	}
	return content{&transformElem{body: castContent(body), transform: Rotate(float64(deg)), span: a.span}}, nil
}

func builtinScale(_ *evaluator, a *callArgs) (value, error) {
	sx, sy := 1.0, 1.0
	if len(a.pos) > 1 {
		f, err := castFloat(a.pos[0])
		if err != nil {
			return nil, err
		}
		a.pos = a.pos[1:]
		sx, sy = f, f
	}
	for name, dst := range map[string]*float64{"x": &sx, "y": &sy} {
		if arg, ok := a.namedArg(name); ok {
			f, err := castFloat(arg)
			if err != nil {
				return nil, err
			}
			*dst = f
		}
	}
	body, err := a.expect("body")
	if err != nil {
		return nil, err
	}
	return content{&transformElem{body: castContent(body), transform: Scale(sx, sy), span: a.span}}, nil
}

func builtinLink(_ *evaluator, a *callArgs) (value, error) {
	arg, err := a.expect("dest")
	if err != nil {
		return nil, err
	}
	url, err := castString(arg)
	if err != nil {
		return nil, err
	}
	l := &linkElem{url: url, span: a.span}
	if body, ok := a.take(); ok {
		l.body = castContent(body)
	} else {
		l.body = content{&textElem{text: url, span: arg.span}}
	}
	return content{l}, nil
}

func builtinLorem(_ *evaluator, a *callArgs) (value, error) {
	arg, err := a.expect("words")
	if err != nil {
		return nil, err
	}
	n, err := castFloat(arg)
	if err != nil {
		return nil, err
	}
	words := make([]string, max(0, int(n)))
	for i := range words {
		words[i] = loremWords[i%len(loremWords)]
	}
	text := strings.Join(words, " ")
	if text != "" {
		text += "."
	}
	return text, nil
}

func mapString(a *callArgs, fn func(string) string) (value, error) {
	arg, err := a.expect("text")
	if err != nil {
		return nil, err
	}
	s, err := castString(arg)
	if err != nil {
		return nil, err
	}
	return fn(s), nil
}

func builtinRGB(_ *evaluator, a *callArgs) (value, error) {
	first, err := a.expect("color")
	if err != nil {
		return nil, err
	}
	if hex, ok := first.v.(string); ok {
		c, err := ParseColor(hex)
		if err != nil {
			return nil, errAt(first.span, "invalid hex color %q", hex)
		}
		return c, nil
	}

	comps := []argValue{first}
	for len(comps) < 4 {
		next, ok := a.take()
		if !ok {
			break
		}
		comps = append(comps, next)
	}
	if len(comps) < 3 {
		return nil, errAt(a.span, "expected a hex string or three components")
	}
	vals := make([]float64, len(comps))
	for i, c := range comps {
		if vals[i], err = castFloat(c); err != nil {
			return nil, err
		}
	}
	out := colorFrom(colorful.Color{R: component(vals[0]), G: component(vals[1]), B: component(vals[2])})
	if len(vals) == 4 {
		out.A = uint8(component(vals[3]) * 255)
	}
	return out, nil
}

// setters implements set rules for the settable elements.
//
//nolint:gochecknoglobals // Read-only lookup table.
var setters = map[string]func(e *evaluator, a *callArgs) (func(*style), error){
	"page":    pageSetter,
	"text":    textSetter,
	"heading": headingSetter,
	"par":     parSetter,
	"block":   blockSetter,
	"link":    linkSetter,
}

// Settable returns the element names that can be used in set rules.
func Settable() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// pageSetter changes the global page style and returns no style change.
func pageSetter(e *evaluator, a *callArgs) (func(*style), error) {
	if arg, ok := a.namedArg("width"); ok {
		l, err := castOptLength(arg)
		if err != nil {
			return nil, err
		}
		e.page.width = resolveOpt(l)
	}
	if arg, ok := a.namedArg("height"); ok {
		l, err := castOptLength(arg)
		if err != nil {
			return nil, err
		}
		e.page.height = resolveOpt(l)
	}
	if arg, ok := a.namedArg("margin"); ok {
		l, err := castLength(arg)
		if err != nil {
			return nil, err
		}
		e.page.margin = l.resolve(defaultStyle().size)
	}
	if arg, ok := a.namedArg("fill"); ok {
		c, err := castColor(arg)
		if err != nil {
			return nil, err
		}
		e.page.fill = c
	}
	return nil, nil
}

func resolveOpt(l *length) *float64 {
	if l == nil {
		return nil
	}
	v := l.resolve(defaultStyle().size)
	return &v
}

func textSetter(e *evaluator, a *callArgs) (func(*style), error) {
	var changes []func(*style)
	if arg, ok := a.namedArg("size"); ok {
		l, err := castLength(arg)
		if err != nil {
			return nil, err
		}
		changes = append(changes, func(s *style) { s.size = l.resolve(s.size) })
	}
	if arg, ok := a.namedArg("fill"); ok {
		c, err := castColor(arg)
		if err != nil {
			return nil, err
		}
		changes = append(changes, func(s *style) { s.fill = c })
	}
	if arg, ok := a.namedArg("font"); ok {
		name, err := castString(arg)
		if err != nil {
			return nil, err
		}
		if _, known := e.fonts.Font(name); !known {
			e.request(RequestFont, name)
			e.warn(arg.span, "unknown font family: "+strings.ToLower(name),
				"the font was requested from the host; the fallback font is used meanwhile")
		}
		changes = append(changes, func(s *style) { s.font = name })
	}
	if arg, ok := a.namedArg("weight"); ok {
		var bold bool
		switch v := arg.v.(type) {
		case string:
			bold = v == "bold" || v == "semibold" || v == "extrabold" || v == "black"
		case float64:
			bold = v >= 600
		default:
			return nil, errAt(arg.span, "expected string or integer, found %s", typeName(arg.v))
		}
		changes = append(changes, func(s *style) { s.bold = bold })
	}
	if arg, ok := a.namedArg("style"); ok {
		v, err := castString(arg)
		if err != nil {
			return nil, err
		}
		italic := v == "italic" || v == "oblique"
		changes = append(changes, func(s *style) { s.italic = italic })
	}
	if arg, ok := a.namedArg("lang"); ok {
		v, err := castString(arg)
		if err != nil {
			return nil, err
		}
		changes = append(changes, func(s *style) { s.lang = v })
	}
	return combine(changes), nil
}

func headingSetter(_ *evaluator, a *callArgs) (func(*style), error) {
	arg, ok := a.namedArg("fill")
	if !ok {
		return nil, nil
	}
	c, err := castColor(arg)
	if err != nil {
		return nil, err
	}
	return func(s *style) { s.headingFill = c }, nil
}

func parSetter(_ *evaluator, a *callArgs) (func(*style), error) {
	var changes []func(*style)
	for name, pick := range map[string]func(*style) *length{
		"leading": func(s *style) *length { return &s.leading },
		"spacing": func(s *style) *length { return &s.spacing },
	} {
		if arg, ok := a.namedArg(name); ok {
			l, err := castLength(arg)
			if err != nil {
				return nil, err
			}
			changes = append(changes, func(s *style) { *pick(s) = l })
		}
	}
	return combine(changes), nil
}

func blockSetter(_ *evaluator, a *callArgs) (func(*style), error) {
	var changes []func(*style)
	for name, pick := range map[string]func(*style) *length{
		"above": func(s *style) *length { return &s.above },
		"below": func(s *style) *length { return &s.below },
	} {
		if arg, ok := a.namedArg(name); ok {
			l, err := castLength(arg)
			if err != nil {
				return nil, err
			}
			changes = append(changes, func(s *style) { *pick(s) = l })
		}
	}
	return combine(changes), nil
}

func linkSetter(_ *evaluator, a *callArgs) (func(*style), error) {
	arg, ok := a.namedArg("fill")
	if !ok {
		return nil, nil
	}
	c, err := castColor(arg)
	if err != nil {
		return nil, err
	}
	return func(s *style) { s.linkFill = c }, nil
}

func combine(changes []func(*style)) func(*style) {
	if len(changes) == 0 {
		return nil
	}
	return func(s *style) {
		for _, change := range changes {
			change(s)
		}
	}
}
