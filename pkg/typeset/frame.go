package typeset

import (
	"fmt"
	"math"
)

// Point is a position in points. Y grows downwards.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	Min Point
	Max Point
}

// Contains reports whether p lies inside r, borders included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Transform is a 2D affine transform mapping (x, y) to
// (A*x + C*y + E, B*x + D*y + F).
type Transform struct {
	A, B, C, D, E, F float64
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{A: 1, D: 1}
}

// Translate returns a translation.
func Translate(dx, dy float64) Transform {
	return Transform{A: 1, D: 1, E: dx, F: dy}
}

// Scale returns a scaling transform.
func Scale(sx, sy float64) Transform {
	return Transform{A: sx, D: sy}
}

// Rotate returns a rotation by deg degrees, clockwise on screen.
func Rotate(deg float64) Transform {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Transform{A: cos, B: sin, C: -sin, D: cos}
}

// IsIdentity reports whether t leaves every point unchanged.
func (t Transform) IsIdentity() bool {
	return t == Identity()
}

// Then returns the transform that applies t first and then u.
func (t Transform) Then(u Transform) Transform {
	return Transform{
		A: u.A*t.A + u.C*t.B,
		B: u.B*t.A + u.D*t.B,
		C: u.A*t.C + u.C*t.D,
		D: u.B*t.C + u.D*t.D,
		E: u.A*t.E + u.C*t.F + u.E,
		F: u.B*t.E + u.D*t.F + u.F,
	}
}

// Apply maps a point through the transform.
func (t Transform) Apply(p Point) Point {
	return Point{X: t.A*p.X + t.C*p.Y + t.E, Y: t.B*p.X + t.D*p.Y + t.F}
}

// Invert returns the inverse transform. It reports false for singular transforms.
func (t Transform) Invert() (Transform, bool) {
	det := t.A*t.D - t.B*t.C
	if math.Abs(det) < 1e-12 {
		return Transform{}, false
	}
	return Transform{
		A: t.D / det,
		B: -t.B / det,
		C: -t.C / det,
		D: t.A / det,
		E: (t.C*t.F - t.D*t.E) / det,
		F: (t.B*t.E - t.A*t.F) / det,
	}, true
}

// Bounds returns the bounding box of the rectangle [0,w]x[0,h] after the transform.
func (t Transform) Bounds(w, h float64) Rect {
	corners := [4]Point{
		t.Apply(Point{0, 0}),
		t.Apply(Point{w, 0}),
		t.Apply(Point{0, h}),
		t.Apply(Point{w, h}),
	}
	r := Rect{Min: corners[0], Max: corners[0]}
	for _, c := range corners[1:] {
		r.Min.X = math.Min(r.Min.X, c.X)
		r.Min.Y = math.Min(r.Min.Y, c.Y)
		r.Max.X = math.Max(r.Max.X, c.X)
		r.Max.Y = math.Max(r.Max.Y, c.Y)
	}
	return r
}

// Color is an sRGB color with alpha.
type Color struct {
	R, G, B, A uint8
}

// Black is the default text color.
var Black = Color{A: 255} //nolint:gochecknoglobals // Immutable value.

// Transparent returns whether the color is fully transparent.
func (c Color) Transparent() bool {
	return c.A == 0
}

// Hex returns the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Item is a visual element inside a frame. The set of items is closed.
type Item interface {
	isItem()
}

// Glyph is one shaped cluster of a text item.
type Glyph struct {
	Text    string
	Advance float64
	Span    Span
}

// TextItem is a run of glyphs sharing a font. Its position is the left end of
// the baseline.
type TextItem struct {
	Font      string
	Size      float64
	Ascender  float64
	Descender float64
	Fill      Color
	Bold      bool
	Italic    bool
	Glyphs    []Glyph

	// Lang is set for raw text with a known language.
	Lang string
}

// Text returns the concatenated glyph text.
func (t *TextItem) Text() string {
	n := 0
	for _, g := range t.Glyphs {
		n += len(g.Text)
	}
	buf := make([]byte, 0, n)
	for _, g := range t.Glyphs {
		buf = append(buf, g.Text...)
	}
	return string(buf)
}

// Width returns the sum of glyph advances.
func (t *TextItem) Width() float64 {
	w := 0.0
	for _, g := range t.Glyphs {
		w += g.Advance
	}
	return w
}

// ShapeItem is a filled rectangle positioned at its top-left corner.
type ShapeItem struct {
	Width  float64
	Height float64
	Fill   Color
	Stroke Color
	Span   Span
}

// ImageItem is a raster image positioned at its top-left corner.
type ImageItem struct {
	Width  float64
	Height float64
	Format string
	Data   []byte
	Span   Span
}

// LinkItem is a clickable area positioned at its top-left corner.
type LinkItem struct {
	Width  float64
	Height float64
	URL    string
}

// TagItem is a zero-size introspection marker.
type TagItem struct {
	Name string
}

// GroupItem nests a frame, optionally under a transform. The transform is
// applied around the group's position.
type GroupItem struct {
	Frame     *Frame
	Transform Transform
}

func (*TextItem) isItem()  {}
func (*ShapeItem) isItem() {}
func (*ImageItem) isItem() {}
func (*LinkItem) isItem()  {}
func (*TagItem) isItem()   {}
func (*GroupItem) isItem() {}

// Positioned places an item inside a frame.
type Positioned struct {
	Pos  Point
	Item Item
}

// Frame is a finished piece of layout.
type Frame struct {
	Width  float64
	Height float64
	Items  []Positioned
}

// NewFrame creates an empty frame of the given size.
func NewFrame(width, height float64) *Frame {
	return &Frame{Width: width, Height: height}
}

// Push appends an item at pos.
func (f *Frame) Push(pos Point, item Item) {
	f.Items = append(f.Items, Positioned{Pos: pos, Item: item})
}

// PushFrame appends all items of other shifted by pos.
func (f *Frame) PushFrame(pos Point, other *Frame) {
	for _, it := range other.Items {
		f.Items = append(f.Items, Positioned{Pos: it.Pos.Add(pos), Item: it.Item})
	}
}

// Page is one page of a document.
type Page struct {
	Frame *Frame
	Fill  Color
}

// Document is the layouted result of a compilation.
type Document struct {
	Pages []Page
}

// Width returns the width of the widest page.
func (d *Document) Width() float64 {
	w := 0.0
	for _, p := range d.Pages {
		w = math.Max(w, p.Frame.Width)
	}
	return w
}

// Height returns the total height of all pages stacked vertically.
func (d *Document) Height() float64 {
	h := 0.0
	for _, p := range d.Pages {
		h += p.Frame.Height
	}
	return h
}
