package render

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/yaklabco/livetype/pkg/typeset"
)

// Standard 14 fonts referenced by every page.
var pdfFonts = []string{ //nolint:gochecknoglobals // Immutable table.
	"Helvetica",
	"Helvetica-Bold",
	"Helvetica-Oblique",
	"Helvetica-BoldOblique",
	"Courier",
}

// placeholderFill marks images, which are not embedded.
var placeholderFill = typeset.Color{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff} //nolint:gochecknoglobals // Immutable value.

// pdfObjects collects numbered objects before serialization.
type pdfObjects struct {
	bodies []string
}

func (o *pdfObjects) add(body string) int {
	o.bodies = append(o.bodies, body)
	return len(o.bodies)
}

func (o *pdfObjects) set(n int, body string) {
	o.bodies[n-1] = body
}

func (o *pdfObjects) stream(content string) int {
	return o.add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
}

func (o *pdfObjects) bytes() []byte {
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(o.bodies))
	for i, body := range o.bodies {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(o.bodies)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(o.bodies)+1, xref)
	return b.Bytes()
}

func pdfNum(f float64) string {
	return strconv.FormatFloat(math.Round(f*1000)/1000, 'f', -1, 64)
}

func pdfColor(c typeset.Color, op string) string {
	return fmt.Sprintf("%s %s %s %s", pdfNum(float64(c.R)/255), pdfNum(float64(c.G)/255), pdfNum(float64(c.B)/255), op)
}

// pdfString encodes text as a WinAnsi literal string.
func pdfString(s string) string {
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	encoded, err := enc.String(s)
	if err != nil {
		encoded = strings.Map(func(r rune) rune {
			if r > 0x7e {
				return '?'
			}
			return r
		}, s)
	}

	var b strings.Builder
	b.WriteByte('(')
	for i := 0; i < len(encoded); i++ {
		c := encoded[i]
		switch {
		case c == '\\' || c == '(' || c == ')':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c < 0x20 || c > 0x7e:
			fmt.Fprintf(&b, "\\%03o", c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(')')
	return b.String()
}

func pdfFont(item *typeset.TextItem) string {
	if item.Font == typeset.FamilyMono {
		return "/F5"
	}
	switch {
	case item.Bold && item.Italic:
		return "/F4"
	case item.Bold:
		return "/F2"
	case item.Italic:
		return "/F3"
	default:
		return "/F1"
	}
}

func quad(m typeset.Transform, pos typeset.Point, w, h float64) string {
	corners := [4]typeset.Point{
		m.Apply(pos),
		m.Apply(typeset.Point{X: pos.X + w, Y: pos.Y}),
		m.Apply(typeset.Point{X: pos.X + w, Y: pos.Y + h}),
		m.Apply(typeset.Point{X: pos.X, Y: pos.Y + h}),
	}
	var b strings.Builder
	for i, c := range corners {
		op := "l"
		if i == 0 {
			op = "m"
		}
		fmt.Fprintf(&b, "%s %s %s ", pdfNum(c.X), pdfNum(c.Y), op)
	}
	b.WriteString("h")
	return b.String()
}

// pageContent draws one page and returns its content stream and link
// annotations.
func pageContent(page typeset.Page) (string, []string) {
	f := page.Frame
	var b strings.Builder
	var annots []string

	if !page.Fill.Transparent() {
		fmt.Fprintf(&b, "%s 0 0 %s %s re f\n", pdfColor(page.Fill, "rg"), pdfNum(f.Width), pdfNum(f.Height))
	}

	flip := typeset.Transform{A: 1, D: -1, F: f.Height}
	visit(f, flip, func(m typeset.Transform, pos typeset.Point, item typeset.Item) {
		switch item := item.(type) {
		case *typeset.ShapeItem:
			path := quad(m, pos, item.Width, item.Height)
			if !item.Fill.Transparent() {
				fmt.Fprintf(&b, "%s %s f\n", pdfColor(item.Fill, "rg"), path)
			}
			if !item.Stroke.Transparent() {
				fmt.Fprintf(&b, "%s 0.5 w %s S\n", pdfColor(item.Stroke, "RG"), path)
			}
		case *typeset.ImageItem:
			path := quad(m, pos, item.Width, item.Height)
			fmt.Fprintf(&b, "%s %s f\n", pdfColor(placeholderFill, "rg"), path)
		case *typeset.TextItem:
			if item.Fill.Transparent() || len(item.Glyphs) == 0 {
				return
			}
			origin := m.Apply(pos)
			fmt.Fprintf(&b, "%s BT %s %s Tf %s %s %s %s %s %s Tm %s Tj ET\n",
				pdfColor(item.Fill, "rg"), pdfFont(item), pdfNum(item.Size),
				pdfNum(m.A), pdfNum(m.B), pdfNum(-m.C), pdfNum(-m.D), pdfNum(origin.X), pdfNum(origin.Y),
				pdfString(item.Text()))
		case *typeset.LinkItem:
			r := typeset.Translate(pos.X, pos.Y).Then(m).Bounds(item.Width, item.Height)
			annots = append(annots, fmt.Sprintf(
				"<< /Type /Annot /Subtype /Link /Rect [%s %s %s %s] /Border [0 0 0] /A << /S /URI /URI %s >> >>",
				pdfNum(r.Min.X), pdfNum(r.Min.Y), pdfNum(r.Max.X), pdfNum(r.Max.Y), pdfString(item.URL)))
		}
	})
	return b.String(), annots
}

func encodePDF(doc *typeset.Document) ([]byte, error) {
	objs := &pdfObjects{}
	objs.add("<< /Type /Catalog /Pages 2 0 R >>")
	pages := objs.add("")

	var fontRefs strings.Builder
	for i, name := range pdfFonts {
		n := objs.add(fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /%s /Encoding /WinAnsiEncoding >>", name))
		fmt.Fprintf(&fontRefs, "/F%d %d 0 R ", i+1, n)
	}

	kids := make([]string, 0, len(doc.Pages))
	for _, page := range doc.Pages {
		content, annots := pageContent(page)
		contentRef := objs.stream(content)

		annotRefs := make([]string, 0, len(annots))
		for _, a := range annots {
			annotRefs = append(annotRefs, fmt.Sprintf("%d 0 R", objs.add(a)))
		}
		dict := fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %s %s] /Contents %d 0 R /Resources << /Font << %s>> >>",
			pdfNum(page.Frame.Width), pdfNum(page.Frame.Height), contentRef, fontRefs.String())
		if len(annotRefs) > 0 {
			dict += " /Annots [" + strings.Join(annotRefs, " ") + "]"
		}
		kids = append(kids, fmt.Sprintf("%d 0 R", objs.add(dict+" >>")))
	}
	objs.set(pages, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids)))

	return normalizePDF(objs.bytes(), len(doc.Pages))
}

// normalizePDF validates and optimizes the raw file with pdfcpu and
// rewrites it.
func normalizePDF(raw []byte, pages int) ([]byte, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(raw), model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("validate pdf: %w", err)
	}
	if ctx.PageCount != pages {
		return nil, fmt.Errorf("%w: wrote %d, read back %d", ErrPageCount, pages, ctx.PageCount)
	}

	var out bytes.Buffer
	if err := api.WriteContext(ctx, &out); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return out.Bytes(), nil
}
