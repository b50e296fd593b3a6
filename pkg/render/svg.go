package render

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/yaklabco/livetype/pkg/typeset"
)

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// paint renders a color as an SVG paint attribute pair.
func paint(attr string, c typeset.Color) string {
	if c.Transparent() {
		return fmt.Sprintf(` %s="none"`, attr)
	}
	s := fmt.Sprintf(` %s="%s"`, attr, c.Hex())
	if c.A < 0xff {
		s += fmt.Sprintf(` %s-opacity="%s"`, attr, num(float64(c.A)/0xff))
	}
	return s
}

func escape(buf *bytes.Buffer, s string) {
	// EscapeText only fails when the writer does.
	_ = xml.EscapeText(buf, []byte(s))
}

func fontFamily(name string) string {
	switch name {
	case typeset.FamilyMono:
		return "monospace"
	case typeset.FamilySerif, typeset.FamilyMath:
		return "serif"
	default:
		return "sans-serif"
	}
}

func encodeSVG(frame *typeset.Frame, background typeset.Color) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		num(frame.Width), num(frame.Height), num(frame.Width), num(frame.Height))
	if !background.Transparent() {
		fmt.Fprintf(&buf, `<rect width="%s" height="%s"%s/>`, num(frame.Width), num(frame.Height), paint("fill", background))
	}
	svgFrame(&buf, frame)
	buf.WriteString("</svg>")
	return buf.Bytes()
}

func svgFrame(buf *bytes.Buffer, f *typeset.Frame) {
	for _, it := range f.Items {
		x, y := num(it.Pos.X), num(it.Pos.Y)
		switch item := it.Item.(type) {
		case *typeset.TextItem:
			fmt.Fprintf(buf, `<text x="%s" y="%s" font-family="%s" font-size="%s"%s`,
				x, y, fontFamily(item.Font), num(item.Size), paint("fill", item.Fill))
			if item.Bold {
				buf.WriteString(` font-weight="bold"`)
			}
			if item.Italic {
				buf.WriteString(` font-style="italic"`)
			}
			if item.Lang != "" {
				buf.WriteString(` data-lang="`)
				escape(buf, item.Lang)
				buf.WriteByte('"')
			}
			buf.WriteString(` xml:space="preserve">`)
			escape(buf, item.Text())
			buf.WriteString("</text>")
		case *typeset.ShapeItem:
			fmt.Fprintf(buf, `<rect x="%s" y="%s" width="%s" height="%s"%s`,
				x, y, num(item.Width), num(item.Height), paint("fill", item.Fill))
			if !item.Stroke.Transparent() {
				buf.WriteString(paint("stroke", item.Stroke))
			}
			buf.WriteString("/>")
		case *typeset.ImageItem:
			fmt.Fprintf(buf, `<image x="%s" y="%s" width="%s" height="%s" preserveAspectRatio="none" href="data:image/%s;base64,%s"/>`,
				x, y, num(item.Width), num(item.Height), item.Format, base64.StdEncoding.EncodeToString(item.Data))
		case *typeset.LinkItem:
			buf.WriteString(`<a href="`)
			escape(buf, item.URL)
			fmt.Fprintf(buf, `"><rect x="%s" y="%s" width="%s" height="%s" fill="none" pointer-events="all"/></a>`,
				x, y, num(item.Width), num(item.Height))
		case *typeset.TagItem:
		case *typeset.GroupItem:
			t := item.Transform
			if t.IsIdentity() {
				fmt.Fprintf(buf, `<g transform="translate(%s %s)">`, x, y)
			} else {
				fmt.Fprintf(buf, `<g transform="translate(%s %s) matrix(%s %s %s %s %s %s)">`,
					x, y, num(t.A), num(t.B), num(t.C), num(t.D), num(t.E), num(t.F))
			}
			svgFrame(buf, item.Frame)
			buf.WriteString("</g>")
		}
	}
}
