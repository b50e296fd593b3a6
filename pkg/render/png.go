package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/yaklabco/livetype/pkg/typeset"
)

func nrgba(c typeset.Color) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// pixelBounds returns the device rectangle covered by a w×h box at pos.
// Rotated boxes cover their bounding box.
func pixelBounds(m typeset.Transform, pos typeset.Point, w, h float64) image.Rectangle {
	r := typeset.Translate(pos.X, pos.Y).Then(m).Bounds(w, h)
	return image.Rect(
		int(math.Floor(r.Min.X)), int(math.Floor(r.Min.Y)),
		int(math.Ceil(r.Max.X)), int(math.Ceil(r.Max.Y)),
	)
}

func encodePNG(frame *typeset.Frame, density float64, background typeset.Color) ([]byte, error) {
	w := max(1, int(math.Ceil(frame.Width*density)))
	h := max(1, int(math.Ceil(frame.Height*density)))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	if !background.Transparent() {
		draw.Draw(img, img.Bounds(), image.NewUniform(nrgba(background)), image.Point{}, draw.Src)
	}

	var firstErr error
	visit(frame, typeset.Scale(density, density), func(m typeset.Transform, pos typeset.Point, item typeset.Item) {
		switch item := item.(type) {
		case *typeset.ShapeItem:
			r := pixelBounds(m, pos, item.Width, item.Height)
			if !item.Fill.Transparent() {
				draw.Draw(img, r, image.NewUniform(nrgba(item.Fill)), image.Point{}, draw.Over)
			}
			if !item.Stroke.Transparent() {
				strokeRect(img, r, nrgba(item.Stroke))
			}
		case *typeset.ImageItem:
			src, _, err := image.Decode(bytes.NewReader(item.Data))
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("decode %s image: %w", item.Format, err)
				}
				return
			}
			draw.ApproxBiLinear.Scale(img, pixelBounds(m, pos, item.Width, item.Height), src, src.Bounds(), draw.Over, nil)
		case *typeset.TextItem:
			if item.Fill.Transparent() {
				return
			}
			p := m.Apply(pos)
			d := font.Drawer{
				Dst:  img,
				Src:  image.NewUniform(nrgba(item.Fill)),
				Face: basicfont.Face7x13,
				Dot:  fixed.P(int(math.Round(p.X)), int(math.Round(p.Y))),
			}
			d.DrawString(item.Text())
		}
	})
	if firstErr != nil {
		return nil, firstErr
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func strokeRect(img draw.Image, r image.Rectangle, c color.NRGBA) {
	src := image.NewUniform(c)
	for _, edge := range []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
		image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y),
		image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y),
	} {
		draw.Draw(img, edge, src, image.Point{}, draw.Over)
	}
}
