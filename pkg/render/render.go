// Package render encodes typeset frames as SVG or PNG and whole documents
// as PDF.
package render

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/yaklabco/livetype/pkg/typeset"
)

// Encoding selects the payload format of a rendered frame.
type Encoding string

const (
	EncodingSVG Encoding = "svg"
	EncodingPNG Encoding = "png"
)

// Sentinel errors.
var (
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
	ErrEmptyDocument       = errors.New("document has no pages")
	ErrPageCount           = errors.New("page count mismatch")
)

// ParseEncoding validates an encoding name.
func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(s); e {
	case EncodingSVG, EncodingPNG:
		return e, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedEncoding, s)
	}
}

// Options control frame rendering.
type Options struct {
	Encoding Encoding

	// PixelPerPt is the raster density. Only PNG uses it.
	PixelPerPt float64

	// Background fills the frame before any item is drawn.
	Background typeset.Color
}

// Renderer turns frames into payloads. It is stateless and safe for
// concurrent use.
type Renderer struct{}

var disableConfigDir sync.Once //nolint:gochecknoglobals // Process-wide pdfcpu setting.

// New creates a renderer.
func New() *Renderer {
	// pdfcpu would otherwise install a configuration directory in the
	// user's home on first use.
	disableConfigDir.Do(api.DisableConfigDir)
	return &Renderer{}
}

// RenderFrame encodes a single frame.
func (r *Renderer) RenderFrame(frame *typeset.Frame, opts Options) ([]byte, error) {
	switch opts.Encoding {
	case EncodingSVG, "":
		return encodeSVG(frame, opts.Background), nil
	case EncodingPNG:
		density := opts.PixelPerPt
		if density <= 0 {
			density = 1
		}
		return encodePNG(frame, density, opts.Background)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, opts.Encoding)
	}
}

// RenderDocument encodes all pages of a document as PDF.
func (r *Renderer) RenderDocument(doc *typeset.Document) ([]byte, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, ErrEmptyDocument
	}
	return encodePDF(doc)
}

// visit walks a frame depth-first. m maps frame coordinates to output
// coordinates.
func visit(f *typeset.Frame, m typeset.Transform, fn func(m typeset.Transform, pos typeset.Point, item typeset.Item)) {
	for _, it := range f.Items {
		if g, ok := it.Item.(*typeset.GroupItem); ok {
			visit(g.Frame, g.Transform.Then(typeset.Translate(it.Pos.X, it.Pos.Y)).Then(m), fn)
			continue
		}
		fn(m, it.Pos, it.Item)
	}
}
