package engine

import (
	"fmt"
	"hash"
	"hash/fnv"
	"math"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/livetype/internal/logging"
	"github.com/yaklabco/livetype/pkg/render"
	"github.com/yaklabco/livetype/pkg/source"
	"github.com/yaklabco/livetype/pkg/typeset"
)

// Fragment is the rendered output of one user block.
type Fragment struct {
	// Range covers the block in the user document.
	Range Range `json:"range"`

	Payload  []byte `json:"payload"`
	Encoding string `json:"encoding"`

	// Hash identifies the fragment's visual content.
	Hash uint64 `json:"hash"`

	// Height in points, including the gap to the next fragment.
	Height      float64 `json:"height"`
	PixelHeight int     `json:"pixel_height"`

	// Offset is the top of the fragment within the document, in points.
	Offset float64 `json:"offset"`
}

// frameBlock is one atomic visual item of a flattened document.
type frameBlock struct {
	pos  typeset.Point
	item typeset.Item

	top    float64
	bottom float64

	// start and end are user bytes; ranged is false when the item has no
	// position in the user document.
	start  int
	end    int
	ranged bool
}

// flattener turns a document into frame blocks in paint order.
type flattener struct {
	world  typeset.World
	main   source.ID
	syn    *Synthesis
	logger *log.Logger
	out    []frameBlock
}

func glyphSpan(item *typeset.TextItem, main source.ID) typeset.Span {
	first, last := -1, -1
	for i, g := range item.Glyphs {
		if g.Span.File != main {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		return typeset.Detached()
	}
	return typeset.Span{File: main, Start: item.Glyphs[first].Span.Start, End: item.Glyphs[last].Span.End}
}

// itemSpan returns the span of a leaf item in the synthesized slot.
func itemSpan(item typeset.Item, main source.ID) typeset.Span {
	var span typeset.Span
	switch item := item.(type) {
	case *typeset.TextItem:
		return glyphSpan(item, main)
	case *typeset.ShapeItem:
		span = item.Span
	case *typeset.ImageItem:
		span = item.Span
	case *typeset.GroupItem:
		return frameSpan(item.Frame, main)
	case *typeset.LinkItem, *typeset.TagItem:
		return typeset.Detached()
	}
	if span.File != main {
		return typeset.Detached()
	}
	return span
}

// frameSpan unions the spans of every item in f.
func frameSpan(f *typeset.Frame, main source.ID) typeset.Span {
	span := typeset.Detached()
	for _, it := range f.Items {
		span = span.Union(itemSpan(it.Item, main))
	}
	return span
}

func (fl *flattener) push(pos typeset.Point, item typeset.Item, top, bottom float64) {
	fb := frameBlock{pos: pos, item: item, top: top, bottom: bottom}
	if span := itemSpan(item, fl.main); !span.IsDetached() {
		fb.start, fb.end, fb.ranged = mapSpan(fl.world, fl.main, fl.syn.Mapper, span)
	}
	fl.out = append(fl.out, fb)
}

func (fl *flattener) frame(f *typeset.Frame, origin typeset.Point) {
	for _, it := range f.Items {
		pos := origin.Add(it.Pos)
		switch item := it.Item.(type) {
		case *typeset.GroupItem:
			if item.Transform.IsIdentity() {
				fl.frame(item.Frame, pos)
				continue
			}
			box := item.Transform.Then(typeset.Translate(pos.X, pos.Y)).Bounds(item.Frame.Width, item.Frame.Height)
			fl.logger.Debug("transformed group kept as one item",
				logging.FieldTop, box.Min.Y,
				logging.FieldHeight, box.Max.Y-box.Min.Y)
			fl.push(pos, item, box.Min.Y, box.Max.Y)
		case *typeset.TextItem:
			fl.push(pos, item, pos.Y-item.Ascender*item.Size, pos.Y+item.Descender*item.Size)
		case *typeset.ShapeItem:
			fl.push(pos, item, pos.Y, pos.Y+item.Height)
		case *typeset.ImageItem:
			fl.push(pos, item, pos.Y, pos.Y+item.Height)
		case *typeset.LinkItem:
			fl.push(pos, item, pos.Y, pos.Y)
		case *typeset.TagItem:
			fl.push(pos, item, pos.Y, pos.Y)
		}
	}
}

// slice collects the frame blocks of one user block.
type slice struct {
	block  int
	items  []frameBlock
	top    float64
	bottom float64
}

func newSlice(block int) *slice {
	return &slice{block: block, top: math.Inf(1), bottom: math.Inf(-1)}
}

func (s *slice) add(fbs ...frameBlock) {
	for _, fb := range fbs {
		s.items = append(s.items, fb)
		s.top = math.Min(s.top, fb.top)
		s.bottom = math.Max(s.bottom, fb.bottom)
	}
}

// assign distributes frame blocks over the user blocks in order. It returns
// one slice per block and the frame blocks no block claimed.
func assign(blocks []Block, fbs []frameBlock) ([]*slice, []frameBlock) {
	slices := make([]*slice, len(blocks))
	var pending []frameBlock
	i := 0
	for bi, blk := range blocks {
		s := newSlice(bi)
		for i < len(fbs) {
			fb := fbs[i]
			if !fb.ranged {
				pending = append(pending, fb)
				i++
				continue
			}
			if fb.end > blk.End {
				break
			}
			s.add(pending...)
			pending = nil
			s.add(fb)
			i++
		}
		slices[bi] = s
	}
	return slices, append(pending, fbs[i:]...)
}

// extract slices doc into one rendered fragment per visible block.
func (e *Engine) extract(doc *DocumentContext, syn *Synthesis, compiled *typeset.Document, user *source.Source) ([]Fragment, error) {
	if compiled == nil || len(compiled.Pages) == 0 {
		return nil, nil
	}
	logger := e.logger.With(logging.FieldHandle, doc.handle)

	fl := &flattener{world: doc.world, main: doc.main, syn: syn, logger: logger}
	y := 0.0
	for _, page := range compiled.Pages {
		fl.frame(page.Frame, typeset.Point{Y: y})
		y += page.Frame.Height
	}

	slices, leftovers := assign(syn.Blocks, fl.out)

	cutoff := math.Inf(1)
	if doc.render.HeightCutoff != nil {
		cutoff = *doc.render.HeightCutoff
	}
	var kept []*slice
	for _, s := range slices {
		var reason string
		switch {
		case syn.Blocks[s.block].Neutralized:
			reason = "neutralized"
		case len(s.items) == 0 || s.bottom-s.top <= 0:
			reason = "empty"
		case s.top >= cutoff:
			reason = "below cutoff"
		default:
			kept = append(kept, s)
			continue
		}
		logger.Debug("skipping block", logging.FieldBlock, s.block, logging.FieldReason, reason)
	}
	if len(kept) == 0 {
		return nil, nil
	}
	kept[len(kept)-1].items = append(kept[len(kept)-1].items, leftovers...)

	docHeight := compiled.Height()
	width := compiled.Width()
	opts := render.Options{
		Encoding:   render.Encoding(doc.render.Encoding),
		PixelPerPt: doc.render.PixelPerPt,
		Background: compiled.Pages[0].Fill,
	}

	fragments := make([]Fragment, 0, len(kept))
	for k, s := range kept {
		next := docHeight
		if k+1 < len(kept) {
			next = kept[k+1].top
		}
		height := next - s.top

		frame := typeset.NewFrame(width, height)
		for _, fb := range s.items {
			frame.Push(typeset.Point{X: fb.pos.X, Y: fb.pos.Y - s.top}, fb.item)
		}
		payload, err := e.renderer.RenderFrame(frame, opts)
		if err != nil {
			return nil, fmt.Errorf("render block %d: %w", s.block, err)
		}

		blk := syn.Blocks[s.block]
		r, _ := utf16Range(user, blk.Start, blk.End)
		fragments = append(fragments, Fragment{
			Range:       r,
			Payload:     payload,
			Encoding:    string(opts.Encoding),
			Hash:        hashFrame(frame, opts.Background),
			Height:      height,
			PixelHeight: int(math.Ceil(height * doc.render.PixelPerPt)),
			Offset:      s.top,
		})
	}
	return fragments, nil
}

// hashFrame hashes a canonical encoding of the frame's visual content.
func hashFrame(f *typeset.Frame, background typeset.Color) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "bg %s %d\n", background.Hex(), background.A)
	writeFrame(h, f)
	return h.Sum64()
}

func writeFrame(h hash.Hash64, f *typeset.Frame) {
	fmt.Fprintf(h, "frame %g %g %d\n", f.Width, f.Height, len(f.Items))
	for _, it := range f.Items {
		fmt.Fprintf(h, "at %g %g ", it.Pos.X, it.Pos.Y)
		switch item := it.Item.(type) {
		case *typeset.TextItem:
			fmt.Fprintf(h, "text %q %g %s %d %t %t %q", item.Font, item.Size, item.Fill.Hex(), item.Fill.A, item.Bold, item.Italic, item.Lang)
			for _, g := range item.Glyphs {
				fmt.Fprintf(h, " %q:%g", g.Text, g.Advance)
			}
		case *typeset.ShapeItem:
			fmt.Fprintf(h, "shape %g %g %s %d %s %d", item.Width, item.Height,
				item.Fill.Hex(), item.Fill.A, item.Stroke.Hex(), item.Stroke.A)
		case *typeset.ImageItem:
			fmt.Fprintf(h, "image %g %g %s %d ", item.Width, item.Height, item.Format, len(item.Data))
			_, _ = h.Write(item.Data)
		case *typeset.LinkItem:
			fmt.Fprintf(h, "link %g %g %q", item.Width, item.Height, item.URL)
		case *typeset.TagItem:
			fmt.Fprintf(h, "tag %q", item.Name)
		case *typeset.GroupItem:
			t := item.Transform
			fmt.Fprintf(h, "group %g %g %g %g %g %g\n", t.A, t.B, t.C, t.D, t.E, t.F)
			writeFrame(h, item.Frame)
		}
		_, _ = h.Write([]byte{'\n'})
	}
}
