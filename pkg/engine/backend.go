package engine

import (
	"context"

	"github.com/yaklabco/livetype/pkg/render"
	"github.com/yaklabco/livetype/pkg/source"
	"github.com/yaklabco/livetype/pkg/typeset"
)

// Backend compiles documents and answers IDE queries about them.
type Backend interface {
	Compile(ctx context.Context, world typeset.World) typeset.Result
	Autocomplete(world typeset.World, doc *typeset.Document, src *source.Source, cursor int, explicit bool) (int, []typeset.Completion, bool)
	Tooltip(world typeset.World, doc *typeset.Document, src *source.Source, cursor int, side typeset.Side) (typeset.TooltipContent, bool)
	JumpFromClick(world typeset.World, doc *typeset.Document, p typeset.Point) (typeset.Jump, bool)
}

// Renderer encodes frames and documents.
type Renderer interface {
	RenderFrame(frame *typeset.Frame, opts render.Options) ([]byte, error)
	RenderDocument(doc *typeset.Document) ([]byte, error)
}

// TypesetBackend is the Backend implemented by the typeset package.
type TypesetBackend struct {
	compiler *typeset.Compiler
}

// NewTypesetBackend creates a backend measuring text with fonts. A nil font
// book selects typeset.DefaultFontBook.
func NewTypesetBackend(fonts typeset.FontBook) *TypesetBackend {
	return &TypesetBackend{compiler: typeset.NewCompiler(fonts)}
}

// Compile implements Backend.
func (b *TypesetBackend) Compile(ctx context.Context, world typeset.World) typeset.Result {
	return b.compiler.Compile(ctx, world)
}

// Autocomplete implements Backend.
func (b *TypesetBackend) Autocomplete(world typeset.World, doc *typeset.Document, src *source.Source, cursor int, explicit bool) (int, []typeset.Completion, bool) {
	return typeset.Autocomplete(world, doc, src, cursor, explicit)
}

// Tooltip implements Backend.
func (b *TypesetBackend) Tooltip(world typeset.World, doc *typeset.Document, src *source.Source, cursor int, side typeset.Side) (typeset.TooltipContent, bool) {
	return typeset.Tooltip(world, doc, src, cursor, side)
}

// JumpFromClick implements Backend.
func (b *TypesetBackend) JumpFromClick(world typeset.World, doc *typeset.Document, p typeset.Point) (typeset.Jump, bool) {
	return typeset.JumpFromClick(world, doc, p)
}
