// Package engine turns a markup document that is edited keystroke by
// keystroke into rendered per-block fragments. It synthesizes a compilable
// document from the user text, recovers from errors by blanking the failing
// block, slices the compiled output along the user's blocks and translates
// positions between the user document and the synthesized one.
package engine

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/livetype/internal/logging"
	"github.com/yaklabco/livetype/pkg/config"
	"github.com/yaklabco/livetype/pkg/render"
	"github.com/yaklabco/livetype/pkg/source"
	"github.com/yaklabco/livetype/pkg/typeset"
)

// Engine owns the open documents and the file table they compile against.
// It is safe for concurrent use across handles; calls on one handle must be
// serialized by the host.
type Engine struct {
	docs     *store
	files    *typeset.FileTable
	fonts    typeset.FontBook
	backend  Backend
	renderer Renderer
	tooltips *tooltipRenderer
	logger   *log.Logger
	defaults config.Render
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithBackend replaces the typeset backend.
func WithBackend(b Backend) Option {
	return func(e *Engine) {
		e.backend = b
	}
}

// WithRenderer replaces the frame and document encoder.
func WithRenderer(r Renderer) Option {
	return func(e *Engine) {
		e.renderer = r
	}
}

// WithFonts sets the font book handed to document worlds and to the default
// backend.
func WithFonts(fonts typeset.FontBook) Option {
	return func(e *Engine) {
		e.fonts = fonts
	}
}

// WithFileTable shares a file table with other engines or the host.
func WithFileTable(files *typeset.FileTable) Option {
	return func(e *Engine) {
		e.files = files
	}
}

// WithDefaults sets the render parameters of newly opened documents.
func WithDefaults(r config.Render) Option {
	return func(e *Engine) {
		e.defaults = r.Clone()
	}
}

// New creates an engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		docs:     newStore(),
		tooltips: newTooltipRenderer(),
		defaults: config.NewRender(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.Default()
	}
	if e.fonts == nil {
		e.fonts = typeset.DefaultFontBook()
	}
	if e.files == nil {
		e.files = typeset.NewFileTable()
	}
	if e.backend == nil {
		e.backend = NewTypesetBackend(e.fonts)
	}
	if e.renderer == nil {
		e.renderer = render.New()
	}
	return e
}

// Files returns the file table documents compile against.
func (e *Engine) Files() *typeset.FileTable {
	return e.files
}

// Documents returns the number of open documents.
func (e *Engine) Documents() int {
	return e.docs.len()
}

// Open creates a document. The path names its synthesized slot; an empty
// path gets a generated name. Relative imports resolve against the path.
func (e *Engine) Open(path string) (Handle, error) {
	doc, err := e.docs.add(path, func(h Handle, main source.ID) *DocumentContext {
		return &DocumentContext{
			handle: h,
			main:   main,
			aux:    main.Aux(),
			world:  typeset.NewTableWorld(e.files, main, e.fonts),
			render: e.defaults.Clone(),
		}
	})
	if err != nil {
		return "", err
	}
	e.logger.Debug("opened document", logging.FieldHandle, doc.handle, logging.FieldPath, doc.main)
	return doc.handle, nil
}

// Close drops a document and its slots.
func (e *Engine) Close(h Handle) error {
	doc, err := e.docs.remove(h)
	if err != nil {
		return err
	}
	e.files.Remove(doc.main)
	e.files.Remove(doc.aux)
	e.logger.Debug("closed document", logging.FieldHandle, h)
	return nil
}

// Document returns the context of an open document.
func (e *Engine) Document(h Handle) (*DocumentContext, error) {
	return e.docs.get(h)
}

// SetConfig replaces the render parameters of a document. Invalid
// parameters are rejected with the joined *config.ValidationError values.
func (e *Engine) SetConfig(h Handle, r config.Render) error {
	doc, err := e.docs.get(h)
	if err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("set config: %w", err)
	}
	doc.render = r.Clone()
	return nil
}

// Resize sets the page width (nil for auto) and the height cutoff (nil for
// none). It reports whether the width changed, in which case the document
// must be compiled again.
func (e *Engine) Resize(h Handle, width, cutoff *float64) (bool, error) {
	doc, err := e.docs.get(h)
	if err != nil {
		return false, err
	}
	next := doc.render.Clone()
	next.Width = width
	next.HeightCutoff = cutoff
	if err := next.Validate(); err != nil {
		return false, fmt.Errorf("resize: %w", err)
	}

	changed := !sameWidth(doc.render.Width, width)
	doc.render = next.Clone()
	e.logger.Debug("resized document",
		logging.FieldHandle, h,
		logging.FieldWidth, width,
		"reflow", changed)
	return changed, nil
}

func sameWidth(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// InsertSource registers a markup file that documents can import.
func (e *Engine) InsertSource(path, text string) error {
	id := source.ID(path)
	if e.docs.uses(id) {
		return fmt.Errorf("insert %s: %w", path, ErrPathInUse)
	}
	e.files.SetSource(id, text)
	return nil
}

// InsertFile registers a binary file such as an image.
func (e *Engine) InsertFile(path string, data []byte) error {
	id := source.ID(path)
	if e.docs.uses(id) {
		return fmt.Errorf("insert %s: %w", path, ErrPathInUse)
	}
	e.files.SetFile(id, data)
	return nil
}

// RemoveFile drops a source or binary file.
func (e *Engine) RemoveFile(path string) error {
	id := source.ID(path)
	if e.docs.uses(id) {
		return fmt.Errorf("remove %s: %w", path, ErrPathInUse)
	}
	e.files.Remove(id)
	return nil
}
