package engine

import (
	"context"
	"fmt"

	"github.com/yaklabco/livetype/internal/logging"
	"github.com/yaklabco/livetype/pkg/source"
	"github.com/yaklabco/livetype/pkg/typeset"
)

// CompileResult is the outcome of Compile.
type CompileResult struct {
	Fragments   []Fragment        `json:"fragments"`
	Diagnostics []Diagnostic      `json:"diagnostics"`
	Requests    []typeset.Request `json:"requests,omitempty"`

	// Compiles counts the compiler invocations.
	Compiles int `json:"compiles"`

	// Aborted is set when no failing block could be isolated. The previous
	// document stays cached and no fragments are produced.
	Aborted bool `json:"aborted"`
}

// HasErrors reports whether any diagnostic is an error.
func (r *CompileResult) HasErrors() bool {
	return hasErrors(r.Diagnostics)
}

// CheckResult is the outcome of Check.
type CheckResult struct {
	Diagnostics []Diagnostic      `json:"diagnostics"`
	Requests    []typeset.Request `json:"requests,omitempty"`
	Compiles    int               `json:"compiles"`
	Aborted     bool              `json:"aborted"`
}

// FixedOutput is the paginated rendition of a document.
type FixedOutput struct {
	// PDF is nil when the compilation aborted.
	PDF         []byte            `json:"-"`
	Diagnostics []Diagnostic      `json:"diagnostics"`
	Requests    []typeset.Request `json:"requests,omitempty"`
	Aborted     bool              `json:"aborted"`
}

// Completions are autocomplete suggestions. Offset is the UTF-16 position
// in the user document from which the completions replace text.
type Completions struct {
	Offset int                  `json:"offset"`
	Items  []typeset.Completion `json:"items"`
}

// Jump is the target of a click. URL is set for links. Otherwise File is
// empty for positions in the user document and names the file for
// positions elsewhere; Offset is in UTF-16 code units.
type Jump struct {
	URL    string `json:"url,omitempty"`
	File   string `json:"file,omitempty"`
	Offset int    `json:"offset"`
}

func hasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == typeset.SeverityError {
			return true
		}
	}
	return false
}

// prepare stores the user text and synthesizes it for mode.
func (e *Engine) prepare(doc *DocumentContext, text, prelude string, mode Mode) (*Synthesis, *source.Source) {
	doc.text, doc.prelude = text, prelude
	user := e.files.SetSource(doc.aux, text)
	syn := Synthesize(text, Prelude(mode, doc.render), prelude, mode)
	return syn, user
}

// Compile compiles text with the caller prelude and renders one fragment
// per visible block.
func (e *Engine) Compile(ctx context.Context, h Handle, text, prelude string) (*CompileResult, error) {
	doc, err := e.docs.get(h)
	if err != nil {
		return nil, err
	}

	syn, user := e.prepare(doc, text, prelude, ModePreview)
	out, err := e.compileLoop(ctx, doc, syn)
	if err != nil {
		e.restoreSlots(doc)
		return nil, err
	}

	res := &CompileResult{
		Diagnostics: translateDiagnostics(doc.world, doc.main, syn.Mapper, user, out.diagnostics),
		Requests:    out.requests,
		Compiles:    out.compiles,
		Aborted:     out.aborted,
	}
	if out.aborted {
		e.restoreSlots(doc)
	} else {
		doc.synthesis, doc.shown, doc.document = syn, text, out.document
		res.Fragments, err = e.extract(doc, syn, out.document, user)
		if err != nil {
			return nil, err
		}
	}

	e.logger.Debug("compiled document",
		logging.FieldHandle, h,
		logging.FieldBlocks, len(syn.Blocks),
		logging.FieldFragments, len(res.Fragments),
		logging.FieldDiagnostics, len(res.Diagnostics),
		logging.FieldCompiles, res.Compiles,
		logging.FieldRequests, len(res.Requests))
	return res, nil
}

// Check compiles text like Compile but renders nothing.
func (e *Engine) Check(ctx context.Context, h Handle, text, prelude string) (*CheckResult, error) {
	doc, err := e.docs.get(h)
	if err != nil {
		return nil, err
	}

	syn, user := e.prepare(doc, text, prelude, ModeInteractive)
	out, err := e.compileLoop(ctx, doc, syn)
	if err != nil {
		e.restoreSlots(doc)
		return nil, err
	}

	res := &CheckResult{
		Diagnostics: translateDiagnostics(doc.world, doc.main, syn.Mapper, user, out.diagnostics),
		Requests:    out.requests,
		Compiles:    out.compiles,
		Aborted:     out.aborted,
	}
	if out.aborted {
		e.restoreSlots(doc)
	} else {
		doc.synthesis, doc.shown, doc.document = syn, text, out.document
	}
	return res, nil
}

// restoreSlots puts the sources of the last successful compile back into
// both slots of doc. Queries translate positions through doc.synthesis,
// so the slots must match it. Without one, the slots are removed.
func (e *Engine) restoreSlots(doc *DocumentContext) {
	if doc.synthesis == nil {
		e.files.Remove(doc.main)
		e.files.Remove(doc.aux)
		return
	}
	e.files.SetSource(doc.aux, doc.shown)
	e.files.SetSource(doc.main, doc.synthesis.Text)
}

// RenderFixed compiles the last text in print mode and encodes it as PDF.
// The preview state of the document is left untouched.
func (e *Engine) RenderFixed(ctx context.Context, h Handle) (*FixedOutput, error) {
	doc, err := e.docs.get(h)
	if err != nil {
		return nil, err
	}

	user := e.files.SetSource(doc.aux, doc.text)
	syn := Synthesize(doc.text, Prelude(ModePrint, doc.render), doc.prelude, ModePrint)
	defer e.restoreSlots(doc)

	out, err := e.compileLoop(ctx, doc, syn)
	if err != nil {
		return nil, err
	}
	res := &FixedOutput{
		Diagnostics: translateDiagnostics(doc.world, doc.main, syn.Mapper, user, out.diagnostics),
		Requests:    out.requests,
		Aborted:     out.aborted,
	}
	if out.aborted {
		return res, nil
	}

	res.PDF, err = e.renderer.RenderDocument(out.document)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", doc.main, err)
	}
	return res, nil
}

// compiled returns the sources a query about the current document needs.
func (e *Engine) compiled(doc *DocumentContext) (*source.Source, *source.Source, bool) {
	if doc.synthesis == nil {
		return nil, nil, false
	}
	user, err := e.files.Source(doc.aux)
	if err != nil {
		return nil, nil, false
	}
	main, err := e.files.Source(doc.main)
	if err != nil {
		return nil, nil, false
	}
	return user, main, true
}

// HitTest resolves a click at p, given in document coordinates with pages
// stacked vertically.
func (e *Engine) HitTest(h Handle, p typeset.Point) (Jump, bool, error) {
	doc, err := e.docs.get(h)
	if err != nil {
		return Jump{}, false, err
	}
	user, _, ok := e.compiled(doc)
	if !ok || doc.document == nil {
		return Jump{}, false, nil
	}

	j, ok := e.backend.JumpFromClick(doc.world, doc.document, p)
	switch {
	case !ok:
		return Jump{}, false, nil
	case j.IsURL():
		return Jump{URL: j.URL}, true, nil
	case j.File == doc.main:
		off, ok := fromMain(user, doc.synthesis.Mapper, j.Offset)
		if !ok {
			return Jump{}, false, nil
		}
		return Jump{Offset: off}, true, nil
	}

	src, err := e.files.Source(j.File)
	if err != nil {
		return Jump{}, false, nil
	}
	off, ok := src.UTF16(j.Offset)
	if !ok {
		return Jump{}, false, nil
	}
	return Jump{File: string(j.File), Offset: off}, true, nil
}

// Autocomplete suggests completions at a UTF-16 cursor in the user
// document. Without explicit, suggestions are offered only in code.
func (e *Engine) Autocomplete(h Handle, cursor int, explicit bool) (Completions, bool, error) {
	doc, err := e.docs.get(h)
	if err != nil {
		return Completions{}, false, err
	}
	user, main, ok := e.compiled(doc)
	if !ok {
		return Completions{}, false, nil
	}

	at, ok := toMain(user, doc.synthesis, cursor)
	if !ok {
		return Completions{}, false, nil
	}
	from, items, ok := e.backend.Autocomplete(doc.world, doc.document, main, at, explicit)
	if !ok {
		return Completions{}, false, nil
	}
	off, ok := fromMain(user, doc.synthesis.Mapper, from)
	if !ok {
		return Completions{}, false, nil
	}
	return Completions{Offset: off, Items: items}, true, nil
}

// Hover returns sanitized HTML describing the thing at a UTF-16 cursor.
func (e *Engine) Hover(h Handle, cursor int, side typeset.Side) (string, bool, error) {
	doc, err := e.docs.get(h)
	if err != nil {
		return "", false, err
	}
	user, main, ok := e.compiled(doc)
	if !ok {
		return "", false, nil
	}

	at, ok := toMain(user, doc.synthesis, cursor)
	if !ok {
		return "", false, nil
	}
	tip, ok := e.backend.Tooltip(doc.world, doc.document, main, at, side)
	if !ok {
		return "", false, nil
	}
	html, err := e.tooltips.HTML(tip)
	if err != nil {
		return "", false, err
	}
	return html, true, nil
}

// Highlight tags the syntax of text for the editor. It does not change the
// document.
func (e *Engine) Highlight(h Handle, text string) ([]Highlight, error) {
	if _, err := e.docs.get(h); err != nil {
		return nil, err
	}
	return highlight(text), nil
}
