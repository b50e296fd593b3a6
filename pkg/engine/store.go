package engine

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/yaklabco/livetype/pkg/config"
	"github.com/yaklabco/livetype/pkg/source"
	"github.com/yaklabco/livetype/pkg/typeset"
)

// Sentinel errors.
var (
	ErrUnknownDocument = errors.New("unknown document")
	ErrPathInUse       = errors.New("path is used by an open document")
)

// Handle identifies an open document.
type Handle string

// DocumentContext is the per-document state kept between calls. It is
// single-writer: hosts serialize calls on one handle.
type DocumentContext struct {
	handle Handle

	// main is the synthesized slot; aux holds the user text.
	main source.ID
	aux  source.ID

	world *typeset.TableWorld

	// synthesis is the synthesis of the last compile that was not aborted.
	synthesis *Synthesis

	// shown is the user text synthesis and document were built from.
	shown string

	// document is the last successfully compiled document.
	document *typeset.Document

	render config.Render

	text    string
	prelude string
}

// Handle returns the document handle.
func (d *DocumentContext) Handle() Handle {
	return d.handle
}

// Path returns the identity of the synthesized slot.
func (d *DocumentContext) Path() source.ID {
	return d.main
}

// Synthesis returns the synthesis of the last preview or interactive
// compile that was not aborted, or nil before the first one.
func (d *DocumentContext) Synthesis() *Synthesis {
	return d.synthesis
}

// Compiled returns the last successfully compiled document, or nil.
func (d *DocumentContext) Compiled() *typeset.Document {
	return d.document
}

// Render returns a copy of the render parameters.
func (d *DocumentContext) Render() config.Render {
	return d.render.Clone()
}

// store is the arena of open documents.
type store struct {
	mu   sync.RWMutex
	docs map[Handle]*DocumentContext
}

func newStore() *store {
	return &store{docs: make(map[Handle]*DocumentContext)}
}

func (s *store) get(h Handle) (*DocumentContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[h]
	if !ok {
		return nil, fmt.Errorf("document %q: %w", h, ErrUnknownDocument)
	}
	return doc, nil
}

// uses reports whether an open document owns id as one of its slots.
func (s *store) uses(id source.ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.docs {
		if doc.main == id || doc.aux == id {
			return true
		}
	}
	return false
}

// add registers a new document for path. An empty path gets a generated
// name.
func (s *store) add(path string, build func(h Handle, main source.ID) *DocumentContext) (*DocumentContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := Handle(uuid.NewString())
	if path == "" {
		path = string(h) + ".typ"
	}
	if !strings.HasSuffix(path, ".typ") {
		path += ".typ"
	}
	main := source.ID(path)
	for _, doc := range s.docs {
		if doc.main == main {
			return nil, fmt.Errorf("open %s: %w", path, ErrPathInUse)
		}
	}

	doc := build(h, main)
	s.docs[h] = doc
	return doc, nil
}

func (s *store) remove(h Handle) (*DocumentContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[h]
	if !ok {
		return nil, fmt.Errorf("document %q: %w", h, ErrUnknownDocument)
	}
	delete(s.docs, h)
	return doc, nil
}

func (s *store) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.docs)
}
