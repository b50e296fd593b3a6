// Package typeset is a compact reference compiler for the markup language.
// It evaluates a parse tree, lays the content out into frames and offers the
// IDE services (completion, tooltips, click resolution) a live preview needs.
package typeset

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/yaklabco/livetype/pkg/source"
)

// ErrNotFound is returned by a World when a source or file is not available.
var ErrNotFound = errors.New("file not found")

// World gives the compiler access to its environment.
type World interface {
	// Main returns the identity of the file to compile.
	Main() source.ID

	// Source returns the markup source with the given identity.
	Source(id source.ID) (*source.Source, error)

	// File returns the raw bytes of a binary file such as an image.
	File(id source.ID) ([]byte, error)

	// Fonts returns the font book used for measuring text.
	Fonts() FontBook
}

// FileTable is a concurrency-safe registry of sources and binary files that can
// be shared by several worlds.
type FileTable struct {
	mu      sync.RWMutex
	sources map[source.ID]*source.Source
	files   map[source.ID][]byte
}

// NewFileTable creates an empty file table.
func NewFileTable() *FileTable {
	return &FileTable{
		sources: make(map[source.ID]*source.Source),
		files:   make(map[source.ID][]byte),
	}
}

// SetSource registers or replaces a source and returns it. A replaced
// source is never mutated: sources handed out earlier keep their text, so
// a compilation running on another goroutine sees a consistent snapshot.
func (t *FileTable) SetSource(id source.ID, text string) *source.Source {
	src := source.New(id, text)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.sources[id] = src
	return src
}

// Source returns the registered source or ErrNotFound.
func (t *FileTable) Source(id source.ID) (*source.Source, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	src, ok := t.sources[id]
	if !ok {
		return nil, fmt.Errorf("source %s: %w", id, ErrNotFound)
	}
	return src, nil
}

// SetFile registers or replaces a binary file.
func (t *FileTable) SetFile(id source.ID, data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.files[id] = data
}

// File returns the registered file or ErrNotFound.
func (t *FileTable) File(id source.ID) ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	data, ok := t.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, ErrNotFound)
	}
	return data, nil
}

// Remove drops a source or file. Removing an unknown identity is a no-op.
func (t *FileTable) Remove(id source.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.sources, id)
	delete(t.files, id)
}

// IDs returns all registered identities in sorted order.
func (t *FileTable) IDs() []source.ID {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]source.ID, 0, len(t.sources)+len(t.files))
	for id := range t.sources {
		ids = append(ids, id)
	}
	for id := range t.files {
		if _, dup := t.sources[id]; !dup {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// TableWorld is a World backed by a FileTable.
type TableWorld struct {
	table *FileTable
	main  source.ID
	fonts FontBook
}

// NewTableWorld creates a world that compiles main out of table.
func NewTableWorld(table *FileTable, main source.ID, fonts FontBook) *TableWorld {
	return &TableWorld{table: table, main: main, fonts: fonts}
}

// Main implements World.
func (w *TableWorld) Main() source.ID { return w.main }

// Source implements World.
func (w *TableWorld) Source(id source.ID) (*source.Source, error) { return w.table.Source(id) }

// File implements World.
func (w *TableWorld) File(id source.ID) ([]byte, error) { return w.table.File(id) }

// Fonts implements World.
func (w *TableWorld) Fonts() FontBook { return w.fonts }
