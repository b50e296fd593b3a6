// Package source holds document text together with the line tables needed to
// move between byte offsets and UTF-16 code-unit offsets.
package source

import "strings"

// auxSuffix is appended to a document path to form the identity of the slot that
// holds the text the user edits.
const auxSuffix = ".$.typ"

// ID identifies a file in a compiler file table.
type ID string

// Aux returns the identity of the companion slot holding the user's text.
func (id ID) Aux() ID {
	return ID(strings.TrimSuffix(string(id), ".typ") + auxSuffix)
}

// IsAux reports whether id names a user-text slot.
func (id ID) IsAux() bool {
	return strings.HasSuffix(string(id), auxSuffix)
}

// Source is an immutable-by-convention text buffer with a line table.
// Mutations go through Replace and Edit, which rebuild the table.
type Source struct {
	id    ID
	text  string
	lines []Line
}

// New creates a source for the given identity and text.
func New(id ID, text string) *Source {
	return &Source{
		id:    id,
		text:  text,
		lines: BuildLines(text),
	}
}

// ID returns the file identity.
func (s *Source) ID() ID {
	return s.id
}

// Text returns the full text.
func (s *Source) Text() string {
	return s.text
}

// Len returns the text length in bytes.
func (s *Source) Len() int {
	return len(s.text)
}

// Lines returns the line table.
func (s *Source) Lines() []Line {
	return s.lines
}

// Slice returns text[start:end], clamped to the buffer.
func (s *Source) Slice(start, end int) string {
	start = max(0, min(start, len(s.text)))
	end = max(start, min(end, len(s.text)))
	return s.text[start:end]
}

// Replace swaps the whole text.
func (s *Source) Replace(text string) {
	s.text = text
	s.lines = BuildLines(text)
}
