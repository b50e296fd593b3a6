package source

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrOverlappingEdits is returned when two edits touch the same bytes.
var ErrOverlappingEdits = errors.New("overlapping edits")

// TextEdit represents a single text replacement.
type TextEdit struct {
	// StartOffset is the byte index where the edit begins (inclusive).
	StartOffset int

	// EndOffset is the byte index where the edit ends (exclusive).
	EndOffset int

	// NewText is the replacement text.
	NewText string
}

// Edit replaces bytes [start, end) with text.
func (s *Source) Edit(start, end int, text string) error {
	return s.Apply([]TextEdit{{StartOffset: start, EndOffset: end, NewText: text}})
}

// Apply applies a set of non-overlapping edits in one pass.
func (s *Source) Apply(edits []TextEdit) error {
	if len(edits) == 0 {
		return nil
	}

	sorted := make([]TextEdit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartOffset < sorted[j].StartOffset
	})

	delta := 0
	cursor := 0
	for _, e := range sorted {
		if e.StartOffset < 0 || e.EndOffset > len(s.text) || e.StartOffset > e.EndOffset {
			return fmt.Errorf("edit [%d, %d) out of range for %d bytes", e.StartOffset, e.EndOffset, len(s.text))
		}
		if e.StartOffset < cursor {
			return fmt.Errorf("edit at %d: %w", e.StartOffset, ErrOverlappingEdits)
		}
		cursor = e.EndOffset
		delta += len(e.NewText) - (e.EndOffset - e.StartOffset)
	}

	var out strings.Builder
	out.Grow(len(s.text) + delta)

	cursor = 0
	for _, e := range sorted {
		out.WriteString(s.text[cursor:e.StartOffset])
		out.WriteString(e.NewText)
		cursor = e.EndOffset
	}
	out.WriteString(s.text[cursor:])

	s.Replace(out.String())
	return nil
}

// Blank returns text with every byte except line feeds replaced by a space.
// The result has the same byte length and line structure as the input.
func Blank(text string) string {
	buf := []byte(text)
	for i, c := range buf {
		if c != '\n' {
			buf[i] = ' '
		}
	}
	return string(buf)
}
