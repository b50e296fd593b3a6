package source

import (
	"sort"
	"unicode/utf8"
)

// Line describes one line of a source in both unit systems.
type Line struct {
	// StartOffset is the byte index where the line begins.
	StartOffset int

	// NewlineStart is the byte index of the line terminator (\n or \r\n),
	// or the end of text for the last line.
	NewlineStart int

	// EndOffset is the byte index just past the terminator.
	EndOffset int

	// UTF16Start is the UTF-16 code-unit index where the line begins.
	UTF16Start int
}

// BuildLines constructs the line table for text.
// It handles both LF and CRLF line endings and always returns at least one line.
func BuildLines(text string) []Line {
	lines := make([]Line, 0, 1+len(text)/40)
	lineStart := 0
	lineUTF16 := 0
	utf16Pos := 0

	for idx, r := range text {
		utf16Pos += runeUnits(r)
		if r != '\n' {
			continue
		}

		newlineStart := idx
		if idx > 0 && text[idx-1] == '\r' {
			newlineStart = idx - 1
		}
		lines = append(lines, Line{
			StartOffset:  lineStart,
			NewlineStart: newlineStart,
			EndOffset:    idx + 1,
			UTF16Start:   lineUTF16,
		})
		lineStart = idx + 1
		lineUTF16 = utf16Pos
	}

	// Last line (may be empty or lack a trailing newline).
	lines = append(lines, Line{
		StartOffset:  lineStart,
		NewlineStart: len(text),
		EndOffset:    len(text),
		UTF16Start:   lineUTF16,
	})

	return lines
}

func runeUnits(r rune) int {
	if r >= 0x10000 && r <= utf8.MaxRune {
		return 2
	}
	return 1
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}

// LenUTF16 returns the text length in UTF-16 code units.
func (s *Source) LenUTF16() int {
	last := s.lines[len(s.lines)-1]
	return last.UTF16Start + utf16Len(s.text[last.StartOffset:])
}

// lineOfByte returns the index of the line containing byte offset.
func (s *Source) lineOfByte(offset int) int {
	idx := sort.Search(len(s.lines), func(i int) bool {
		return s.lines[i].StartOffset > offset
	})
	return max(idx-1, 0)
}

// lineOfUTF16 returns the index of the line containing UTF-16 offset.
func (s *Source) lineOfUTF16(offset int) int {
	idx := sort.Search(len(s.lines), func(i int) bool {
		return s.lines[i].UTF16Start > offset
	})
	return max(idx-1, 0)
}

// UTF16 converts a byte offset to a UTF-16 offset.
// It fails when the offset is out of range or splits a multi-byte character.
func (s *Source) UTF16(offset int) (int, bool) {
	if offset < 0 || offset > len(s.text) {
		return 0, false
	}
	if offset < len(s.text) && !utf8.RuneStart(s.text[offset]) {
		return 0, false
	}

	line := s.lines[s.lineOfByte(offset)]
	return line.UTF16Start + utf16Len(s.text[line.StartOffset:offset]), true
}

// Byte converts a UTF-16 offset to a byte offset.
// It fails when the offset is out of range or splits a surrogate pair.
func (s *Source) Byte(offset int) (int, bool) {
	if offset < 0 || offset > s.LenUTF16() {
		return 0, false
	}

	line := s.lines[s.lineOfUTF16(offset)]
	pos := line.UTF16Start
	idx := line.StartOffset
	for pos < offset && idx < len(s.text) {
		r, size := utf8.DecodeRuneInString(s.text[idx:])
		units := runeUnits(r)
		if pos+units > offset {
			return 0, false
		}
		pos += units
		idx += size
	}

	return idx, pos == offset
}

// LineAt converts a byte offset to 1-based line and column numbers.
// Columns count UTF-16 code units, matching editor conventions.
// Returns (0, 0) if the offset is out of range.
func (s *Source) LineAt(offset int) (int, int) {
	if offset < 0 || offset > len(s.text) {
		return 0, 0
	}

	lineIdx := s.lineOfByte(offset)
	line := s.lines[lineIdx]
	end := offset
	for end > line.StartOffset && end < len(s.text) && !utf8.RuneStart(s.text[end]) {
		end--
	}

	return lineIdx + 1, utf16Len(s.text[line.StartOffset:end]) + 1
}

// LineContent returns a 1-based line without its terminator.
// Returns "" if the line number is out of range.
func (s *Source) LineContent(line int) string {
	if line < 1 || line > len(s.lines) {
		return ""
	}

	info := s.lines[line-1]
	return s.text[info.StartOffset:info.NewlineStart]
}
