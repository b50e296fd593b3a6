package source_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/livetype/pkg/source"
)

func TestIDAux(t *testing.T) {
	t.Parallel()

	assert.Equal(t, source.ID("notes.$.typ"), source.ID("notes.typ").Aux())
	assert.Equal(t, source.ID("draft.$.typ"), source.ID("draft").Aux())
	assert.True(t, source.ID("notes.typ").Aux().IsAux())
	assert.False(t, source.ID("notes.typ").IsAux())
}

func TestBuildLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		expected []source.Line
	}{
		{
			name:    "empty content",
			content: "",
			expected: []source.Line{
				{StartOffset: 0, NewlineStart: 0, EndOffset: 0, UTF16Start: 0},
			},
		},
		{
			name:    "single line with LF",
			content: "hello\n",
			expected: []source.Line{
				{StartOffset: 0, NewlineStart: 5, EndOffset: 6, UTF16Start: 0},
				{StartOffset: 6, NewlineStart: 6, EndOffset: 6, UTF16Start: 6},
			},
		},
		{
			name:    "CRLF",
			content: "ab\r\ncd",
			expected: []source.Line{
				{StartOffset: 0, NewlineStart: 2, EndOffset: 4, UTF16Start: 0},
				{StartOffset: 4, NewlineStart: 6, EndOffset: 6, UTF16Start: 4},
			},
		},
		{
			name:    "multibyte before newline",
			content: "é😀\nx",
			expected: []source.Line{
				{StartOffset: 0, NewlineStart: 6, EndOffset: 7, UTF16Start: 0},
				{StartOffset: 7, NewlineStart: 8, EndOffset: 8, UTF16Start: 4},
			},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.expected, source.BuildLines(testCase.content))
		})
	}
}

func TestUTF16Conversion(t *testing.T) {
	t.Parallel()

	// "a" (1 byte, 1 unit), "é" (2 bytes, 1 unit), "😀" (4 bytes, 2 units).
	src := source.New("doc.typ", "aé😀\nb")

	tests := []struct {
		name    string
		byteOff int
		utf16   int
		ok      bool
	}{
		{"start", 0, 0, true},
		{"after ascii", 1, 1, true},
		{"after two byte rune", 3, 2, true},
		{"after surrogate pair", 7, 4, true},
		{"second line", 8, 5, true},
		{"end of text", 9, 6, true},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got, ok := src.UTF16(testCase.byteOff)
			require.Equal(t, testCase.ok, ok)
			assert.Equal(t, testCase.utf16, got)

			back, ok := src.Byte(testCase.utf16)
			require.True(t, ok)
			assert.Equal(t, testCase.byteOff, back)
		})
	}

	assert.Equal(t, 6, src.LenUTF16())
}

func TestUTF16ConversionFailures(t *testing.T) {
	t.Parallel()

	src := source.New("doc.typ", "é😀")

	_, ok := src.UTF16(1)
	assert.False(t, ok, "inside a two-byte rune")

	_, ok = src.UTF16(-1)
	assert.False(t, ok)

	_, ok = src.UTF16(100)
	assert.False(t, ok)

	_, ok = src.Byte(2)
	assert.False(t, ok, "between surrogate halves")

	_, ok = src.Byte(4)
	assert.False(t, ok, "past the end")
}

func TestLineAt(t *testing.T) {
	t.Parallel()

	src := source.New("doc.typ", "first\nsé cond\n")

	line, col := src.LineAt(0)
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)

	line, col = src.LineAt(9)
	assert.Equal(t, 2, line)
	assert.Equal(t, 3, col, "columns count UTF-16 units")

	line, col = src.LineAt(-1)
	assert.Zero(t, line)
	assert.Zero(t, col)

	assert.Equal(t, "sé cond", src.LineContent(2))
	assert.Empty(t, src.LineContent(5))
}

func TestEdit(t *testing.T) {
	t.Parallel()

	src := source.New("doc.typ", "one two three")
	require.NoError(t, src.Edit(4, 7, "2"))
	assert.Equal(t, "one 2 three", src.Text())

	err := src.Apply([]source.TextEdit{
		{StartOffset: 0, EndOffset: 3, NewText: "1"},
		{StartOffset: 2, EndOffset: 5, NewText: "x"},
	})
	require.ErrorIs(t, err, source.ErrOverlappingEdits)

	require.Error(t, src.Edit(5, 100, ""))
}

func TestBlankPreservesLength(t *testing.T) {
	t.Parallel()

	in := "#broken(\n  é\n"
	out := source.Blank(in)

	assert.Len(t, out, len(in))
	assert.Equal(t, "        \n    \n", out)
}
