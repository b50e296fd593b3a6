package pretty_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yaklabco/livetype/internal/ui/pretty"
)

func TestTable(t *testing.T) {
	t.Parallel()

	table := pretty.NewTable(pretty.NewStyles(false), 0, "#", "RANGE", "TEXT")
	table.AddRow("0", "[0,10)", "Intro text")
	table.AddRow("1", "[12,19)", "$x^2+1$", "dropped")
	table.AddRow("2")
	assert.Equal(t, 3, table.Len())

	want := "" +
		"#  RANGE    TEXT\n" +
		"----------------------\n" +
		"0  [0,10)   Intro text\n" +
		"1  [12,19)  $x^2+1$\n" +
		"2\n"
	assert.Equal(t, want, table.Render())
}

func TestTableTruncatesLastColumn(t *testing.T) {
	t.Parallel()

	table := pretty.NewTable(pretty.NewStyles(false), 12, "ID", "TEXT")
	table.AddRow("a", "abcdefghijklmnop")
	table.AddRow("b", "日本語テキスト")

	want := "" +
		"ID  TEXT\n" +
		"------------\n" +
		"a   abcdefg…\n" +
		"b   日本語…\n"
	assert.Equal(t, want, table.Render())
}

func TestTableEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, pretty.NewTable(pretty.NewStyles(false), 80).Render())
}
