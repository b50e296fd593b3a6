package pretty

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rivo/uniseg"
)

const (
	tablePadding     = 2
	defaultTermWidth = 100
	ellipsis         = "…"
)

// Table is a plain column layout. The last column absorbs whatever width
// the terminal leaves and is truncated beyond that.
type Table struct {
	styles    *Styles
	termWidth int
	headers   []string
	rows      [][]string
}

// NewTable creates a table with the given column headers.
func NewTable(styles *Styles, termWidth int, headers ...string) *Table {
	if termWidth <= 0 {
		termWidth = defaultTermWidth
	}
	return &Table{styles: styles, termWidth: termWidth, headers: headers}
}

// AddRow appends a row. Missing cells are blank; extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render formats the table.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = uniseg.StringWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], uniseg.StringWidth(cell))
		}
	}

	last := len(widths) - 1
	used := 0
	for _, w := range widths[:last] {
		used += w + tablePadding
	}
	widths[last] = max(min(widths[last], t.termWidth-used), uniseg.StringWidth(t.headers[last]))

	total := used + widths[last]

	var b strings.Builder
	b.WriteString(t.line(t.headers, widths, t.styles.TableHeader))
	b.WriteString(t.styles.TableSeparator.Render(strings.Repeat("-", total)))
	b.WriteString("\n")
	for _, row := range t.rows {
		b.WriteString(t.line(row, widths, lipgloss.NewStyle()))
	}
	return b.String()
}

func (t *Table) line(cells []string, widths []int, style lipgloss.Style) string {
	var b strings.Builder
	for i, cell := range cells {
		cell = truncate(cell, widths[i])
		b.WriteString(cell)
		if i < len(cells)-1 {
			b.WriteString(strings.Repeat(" ", widths[i]-uniseg.StringWidth(cell)+tablePadding))
		}
	}
	return style.Render(strings.TrimRight(b.String(), " ")) + "\n"
}

// truncate shortens s to at most width display cells, ending in an
// ellipsis when anything was cut.
func truncate(s string, width int) string {
	if uniseg.StringWidth(s) <= width {
		return s
	}
	if width <= 0 {
		return ""
	}

	var b strings.Builder
	used := 0
	state := -1
	rest := s
	for len(rest) > 0 {
		var cluster string
		var w int
		cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if used+w > width-1 {
			break
		}
		b.WriteString(cluster)
		used += w
	}
	return b.String() + ellipsis
}
