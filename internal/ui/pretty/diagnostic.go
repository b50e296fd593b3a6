package pretty

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/yaklabco/livetype/pkg/engine"
	"github.com/yaklabco/livetype/pkg/source"
	"github.com/yaklabco/livetype/pkg/typeset"
)

// Position is a 1-based line and UTF-16 column.
type Position struct {
	Line   int
	Column int
}

// Span locates a diagnostic range in src. It returns the start position,
// the start line's content and the byte range the range covers on that
// line. ok is false when the range does not fit src.
func Span(src *source.Source, r engine.Range) (pos Position, line string, from, to int, ok bool) {
	start, ok := src.Byte(r.Start)
	if !ok {
		return Position{}, "", 0, 0, false
	}
	end, ok := src.Byte(r.End)
	if !ok || end < start {
		end = start
	}

	pos.Line, pos.Column = src.LineAt(start)
	line = src.LineContent(pos.Line)
	lineStart := src.Lines()[pos.Line-1].StartOffset
	from = start - lineStart
	to = min(end-lineStart, len(line))
	return pos, line, from, max(to, from), true
}

// FormatDiagnostic formats a single diagnostic for terminal output. When
// showContext is set the offending source line is printed with carets
// under the range.
func (s *Styles) FormatDiagnostic(path string, diag engine.Diagnostic, src *source.Source, showContext bool) string {
	var builder strings.Builder

	pos, line, from, to, ok := Span(src, diag.Range)
	location := s.FilePath.Render(path)
	if ok {
		location += s.Location.Render(fmt.Sprintf(":%d:%d", pos.Line, pos.Column))
	}

	fmt.Fprintf(&builder, "  %s  %s  %s\n", location, s.FormatSeverity(diag.Severity), s.Message.Render(diag.Message))

	if showContext && ok && line != "" {
		builder.WriteString(s.FormatSourceContext(line, from, to))
	}

	for _, hint := range diag.Hints {
		builder.WriteString("    " + s.Dim.Render("hint:") + " " + s.Hint.Render(hint) + "\n")
	}

	return builder.String()
}

// FormatSeverity returns a styled severity string.
func (s *Styles) FormatSeverity(sev typeset.Severity) string {
	switch sev {
	case typeset.SeverityError:
		return s.Error.Render("error")
	case typeset.SeverityWarning:
		return s.Warning.Render("warning")
	default:
		return string(sev)
	}
}

// FormatSourceContext prints line with carets under the bytes [from, to).
// Carets are aligned by display width, so wide characters before the
// range do not shift them.
func (s *Styles) FormatSourceContext(line string, from, to int) string {
	const indent = "        "

	from = min(max(from, 0), len(line))
	to = min(max(to, from), len(line))

	var builder strings.Builder
	builder.WriteString(indent + s.SourceLine.Render(line) + "\n")

	padding := uniseg.StringWidth(strings.ReplaceAll(line[:from], "\t", " "))
	width := max(uniseg.StringWidth(line[from:to]), 1)
	builder.WriteString(indent + strings.Repeat(" ", padding) + s.Caret.Render(strings.Repeat("^", width)) + "\n")

	return builder.String()
}

// FormatRequest formats a resource the compiler asked the host for.
func (s *Styles) FormatRequest(req typeset.Request) string {
	return "    " + s.Dim.Render("needs "+string(req.Kind)) + " " + s.Request.Render(req.Path) + "\n"
}

// FormatFragment formats one rendered fragment.
func (s *Styles) FormatFragment(index int, frag engine.Fragment) string {
	return fmt.Sprintf("    %s %s  %s  %s\n",
		s.Fragment.Render(fmt.Sprintf("#%d", index)),
		s.Location.Render(fmt.Sprintf("[%d,%d)", frag.Range.Start, frag.Range.End)),
		s.SummaryValue.Render(fmt.Sprintf("%.1fpt %s, %d bytes", frag.Height, frag.Encoding, len(frag.Payload))),
		s.Hash.Render(fmt.Sprintf("%016x", frag.Hash)))
}

// FormatFileHeader formats a document header for grouped output.
func (s *Styles) FormatFileHeader(path string, issueCount int) string {
	header := s.FilePath.Render(path)
	switch issueCount {
	case 0:
	case 1:
		header += s.Dim.Render(" (1 issue)")
	default:
		header += s.Dim.Render(fmt.Sprintf(" (%d issues)", issueCount))
	}
	return header
}
