package engine

import (
	"github.com/yaklabco/livetype/pkg/indexmap"
	"github.com/yaklabco/livetype/pkg/source"
	"github.com/yaklabco/livetype/pkg/typeset"
)

// Range is a half-open range of UTF-16 code units in the user document.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Diagnostic is a compiler message positioned in the user document.
type Diagnostic struct {
	Severity typeset.Severity `json:"severity"`
	Message  string           `json:"message"`
	Hints    []string         `json:"hints,omitempty"`
	Range    Range            `json:"range"`
}

// mapSpan maps a span of the synthesized slot main to user bytes. Spans in
// other files and spans inside the prelude do not map.
func mapSpan(world typeset.World, main source.ID, m *indexmap.Mapper, span typeset.Span) (int, int, bool) {
	if span.File != main {
		return 0, 0, false
	}
	start, end, ok := typeset.SpanRange(world, span)
	if !ok {
		return 0, 0, false
	}
	a, ok := m.BToA(start)
	if !ok {
		return 0, 0, false
	}
	if end == start {
		return a, a, true
	}
	b, ok := m.BToAStrict(end)
	if !ok {
		return 0, 0, false
	}
	return a, max(a, b), true
}

// locate maps a diagnostic to user bytes, falling back to the first trace
// point inside the synthesized slot.
func locate(world typeset.World, main source.ID, m *indexmap.Mapper, d typeset.Diagnostic) (int, int, bool) {
	if a, b, ok := mapSpan(world, main, m, d.Span); ok {
		return a, b, true
	}
	for _, tp := range d.Trace {
		if tp.Span.File != main {
			continue
		}
		if a, b, ok := mapSpan(world, main, m, tp.Span); ok {
			return a, b, true
		}
	}
	return 0, 0, false
}

// utf16Range converts a user byte range to UTF-16.
func utf16Range(user *source.Source, start, end int) (Range, bool) {
	a, ok := user.UTF16(start)
	if !ok {
		return Range{}, false
	}
	b, ok := user.UTF16(end)
	if !ok {
		return Range{}, false
	}
	return Range{Start: a, End: b}, true
}

// translateDiagnostics positions compiler diagnostics in the user document.
// Warnings that cannot be positioned are dropped; such errors cover the
// whole document.
func translateDiagnostics(world typeset.World, main source.ID, m *indexmap.Mapper, user *source.Source, diags []typeset.Diagnostic) []Diagnostic {
	out := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		r, ok := Range{}, false
		if a, b, found := locate(world, main, m, d); found {
			r, ok = utf16Range(user, a, b)
		}
		if !ok {
			if d.Severity != typeset.SeverityError {
				continue
			}
			r = Range{Start: 0, End: user.LenUTF16()}
		}
		out = append(out, Diagnostic{
			Severity: d.Severity,
			Message:  d.Message,
			Hints:    d.Hints,
			Range:    r,
		})
	}
	return out
}

// toMain converts a UTF-16 cursor in the user document to a byte offset in
// the synthesized slot. A cursor at the end of a block stays behind the
// block's text instead of moving past its break directive.
func toMain(user *source.Source, syn *Synthesis, cursor int) (int, bool) {
	b, ok := user.Byte(cursor)
	if !ok {
		return 0, false
	}
	for _, blk := range syn.Blocks {
		if blk.End == b {
			return syn.Mapper.AToBStrict(b)
		}
	}
	return syn.Mapper.AToB(b)
}

// fromMain converts a byte offset in the synthesized slot to a UTF-16 offset
// in the user document.
func fromMain(user *source.Source, m *indexmap.Mapper, offset int) (int, bool) {
	a, ok := m.BToA(offset)
	if !ok {
		return 0, false
	}
	return user.UTF16(a)
}
