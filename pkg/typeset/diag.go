package typeset

import (
	"fmt"

	"github.com/yaklabco/livetype/pkg/source"
)

// Severity of a compiler diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Span is a byte range in a file. A span with an empty File is detached and
// points nowhere.
type Span struct {
	File  source.ID
	Start int
	End   int
}

// Detached returns a span that points nowhere.
func Detached() Span {
	return Span{}
}

// IsDetached reports whether the span has no file.
func (s Span) IsDetached() bool {
	return s.File == ""
}

// Union returns the smallest span covering both spans. Spans in different
// files do not combine; the receiver wins.
func (s Span) Union(other Span) Span {
	switch {
	case s.IsDetached():
		return other
	case other.IsDetached(), other.File != s.File:
		return s
	}
	return Span{File: s.File, Start: min(s.Start, other.Start), End: max(s.End, other.End)}
}

// SpanRange resolves a span against the world and returns its byte range.
// It fails for detached spans, unknown files and out-of-bounds ranges.
func SpanRange(world World, span Span) (int, int, bool) {
	if span.IsDetached() || span.Start > span.End || span.Start < 0 {
		return 0, 0, false
	}
	src, err := world.Source(span.File)
	if err != nil || span.End > src.Len() {
		return 0, 0, false
	}
	return span.Start, span.End, true
}

// TracePoint records one step of the call chain that led to a diagnostic.
type TracePoint struct {
	Span    Span
	Message string
}

// Diagnostic is a compiler error or warning.
type Diagnostic struct {
	Severity Severity
	Span     Span
	Message  string
	Hints    []string
	Trace    []TracePoint
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s (%s:%d-%d)", d.Severity, d.Message, d.Span.File, d.Span.Start, d.Span.End)
}

// RequestKind classifies a missing resource.
type RequestKind string

const (
	RequestSource  RequestKind = "source"
	RequestFile    RequestKind = "file"
	RequestPackage RequestKind = "package"
	RequestFont    RequestKind = "font"
)

// Request asks the host to provide a resource the compiler could not find.
type Request struct {
	Kind RequestKind `json:"kind"`
	Path string      `json:"path"`
}

// Result is the outcome of one compilation.
type Result struct {
	// Document is nil when compilation failed with errors.
	Document    *Document
	Diagnostics []Diagnostic
	Requests    []Request
}

// HasErrors reports whether any diagnostic is an error.
func (r Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns the error diagnostics.
func (r Result) Errors() []Diagnostic {
	return r.filter(SeverityError)
}

// Warnings returns the warning diagnostics.
func (r Result) Warnings() []Diagnostic {
	return r.filter(SeverityWarning)
}

func (r Result) filter(severity Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == severity {
			out = append(out, d)
		}
	}
	return out
}
