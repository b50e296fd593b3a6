package runner

import (
	"github.com/yaklabco/livetype/pkg/engine"
	"github.com/yaklabco/livetype/pkg/typeset"
)

// Input is a document to compile.
type Input struct {
	// Path names the document. It is used for relative imports and in
	// reports; it need not exist on disk.
	Path string

	Text string
}

// DocumentOutcome is the result of compiling one document.
type DocumentOutcome struct {
	// Path is the document path as given in the input.
	Path string

	// Text is the compiled user text, kept for reporting source lines.
	Text string

	// Result is nil when the document could not be compiled at all.
	Result *engine.CompileResult

	// Loaded lists the resources read from disk on the document's behalf.
	Loaded []typeset.Request

	// Error is set if the document could not be compiled.
	Error error
}

// Stats captures aggregate information about a run.
type Stats struct {
	// DocumentsDiscovered is the number of documents found or given.
	DocumentsDiscovered int

	// DocumentsCompiled is the number of documents the engine processed.
	DocumentsCompiled int

	// DocumentsErrored is the number of documents that could not be read
	// or compiled at all.
	DocumentsErrored int

	// DocumentsAborted is the number of documents whose compile loop gave
	// up without output.
	DocumentsAborted int

	// DocumentsWithIssues is the number of documents with at least one
	// diagnostic.
	DocumentsWithIssues int

	Fragments int
	Compiles  int
	Requests  int

	DiagnosticsTotal      int
	DiagnosticsBySeverity map[string]int
}

// Result is the overall runner result.
type Result struct {
	// Documents holds one outcome per input, in input order.
	Documents []DocumentOutcome

	Stats Stats
}

// HasFailures reports whether any document failed or produced errors.
func (r *Result) HasFailures() bool {
	if r == nil {
		return false
	}
	return r.Stats.DocumentsErrored > 0 || r.Stats.DiagnosticsBySeverity[string(typeset.SeverityError)] > 0
}

// HasIssues reports whether any diagnostics were found.
func (r *Result) HasIssues() bool {
	if r == nil {
		return false
	}
	return r.Stats.DiagnosticsTotal > 0
}

func newStats() Stats {
	return Stats{DiagnosticsBySeverity: make(map[string]int)}
}

func (r *Result) accumulate(outcome DocumentOutcome) {
	r.Documents = append(r.Documents, outcome)

	if outcome.Error != nil || outcome.Result == nil {
		r.Stats.DocumentsErrored++
		return
	}

	res := outcome.Result
	r.Stats.DocumentsCompiled++
	if res.Aborted {
		r.Stats.DocumentsAborted++
	}
	r.Stats.Fragments += len(res.Fragments)
	r.Stats.Compiles += res.Compiles
	r.Stats.Requests += len(res.Requests)
	r.Stats.DiagnosticsTotal += len(res.Diagnostics)
	if len(res.Diagnostics) > 0 {
		r.Stats.DocumentsWithIssues++
	}
	for _, d := range res.Diagnostics {
		r.Stats.DiagnosticsBySeverity[string(d.Severity)]++
	}
}
