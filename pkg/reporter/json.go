package reporter

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/yaklabco/livetype/internal/ui/pretty"
	"github.com/yaklabco/livetype/pkg/engine"
	"github.com/yaklabco/livetype/pkg/runner"
	"github.com/yaklabco/livetype/pkg/source"
	"github.com/yaklabco/livetype/pkg/typeset"
)

// JSONVersion is the version of the JSON output schema.
const JSONVersion = "1.0.0"

// JSONOutput is the top-level JSON structure.
type JSONOutput struct {
	Version   string         `json:"version"`
	Documents []JSONDocument `json:"documents"`
	Summary   JSONSummary    `json:"summary"`
}

// JSONDocument represents a single document's results.
type JSONDocument struct {
	Path        string            `json:"path"`
	Error       string            `json:"error,omitempty"`
	Aborted     bool              `json:"aborted,omitempty"`
	Compiles    int               `json:"compiles"`
	Diagnostics []JSONDiagnostic  `json:"diagnostics"`
	Requests    []typeset.Request `json:"requests,omitempty"`
	Loaded      []typeset.Request `json:"loaded,omitempty"`
	Fragments   []JSONFragment    `json:"fragments"`
}

// JSONDiagnostic represents a single diagnostic. Range is in UTF-16 code
// units; lines and columns are 1-based.
type JSONDiagnostic struct {
	Severity    string       `json:"severity"`
	Message     string       `json:"message"`
	Hints       []string     `json:"hints,omitempty"`
	Range       engine.Range `json:"range"`
	StartLine   int          `json:"startLine,omitempty"`
	StartColumn int          `json:"startColumn,omitempty"`
}

// JSONFragment describes a rendered block.
type JSONFragment struct {
	Range       engine.Range `json:"range"`
	Encoding    string       `json:"encoding"`
	Hash        string       `json:"hash"`
	Height      float64      `json:"height"`
	PixelHeight int          `json:"pixelHeight"`
	Offset      float64      `json:"offset"`
	Size        int          `json:"size"`
	Payload     []byte       `json:"payload,omitempty"`
}

// JSONSummary contains aggregate statistics.
type JSONSummary struct {
	Documents           int            `json:"documents"`
	DocumentsErrored    int            `json:"documentsErrored"`
	DocumentsAborted    int            `json:"documentsAborted"`
	DocumentsWithIssues int            `json:"documentsWithIssues"`
	Fragments           int            `json:"fragments"`
	Compiles            int            `json:"compiles"`
	TotalIssues         int            `json:"totalIssues"`
	BySeverity          map[string]int `json:"bySeverity"`
}

// JSONReporter formats results as JSON.
type JSONReporter struct {
	opts Options
	bw   *bufio.Writer
}

// NewJSONReporter creates a new JSON reporter.
func NewJSONReporter(opts Options) *JSONReporter {
	return &JSONReporter{
		opts: opts,
		bw:   bufio.NewWriterSize(opts.Writer, bufWriterSize),
	}
}

// Report implements Reporter.
func (r *JSONReporter) Report(_ context.Context, result *runner.Result) (_ int, err error) {
	defer func() {
		if flushErr := r.bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	output := r.buildOutput(result)

	encoder := json.NewEncoder(r.bw)
	if !r.opts.Compact {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(output); err != nil {
		return 0, fmt.Errorf("encode JSON: %w", err)
	}

	return output.Summary.TotalIssues, nil
}

func (r *JSONReporter) buildOutput(result *runner.Result) *JSONOutput {
	output := &JSONOutput{
		Version:   JSONVersion,
		Documents: make([]JSONDocument, 0),
		Summary:   JSONSummary{BySeverity: make(map[string]int)},
	}
	if result == nil {
		return output
	}

	stats := result.Stats
	output.Summary = JSONSummary{
		Documents:           stats.DocumentsCompiled + stats.DocumentsErrored,
		DocumentsErrored:    stats.DocumentsErrored,
		DocumentsAborted:    stats.DocumentsAborted,
		DocumentsWithIssues: stats.DocumentsWithIssues,
		Fragments:           stats.Fragments,
		Compiles:            stats.Compiles,
		TotalIssues:         stats.DiagnosticsTotal,
		BySeverity:          make(map[string]int, len(stats.DiagnosticsBySeverity)),
	}
	for k, v := range stats.DiagnosticsBySeverity {
		output.Summary.BySeverity[k] = v
	}

	output.Documents = make([]JSONDocument, 0, len(result.Documents))
	for _, doc := range result.Documents {
		output.Documents = append(output.Documents, r.buildDocument(doc))
	}
	return output
}

func (r *JSONReporter) buildDocument(doc runner.DocumentOutcome) JSONDocument {
	out := JSONDocument{
		Path:        displayPath(doc.Path, r.opts.WorkingDir),
		Diagnostics: make([]JSONDiagnostic, 0),
		Fragments:   make([]JSONFragment, 0),
		Loaded:      doc.Loaded,
	}
	if doc.Error != nil {
		out.Error = doc.Error.Error()
	}
	if doc.Result == nil {
		return out
	}

	res := doc.Result
	out.Aborted = res.Aborted
	out.Compiles = res.Compiles
	out.Requests = res.Requests

	src := source.New("", doc.Text)
	for _, d := range res.Diagnostics {
		jd := JSONDiagnostic{
			Severity: string(d.Severity),
			Message:  d.Message,
			Hints:    d.Hints,
			Range:    d.Range,
		}
		if pos, _, _, _, ok := pretty.Span(src, d.Range); ok {
			jd.StartLine, jd.StartColumn = pos.Line, pos.Column
		}
		out.Diagnostics = append(out.Diagnostics, jd)
	}

	for _, f := range res.Fragments {
		jf := JSONFragment{
			Range:       f.Range,
			Encoding:    f.Encoding,
			Hash:        strconv.FormatUint(f.Hash, 16),
			Height:      f.Height,
			PixelHeight: f.PixelHeight,
			Offset:      f.Offset,
			Size:        len(f.Payload),
		}
		if r.opts.IncludePayload {
			jf.Payload = f.Payload
		}
		out.Fragments = append(out.Fragments, jf)
	}
	return out
}
