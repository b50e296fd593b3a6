package reporter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/livetype/pkg/engine"
	"github.com/yaklabco/livetype/pkg/reporter"
	"github.com/yaklabco/livetype/pkg/runner"
	"github.com/yaklabco/livetype/pkg/typeset"
)

const example = "Intro text\n\n$x^2+1$\n\n#broken(\n\nMore text\n"

func sampleResult(dir string) *runner.Result {
	return &runner.Result{
		Documents: []runner.DocumentOutcome{
			{
				Path: filepath.Join(dir, "clean.typ"),
				Text: "Hello\n",
				Result: &engine.CompileResult{
					Fragments: []engine.Fragment{{
						Range:    engine.Range{Start: 0, End: 5},
						Payload:  []byte("<svg/>"),
						Encoding: "svg",
						Hash:     0xff,
						Height:   12,
					}},
					Compiles: 1,
				},
			},
			{
				Path: filepath.Join(dir, "broken.typ"),
				Text: example,
				Result: &engine.CompileResult{
					Fragments: []engine.Fragment{
						{Range: engine.Range{Start: 0, End: 10}, Encoding: "svg"},
						{Range: engine.Range{Start: 12, End: 19}, Encoding: "svg"},
						{Range: engine.Range{Start: 31, End: 40}, Encoding: "svg"},
					},
					Diagnostics: []engine.Diagnostic{{
						Severity: typeset.SeverityError,
						Message:  "unclosed delimiter",
						Range:    engine.Range{Start: 21, End: 29},
					}},
					Requests: []typeset.Request{{Kind: typeset.RequestFont, Path: "Fancy"}},
					Compiles: 2,
				},
			},
			{
				Path:  filepath.Join(dir, "missing.typ"),
				Error: errors.New("file not found"),
			},
		},
		Stats: runner.Stats{
			DocumentsDiscovered:   3,
			DocumentsCompiled:     2,
			DocumentsErrored:      1,
			DocumentsWithIssues:   1,
			Fragments:             4,
			Compiles:              3,
			Requests:              1,
			DiagnosticsTotal:      1,
			DiagnosticsBySeverity: map[string]int{"error": 1},
		},
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name    string
		input   string
		want    reporter.Format
		wantErr bool
	}

	tests := []testCase{
		{name: "empty defaults to text", input: "", want: reporter.FormatText},
		{name: "text", input: "text", want: reporter.FormatText},
		{name: "json", input: "json", want: reporter.FormatJSON},
		{name: "unknown", input: "sarif", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := reporter.ParseFormat(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.True(t, got.IsValid())
		})
	}

	assert.False(t, reporter.Format("").IsValid())
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := reporter.New(reporter.Options{Format: "xml", Writer: &bytes.Buffer{}})
	require.Error(t, err)
}

func TestTextReporter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var buf bytes.Buffer
	rep, err := reporter.New(reporter.Options{
		Writer:      &buf,
		Format:      reporter.FormatText,
		Color:       "never",
		ShowContext: true,
		ShowSummary: true,
		WorkingDir:  dir,
	})
	require.NoError(t, err)

	n, err := rep.Report(context.Background(), sampleResult(dir))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	out := buf.String()
	assert.NotContains(t, out, "clean.typ")
	assert.Contains(t, out, "broken.typ (1 issue)\n")
	assert.Contains(t, out, "  broken.typ:5:1  error  unclosed delimiter\n")
	assert.Contains(t, out, "        #broken(\n        ^^^^^^^^\n")
	assert.Contains(t, out, "    needs font Fancy\n")
	assert.Contains(t, out, "missing.typ: error: file not found\n")
	assert.True(t, strings.HasSuffix(out, "1 issue (1 error) in 1 document, 1 document failed, 4 fragments\n"))
}

func TestTextReporterFragmentsAndVerbose(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var buf bytes.Buffer
	rep := reporter.NewTextReporter(reporter.Options{
		Writer:        &buf,
		Color:         "never",
		ShowSummary:   true,
		ShowFragments: true,
		Verbose:       true,
		WorkingDir:    dir,
	})

	_, err := rep.Report(context.Background(), sampleResult(dir))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "clean.typ\n    #0 [0,5)  12.0pt svg, 6 bytes  00000000000000ff\n")
	assert.NotContains(t, out, "^^^")
	assert.Contains(t, out, "Compile finished with errors")
}

func TestTextReporterEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rep := reporter.NewTextReporter(reporter.Options{Writer: &buf, Color: "never", ShowSummary: true})
	n, err := rep.Report(context.Background(), &runner.Result{})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "No documents to compile.\n", buf.String())
}

func TestJSONReporter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var buf bytes.Buffer
	rep, err := reporter.New(reporter.Options{Writer: &buf, Format: reporter.FormatJSON, WorkingDir: dir, Compact: true})
	require.NoError(t, err)

	n, err := rep.Report(context.Background(), sampleResult(dir))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))

	var out reporter.JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, reporter.JSONVersion, out.Version)
	require.Len(t, out.Documents, 3)

	clean := out.Documents[0]
	assert.Equal(t, "clean.typ", clean.Path)
	assert.Equal(t, 1, clean.Compiles)
	require.Len(t, clean.Fragments, 1)
	assert.Equal(t, "ff", clean.Fragments[0].Hash)
	assert.Equal(t, 6, clean.Fragments[0].Size)
	assert.Nil(t, clean.Fragments[0].Payload)
	assert.NotNil(t, clean.Diagnostics)

	broken := out.Documents[1]
	require.Len(t, broken.Diagnostics, 1)
	assert.Equal(t, reporter.JSONDiagnostic{
		Severity:    "error",
		Message:     "unclosed delimiter",
		Range:       engine.Range{Start: 21, End: 29},
		StartLine:   5,
		StartColumn: 1,
	}, broken.Diagnostics[0])
	assert.Equal(t, []typeset.Request{{Kind: typeset.RequestFont, Path: "Fancy"}}, broken.Requests)

	assert.Equal(t, "file not found", out.Documents[2].Error)

	assert.Equal(t, reporter.JSONSummary{
		Documents:           3,
		DocumentsErrored:    1,
		DocumentsWithIssues: 1,
		Fragments:           4,
		Compiles:            3,
		TotalIssues:         1,
		BySeverity:          map[string]int{"error": 1},
	}, out.Summary)
}

func TestJSONReporterPayload(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rep := reporter.NewJSONReporter(reporter.Options{Writer: &buf, IncludePayload: true})
	_, err := rep.Report(context.Background(), sampleResult(t.TempDir()))
	require.NoError(t, err)

	var out reporter.JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, []byte("<svg/>"), out.Documents[0].Fragments[0].Payload)
}

func TestJSONReporterNilResult(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := reporter.NewJSONReporter(reporter.Options{Writer: &buf}).Report(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, buf.String(), `"documents": []`)
}
