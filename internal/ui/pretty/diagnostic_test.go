package pretty_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yaklabco/livetype/internal/ui/pretty"
	"github.com/yaklabco/livetype/pkg/engine"
	"github.com/yaklabco/livetype/pkg/source"
	"github.com/yaklabco/livetype/pkg/typeset"
)

const example = "Intro text\n\n$x^2+1$\n\n#broken(\n\nMore text\n"

func TestSpan(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name     string
		text     string
		rng      engine.Range
		wantPos  pretty.Position
		wantLine string
		wantFrom int
		wantTo   int
		wantOK   bool
	}

	tests := []testCase{
		{
			name:     "third paragraph",
			text:     example,
			rng:      engine.Range{Start: 21, End: 29},
			wantPos:  pretty.Position{Line: 5, Column: 1},
			wantLine: "#broken(",
			wantTo:   8,
			wantOK:   true,
		},
		{
			name:     "utf-16 columns",
			text:     "Grüße #x",
			rng:      engine.Range{Start: 6, End: 8},
			wantPos:  pretty.Position{Line: 1, Column: 7},
			wantLine: "Grüße #x",
			wantFrom: 8,
			wantTo:   10,
			wantOK:   true,
		},
		{
			name:     "range crossing lines is clipped",
			text:     "ab\ncd",
			rng:      engine.Range{Start: 1, End: 5},
			wantPos:  pretty.Position{Line: 1, Column: 2},
			wantLine: "ab",
			wantFrom: 1,
			wantTo:   2,
			wantOK:   true,
		},
		{
			name: "out of range",
			text: "ab",
			rng:  engine.Range{Start: 9, End: 10},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			pos, line, from, to, ok := pretty.Span(source.New("", tc.text), tc.rng)
			assert.Equal(t, tc.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tc.wantPos, pos)
			assert.Equal(t, tc.wantLine, line)
			assert.Equal(t, tc.wantFrom, from)
			assert.Equal(t, tc.wantTo, to)
		})
	}
}

func TestFormatDiagnostic(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)
	diag := engine.Diagnostic{
		Severity: typeset.SeverityError,
		Message:  "unclosed delimiter",
		Hints:    []string{"add a closing parenthesis"},
		Range:    engine.Range{Start: 21, End: 29},
	}

	out := styles.FormatDiagnostic("doc.typ", diag, source.New("", example), true)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")

	assert.Equal(t, []string{
		"  doc.typ:5:1  error  unclosed delimiter",
		"        #broken(",
		"        ^^^^^^^^",
		"    hint: add a closing parenthesis",
	}, lines)

	out = styles.FormatDiagnostic("doc.typ", diag, source.New("", example), false)
	assert.NotContains(t, out, "^")
}

func TestFormatDiagnosticUnmappable(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)
	out := styles.FormatDiagnostic("doc.typ", engine.Diagnostic{
		Severity: typeset.SeverityWarning,
		Message:  "odd",
		Range:    engine.Range{Start: 40, End: 50},
	}, source.New("", "short"), true)
	assert.Equal(t, "  doc.typ  warning  odd\n", out)
}

func TestFormatSourceContextWide(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)
	line := "日本 #x"
	out := styles.FormatSourceContext(line, strings.Index(line, "#"), len(line))
	assert.Equal(t, "        日本 #x\n             ^^\n", out)

	out = styles.FormatSourceContext("abc", 3, 3)
	assert.Equal(t, "        abc\n           ^\n", out)
}

func TestFormatRequestAndFragment(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)
	assert.Equal(t, "    needs source /docs/lib.typ\n",
		styles.FormatRequest(typeset.Request{Kind: typeset.RequestSource, Path: "/docs/lib.typ"}))

	frag := engine.Fragment{
		Range:    engine.Range{Start: 0, End: 10},
		Payload:  []byte("<svg/>"),
		Encoding: "svg",
		Hash:     0xabc,
		Height:   14.3,
	}
	assert.Equal(t, "    #0 [0,10)  14.3pt svg, 6 bytes  0000000000000abc\n", styles.FormatFragment(0, frag))
}

func TestFormatFileHeader(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)
	assert.Equal(t, "a.typ", styles.FormatFileHeader("a.typ", 0))
	assert.Equal(t, "a.typ (1 issue)", styles.FormatFileHeader("a.typ", 1))
	assert.Equal(t, "a.typ (3 issues)", styles.FormatFileHeader("a.typ", 3))
}
