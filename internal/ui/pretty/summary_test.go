package pretty_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yaklabco/livetype/internal/ui/pretty"
	"github.com/yaklabco/livetype/pkg/runner"
)

func TestFormatSummaryOneLine(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name  string
		stats runner.Stats
		want  string
	}

	tests := []testCase{
		{
			name:  "clean",
			stats: runner.Stats{DocumentsCompiled: 2, Fragments: 5},
			want:  "No issues found (2 documents compiled), 5 fragments\n",
		},
		{
			name:  "single document",
			stats: runner.Stats{DocumentsCompiled: 1, Fragments: 1},
			want:  "No issues found (1 document compiled), 1 fragment\n",
		},
		{
			name: "issues",
			stats: runner.Stats{
				DocumentsCompiled:     3,
				DocumentsWithIssues:   2,
				Fragments:             9,
				DiagnosticsTotal:      3,
				DiagnosticsBySeverity: map[string]int{"error": 1, "warning": 2},
			},
			want: "3 issues (1 error, 2 warnings) in 2 documents, 9 fragments\n",
		},
		{
			name:  "failed documents",
			stats: runner.Stats{DocumentsErrored: 1},
			want:  "0 issues in 0 documents, 1 document failed, 0 fragments\n",
		},
	}

	styles := pretty.NewStyles(false)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, styles.FormatSummaryOneLine(tc.stats))
		})
	}
}

func TestFormatSummary(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)

	out := styles.FormatSummary(runner.Stats{DocumentsCompiled: 1, Fragments: 2, Compiles: 1})
	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "  Documents compiled: 1\n")
	assert.Contains(t, out, "  Fragments:          2\n")
	assert.Contains(t, out, "Compile succeeded")
	assert.NotContains(t, out, "Errors")

	out = styles.FormatSummary(runner.Stats{
		DocumentsCompiled:     1,
		DocumentsWithIssues:   1,
		DocumentsAborted:      1,
		Requests:              2,
		DiagnosticsTotal:      1,
		DiagnosticsBySeverity: map[string]int{"error": 1},
	})
	assert.Contains(t, out, "  Documents aborted:  1\n")
	assert.Contains(t, out, "  Open requests:      2\n")
	assert.Contains(t, out, "    Errors:           1\n")
	assert.Contains(t, out, "Compile finished with errors")

	out = styles.FormatSummary(runner.Stats{DiagnosticsTotal: 1, DiagnosticsBySeverity: map[string]int{"warning": 1}})
	assert.Contains(t, out, "Compile finished with warnings")
}
