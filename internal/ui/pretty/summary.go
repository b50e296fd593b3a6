package pretty

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yaklabco/livetype/pkg/runner"
)

const summaryDividerWidth = 40

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

// FormatSummaryOneLine formats run statistics as a single line.
// Example: "3 issues (1 error, 2 warnings) in 2 documents, 9 fragments".
func (s *Styles) FormatSummaryOneLine(stats runner.Stats) string {
	fragments := s.Dim.Render(", " + plural(stats.Fragments, "fragment", "fragments"))

	if stats.DiagnosticsTotal == 0 && stats.DocumentsErrored == 0 {
		return s.Success.Render("No issues found") +
			s.Dim.Render(fmt.Sprintf(" (%s compiled)", plural(stats.DocumentsCompiled, "document", "documents"))) +
			fragments + "\n"
	}

	var parts []string

	var severity []string
	if n := stats.DiagnosticsBySeverity["error"]; n > 0 {
		severity = append(severity, s.Error.Render(plural(n, "error", "errors")))
	}
	if n := stats.DiagnosticsBySeverity["warning"]; n > 0 {
		severity = append(severity, s.Warning.Render(plural(n, "warning", "warnings")))
	}

	issues := plural(stats.DiagnosticsTotal, "issue", "issues")
	if len(severity) > 0 {
		issues += " (" + strings.Join(severity, ", ") + ")"
	}
	parts = append(parts, issues+" in "+plural(stats.DocumentsWithIssues, "document", "documents"))

	if stats.DocumentsErrored > 0 {
		parts = append(parts, s.Failure.Render(plural(stats.DocumentsErrored, "document failed", "documents failed")))
	}

	return strings.Join(parts, ", ") + fragments + "\n"
}

// FormatSummary formats run statistics as a summary block.
func (s *Styles) FormatSummary(stats runner.Stats) string {
	var builder strings.Builder

	row := func(label string, value string) {
		fmt.Fprintf(&builder, "  %-20s%s\n", label+":", value)
	}

	builder.WriteString("\n")
	builder.WriteString(s.SummaryTitle.Render("Summary"))
	builder.WriteString("\n")
	builder.WriteString(strings.Repeat("-", summaryDividerWidth))
	builder.WriteString("\n")

	row("Documents compiled", s.SummaryValue.Render(strconv.Itoa(stats.DocumentsCompiled)))
	if stats.DocumentsWithIssues > 0 {
		row("Documents w/ issues", s.Failure.Render(strconv.Itoa(stats.DocumentsWithIssues)))
	}
	if stats.DocumentsAborted > 0 {
		row("Documents aborted", s.Failure.Render(strconv.Itoa(stats.DocumentsAborted)))
	}
	if stats.DocumentsErrored > 0 {
		row("Documents failed", s.Failure.Render(strconv.Itoa(stats.DocumentsErrored)))
	}
	row("Fragments", s.SummaryValue.Render(strconv.Itoa(stats.Fragments)))
	row("Compiler runs", s.SummaryValue.Render(strconv.Itoa(stats.Compiles)))
	if stats.Requests > 0 {
		row("Open requests", s.Request.Render(strconv.Itoa(stats.Requests)))
	}

	builder.WriteString("\n")
	row("Total issues", s.SummaryValue.Render(strconv.Itoa(stats.DiagnosticsTotal)))
	if n := stats.DiagnosticsBySeverity["error"]; n > 0 {
		row("  Errors", s.Error.Render(strconv.Itoa(n)))
	}
	if n := stats.DiagnosticsBySeverity["warning"]; n > 0 {
		row("  Warnings", s.Warning.Render(strconv.Itoa(n)))
	}
	builder.WriteString("\n")

	switch {
	case stats.DiagnosticsBySeverity["error"] > 0 || stats.DocumentsErrored > 0:
		builder.WriteString(s.Failure.Render("Compile finished with errors"))
	case stats.DiagnosticsBySeverity["warning"] > 0:
		builder.WriteString(s.Warning.Render("Compile finished with warnings"))
	default:
		builder.WriteString(s.Success.Render("Compile succeeded"))
	}
	builder.WriteString("\n")

	return builder.String()
}
