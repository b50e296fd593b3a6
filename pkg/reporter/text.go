package reporter

import (
	"bufio"
	"context"
	"fmt"

	"github.com/yaklabco/livetype/internal/ui/pretty"
	"github.com/yaklabco/livetype/pkg/runner"
	"github.com/yaklabco/livetype/pkg/source"
)

// TextReporter formats results as styled terminal output.
type TextReporter struct {
	opts   Options
	styles *pretty.Styles
	bw     *bufio.Writer
}

// NewTextReporter creates a new text reporter.
func NewTextReporter(opts Options) *TextReporter {
	colorEnabled := pretty.IsColorEnabled(opts.Color, opts.Writer)
	return &TextReporter{
		opts:   opts,
		styles: pretty.NewStyles(colorEnabled),
		bw:     bufio.NewWriterSize(opts.Writer, bufWriterSize),
	}
}

// Report implements Reporter.
func (r *TextReporter) Report(ctx context.Context, result *runner.Result) (_ int, err error) {
	defer func() {
		if flushErr := r.bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	if result == nil || len(result.Documents) == 0 {
		if r.opts.ShowSummary {
			fmt.Fprintln(r.bw, r.styles.Success.Render("No documents to compile."))
		}
		return 0, nil
	}

	var total int
	for _, doc := range result.Documents {
		if err := ctx.Err(); err != nil {
			return total, fmt.Errorf("report: %w", err)
		}
		total += r.reportDocument(doc)
	}

	if r.opts.ShowSummary {
		if r.opts.Verbose {
			fmt.Fprint(r.bw, r.styles.FormatSummary(result.Stats))
		} else {
			fmt.Fprint(r.bw, r.styles.FormatSummaryOneLine(result.Stats))
		}
	}

	return total, nil
}

func (r *TextReporter) reportDocument(doc runner.DocumentOutcome) int {
	path := displayPath(doc.Path, r.opts.WorkingDir)

	if doc.Error != nil {
		fmt.Fprintf(r.bw, "%s: %s\n",
			r.styles.FilePath.Render(path),
			r.styles.Error.Render(fmt.Sprintf("error: %v", doc.Error)),
		)
		return 0
	}
	if doc.Result == nil {
		return 0
	}

	res := doc.Result
	showFragments := r.opts.ShowFragments && len(res.Fragments) > 0
	if len(res.Diagnostics) == 0 && len(res.Requests) == 0 && !showFragments {
		return 0
	}

	fmt.Fprintln(r.bw, r.styles.FormatFileHeader(path, len(res.Diagnostics)))

	src := source.New("", doc.Text)
	for _, diag := range res.Diagnostics {
		fmt.Fprint(r.bw, r.styles.FormatDiagnostic(path, diag, src, r.opts.ShowContext))
	}
	for _, req := range res.Requests {
		fmt.Fprint(r.bw, r.styles.FormatRequest(req))
	}
	if res.Aborted {
		fmt.Fprintln(r.bw, "    "+r.styles.Failure.Render("compilation aborted, no fragments rendered"))
	}
	if showFragments {
		for i, frag := range res.Fragments {
			fmt.Fprint(r.bw, r.styles.FormatFragment(i, frag))
		}
	}

	fmt.Fprintln(r.bw)
	return len(res.Diagnostics)
}
