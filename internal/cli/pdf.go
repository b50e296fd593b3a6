package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaklabco/livetype/internal/logging"
	"github.com/yaklabco/livetype/internal/ui/pretty"
	"github.com/yaklabco/livetype/pkg/config"
	"github.com/yaklabco/livetype/pkg/engine"
	"github.com/yaklabco/livetype/pkg/fsutil"
	"github.com/yaklabco/livetype/pkg/runner"
	"github.com/yaklabco/livetype/pkg/source"
	"github.com/yaklabco/livetype/pkg/typeset"
)

type pdfFlags struct {
	render        renderFlags
	output        string
	resolveRounds int
}

func newPDFCommand() *cobra.Command {
	flags := &pdfFlags{}

	cmd := &cobra.Command{
		Use:   "pdf FILE",
		Short: "Export a document as a paginated PDF",
		Long: `Compile a document in print mode and write it as a PDF.

Blocks that fail to compile are left out and reported; the rest of the
document is still exported and the command exits non-zero. Nothing is
written when no failing block could be isolated.

Examples:
  livetype pdf draft.typ                 Write draft.pdf
  livetype pdf draft.typ -o out/a.pdf    Write to a custom path
  cat draft.typ | livetype pdf - -o a.pdf`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPDF(cmd, args[0], flags)
		},
	}

	addRenderFlags(cmd, &flags.render)
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default: FILE with .pdf extension)")
	cmd.Flags().IntVar(&flags.resolveRounds, "resolve-rounds", runner.DefaultResolveRounds,
		"how often imported files are loaded from disk and the document compiled again")

	return cmd
}

// pdfPath derives the output path of a document.
func pdfPath(input, output string) (string, error) {
	if output != "" {
		return output, nil
	}
	if input == stdinPath {
		return "", fmt.Errorf("%w: --output is required when reading standard input", ErrUsage)
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".pdf", nil
}

func runPDF(cmd *cobra.Command, input string, flags *pdfFlags) error {
	logger := logging.Default()
	ctx := commandContext(cmd)

	output, err := pdfPath(input, flags.output)
	if err != nil {
		return err
	}

	cliCfg := &config.Config{}
	flags.render.apply(cmd, cliCfg)
	env, err := loadSettings(cmd, cliCfg)
	if err != nil {
		return err
	}

	path, text, err := readInput(cmd, input)
	if err != nil {
		return err
	}

	eng := engine.New(engine.WithLogger(logger), engine.WithDefaults(env.config.Render))
	h, err := eng.Open(filepath.ToSlash(path))
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer func() { _ = eng.Close(h) }()

	rn := runner.New(runner.WithLogger(logger))
	if _, _, err := rn.Resolve(ctx, eng, h, text, env.config.Prelude, max(flags.resolveRounds, 0)); err != nil {
		return fmt.Errorf("compile %s: %w", path, err)
	}

	out, err := eng.RenderFixed(ctx, h)
	if err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}

	styles := pretty.NewStyles(pretty.IsColorEnabled(env.color, cmd.ErrOrStderr()))
	src := source.New(source.ID(path), text)
	for _, diag := range out.Diagnostics {
		fmt.Fprint(cmd.ErrOrStderr(), styles.FormatDiagnostic(path, diag, src, true))
	}
	for _, req := range out.Requests {
		fmt.Fprint(cmd.ErrOrStderr(), styles.FormatRequest(req))
	}

	if out.PDF == nil {
		logger.Error("no failing block could be isolated", logging.FieldPath, path)
		return &IssuesError{Code: ExitCompileErrors}
	}

	if err := fsutil.WriteAtomic(ctx, output, out.PDF, fsutil.DefaultFileMode); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	logger.Info("wrote pdf", logging.FieldOutput, output, logging.FieldDiagnostics, len(out.Diagnostics))

	if hasErrorDiagnostics(out.Diagnostics) {
		return &IssuesError{Code: ExitCompileErrors}
	}
	return nil
}

func hasErrorDiagnostics(diags []engine.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == typeset.SeverityError {
			return true
		}
	}
	return false
}
