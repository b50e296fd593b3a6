package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaklabco/livetype/internal/logging"
	"github.com/yaklabco/livetype/pkg/config"
	"github.com/yaklabco/livetype/pkg/fsutil"
	"github.com/yaklabco/livetype/pkg/reporter"
	"github.com/yaklabco/livetype/pkg/runner"
)

type compileFlags struct {
	render        renderFlags
	format        string
	jobs          int
	out           string
	exclude       []string
	resolveRounds int
	strict        bool
	noContext     bool
	compact       bool
	verbose       bool
	fragments     bool
	payload       bool
}

func newCompileCommand() *cobra.Command {
	flags := &compileFlags{}

	cmd := &cobra.Command{
		Use:   "compile [paths...]",
		Short: "Compile documents into preview fragments",
		Long:  compileLongDescription,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args, flags)
		},
	}

	addRenderFlags(cmd, &flags.render)
	cmd.Flags().StringVar(&flags.format, "format", "text", "output format: text, json")
	cmd.Flags().IntVar(&flags.jobs, "jobs", 0, "number of parallel workers (0 = auto)")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "write fragment payloads to this directory")
	cmd.Flags().StringSliceVar(&flags.exclude, "exclude", nil, "glob patterns to skip")
	cmd.Flags().IntVar(&flags.resolveRounds, "resolve-rounds", runner.DefaultResolveRounds,
		"how often imported files are loaded from disk and the document compiled again")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "treat warnings as errors for exit code")
	cmd.Flags().BoolVar(&flags.noContext, "no-context", false, "hide source line context in output")
	cmd.Flags().BoolVar(&flags.compact, "compact", false, "use compact JSON output")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "print a summary block instead of one line")
	cmd.Flags().BoolVar(&flags.fragments, "fragments", false, "list the rendered fragments of every document")
	cmd.Flags().BoolVar(&flags.payload, "payload", false, "embed fragment payloads in JSON output")

	return cmd
}

const compileLongDescription = `Compile documents into independently rendered preview fragments.

By default, compiles all .typ files in the current directory and
subdirectories. Specify paths to compile specific files or directories,
or "-" to read a single document from standard input.

Imported sources and images are loaded from disk relative to the
importing document.

Examples:
  livetype compile                       # Compile current directory
  livetype compile notes/                # Compile a directory
  livetype compile draft.typ --out build # Write fragments to build/
  livetype compile --format json         # Output as JSON
  cat draft.typ | livetype compile -     # Compile standard input`

func runCompile(cmd *cobra.Command, args []string, flags *compileFlags) error {
	logger := logging.Default()
	ctx := commandContext(cmd)

	cliCfg := &config.Config{Jobs: flags.jobs, Output: flags.out}
	if cmd.Flags().Changed("format") {
		cliCfg.Format = config.OutputFormat(flags.format)
	}
	flags.render.apply(cmd, cliCfg)

	env, err := loadSettings(cmd, cliCfg)
	if err != nil {
		return err
	}
	cfg := env.config

	format, err := reporter.ParseFormat(string(cfg.Format))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	runOpts := runner.Options{
		Paths:         args,
		WorkingDir:    env.workDir,
		Extensions:    runner.DefaultExtensions(),
		ExcludeGlobs:  flags.exclude,
		Jobs:          cfg.Jobs,
		ResolveRounds: max(flags.resolveRounds, 0),
		Config:        cfg,
	}

	logger.Debug("starting compile run",
		logging.FieldPaths, runOpts.Paths,
		logging.FieldWorkingDir, runOpts.WorkingDir,
		logging.FieldJobs, runOpts.Jobs,
	)

	result, err := compileDocuments(cmd, args, runOpts)
	if err != nil {
		return err
	}

	rep, err := reporter.New(reporter.Options{
		Writer:         cmd.OutOrStdout(),
		Format:         format,
		Color:          env.color,
		ShowContext:    !flags.noContext,
		ShowSummary:    true,
		Verbose:        flags.verbose,
		ShowFragments:  flags.fragments,
		IncludePayload: flags.payload,
		Compact:        flags.compact,
		WorkingDir:     env.workDir,
	})
	if err != nil {
		return fmt.Errorf("create reporter: %w", err)
	}
	if _, err := rep.Report(ctx, result); err != nil {
		return fmt.Errorf("report results: %w", err)
	}

	if cfg.Output != "" {
		written, err := writeFragments(ctx, result, cfg.Output, env.workDir)
		if err != nil {
			return err
		}
		logger.Info("wrote fragments", logging.FieldOutput, cfg.Output, logging.FieldFragments, written)
	}

	if code := ExitCodeFromResult(result, flags.strict); code != ExitSuccess {
		return &IssuesError{Code: code}
	}
	return nil
}

// compileDocuments compiles either standard input or the documents found
// under args.
func compileDocuments(cmd *cobra.Command, args []string, opts runner.Options) (*runner.Result, error) {
	ctx := commandContext(cmd)
	rn := runner.New(runner.WithLogger(logging.Default()))

	if !slices.Contains(args, stdinPath) {
		result, err := rn.Run(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("compile run failed: %w", err)
		}
		return result, nil
	}

	if len(args) != 1 {
		return nil, fmt.Errorf("%w: %q cannot be combined with other paths", ErrUsage, stdinPath)
	}
	path, text, err := readInput(cmd, stdinPath)
	if err != nil {
		return nil, err
	}
	result, err := rn.RunInputs(ctx, []runner.Input{{Path: path, Text: text}}, opts)
	if err != nil {
		return nil, fmt.Errorf("compile run failed: %w", err)
	}
	return result, nil
}

// writeFragments stores every fragment payload under outDir, one directory
// per document. Unchanged files are left alone. It returns the number of
// files written.
func writeFragments(ctx context.Context, result *runner.Result, outDir, workDir string) (int, error) {
	written := 0
	for _, doc := range result.Documents {
		if doc.Result == nil || len(doc.Result.Fragments) == 0 {
			continue
		}

		dir := filepath.Join(outDir, fragmentStem(doc.Path, workDir))
		if err := fsutil.EnsureDir(dir, fsutil.DefaultDirMode); err != nil {
			return written, fmt.Errorf("create output directory: %w", err)
		}

		for i, frag := range doc.Result.Fragments {
			name := filepath.Join(dir, fmt.Sprintf("%03d.%s", i, frag.Encoding))
			changed, err := fsutil.WriteAtomicIfChanged(ctx, name, frag.Payload, fsutil.DefaultFileMode)
			if err != nil {
				return written, fmt.Errorf("write fragment: %w", err)
			}
			if changed {
				written++
			}
		}
	}
	return written, nil
}

// fragmentStem names the output directory of a document: its path
// relative to workDir without extension, or its base name when it lies
// outside workDir.
func fragmentStem(path, workDir string) string {
	rel := path
	if filepath.IsAbs(path) {
		r, err := filepath.Rel(workDir, path)
		if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
			r = filepath.Base(path)
		}
		rel = r
	}
	return strings.TrimSuffix(rel, filepath.Ext(rel))
}
