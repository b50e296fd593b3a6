package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yaklabco/livetype/internal/logging"
	"github.com/yaklabco/livetype/internal/ui/pretty"
	"github.com/yaklabco/livetype/pkg/config"
	"github.com/yaklabco/livetype/pkg/engine"
	"github.com/yaklabco/livetype/pkg/runner"
)

type inspectFlags struct {
	render      renderFlags
	mode        string
	noCompile   bool
	text        bool
	inflections bool
}

func newInspectCommand() *cobra.Command {
	flags := &inspectFlags{}

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show how a document is split into blocks",
		Long: `Show the blocks a document is split into, the synthesized text handed
to the compiler and the offset map between the two.

The document is compiled first so that blocks neutralized by the compile
loop are marked. Use --no-compile to see the plain synthesis.

Examples:
  livetype inspect draft.typ
  livetype inspect draft.typ --text
  livetype inspect draft.typ --mode print --inflections`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0], flags)
		},
	}

	addRenderFlags(cmd, &flags.render)
	cmd.Flags().StringVar(&flags.mode, "mode", "preview", "synthesis mode: preview, print, interactive")
	cmd.Flags().BoolVar(&flags.noCompile, "no-compile", false, "show the synthesis without compiling")
	cmd.Flags().BoolVar(&flags.text, "text", false, "print the synthesized text")
	cmd.Flags().BoolVar(&flags.inflections, "inflections", false, "list the offset map")

	return cmd
}

func parseMode(s string) (engine.Mode, error) {
	for _, m := range []engine.Mode{engine.ModePreview, engine.ModePrint, engine.ModeInteractive} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown mode %q (want preview, print or interactive)", ErrUsage, s)
}

func runInspect(cmd *cobra.Command, input string, flags *inspectFlags) error {
	logger := logging.Default()
	ctx := commandContext(cmd)

	mode, err := parseMode(flags.mode)
	if err != nil {
		return err
	}

	cliCfg := &config.Config{}
	flags.render.apply(cmd, cliCfg)
	env, err := loadSettings(cmd, cliCfg)
	if err != nil {
		return err
	}
	cfg := env.config

	path, text, err := readInput(cmd, input)
	if err != nil {
		return err
	}

	var syn *engine.Synthesis
	if flags.noCompile || mode == engine.ModePrint {
		syn = engine.Synthesize(text, engine.Prelude(mode, cfg.Render), cfg.Prelude, mode)
	} else {
		eng := engine.New(engine.WithLogger(logger), engine.WithDefaults(cfg.Render))
		h, err := eng.Open(filepath.ToSlash(path))
		if err != nil {
			return fmt.Errorf("open document: %w", err)
		}
		defer func() { _ = eng.Close(h) }()

		if mode == engine.ModeInteractive {
			_, err = eng.Check(ctx, h, text, cfg.Prelude)
		} else {
			_, _, err = runner.New(runner.WithLogger(logger)).Resolve(ctx, eng, h, text, cfg.Prelude, runner.DefaultResolveRounds)
		}
		if err != nil {
			return fmt.Errorf("compile %s: %w", path, err)
		}
		doc, err := eng.Document(h)
		if err != nil {
			return err
		}
		// An aborted first compile leaves no synthesis behind.
		if syn = doc.Synthesis(); syn == nil {
			syn = engine.Synthesize(text, engine.Prelude(mode, cfg.Render), cfg.Prelude, mode)
		}
	}

	out := cmd.OutOrStdout()
	styles := pretty.NewStyles(pretty.IsColorEnabled(env.color, out))
	width := terminalWidth(out)

	fmt.Fprintf(out, "%s %s\n\n", styles.FilePath.Render(path),
		styles.Dim.Render(fmt.Sprintf("(%s, %d blocks, %d inflections)", mode, len(syn.Blocks), syn.Mapper.Len())))

	blocks := pretty.NewTable(styles, width, "#", "RANGE", "KIND", "FLAGS", "TEXT")
	for i, b := range syn.Blocks {
		blocks.AddRow(strconv.Itoa(i), fmt.Sprintf("[%d,%d)", b.Start, b.End), b.Kind.String(),
			blockFlags(b), firstLine(text[b.Start:b.End]))
	}
	fmt.Fprint(out, blocks.Render())

	if flags.inflections {
		fmt.Fprintln(out)
		table := pretty.NewTable(styles, width, "USER", "SYNTHESIZED")
		for _, inf := range syn.Mapper.Inflections() {
			table.AddRow(strconv.Itoa(inf.A), strconv.Itoa(inf.B))
		}
		fmt.Fprint(out, table.Render())
	}

	if flags.text {
		fmt.Fprintln(out)
		fmt.Fprintln(out, styles.SummaryTitle.Render("Synthesized text"))
		fmt.Fprint(out, syn.Text)
		if !strings.HasSuffix(syn.Text, "\n") {
			fmt.Fprintln(out)
		}
	}
	return nil
}

func blockFlags(b engine.Block) string {
	var flags []string
	if b.Standalone {
		flags = append(flags, "standalone")
	}
	if b.Neutralized {
		flags = append(flags, "neutralized")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}

// firstLine returns the first non-blank line of s, marking elided lines.
func firstLine(s string) string {
	s = strings.TrimLeft(s, "\r\n")
	line, rest, more := strings.Cut(s, "\n")
	line = strings.TrimRight(line, "\r \t")
	if more && strings.TrimSpace(rest) != "" {
		line += " …"
	}
	return line
}

// terminalWidth returns the width of w when it is a terminal, or zero.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
