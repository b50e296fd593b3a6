package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yaklabco/livetype/internal/configloader"
	"github.com/yaklabco/livetype/internal/logging"
	"github.com/yaklabco/livetype/pkg/config"
	"github.com/yaklabco/livetype/pkg/fsutil"
)

// stdinPath is the argument that reads a document from standard input.
const stdinPath = "-"

// stdinName is the document path used for standard input. Relative imports
// resolve against the working directory.
const stdinName = "stdin.typ"

// ErrInteractiveStdin is returned when a document is to be read from a
// terminal.
var ErrInteractiveStdin = errors.New("refusing to read a document from an interactive terminal")

// settings is the resolved environment of one command run.
type settings struct {
	config  *config.Config
	workDir string
	color   string
}

// renderFlags are the render overrides shared by the document commands.
type renderFlags struct {
	width    float64
	cutoff   float64
	encoding string
	font     string
	locale   string
	prelude  string
}

func addRenderFlags(cmd *cobra.Command, flags *renderFlags) {
	cmd.Flags().Float64Var(&flags.width, "width", 0, "page width in points (default: auto)")
	cmd.Flags().Float64Var(&flags.cutoff, "height-cutoff", 0, "stop rendering below this height in points")
	cmd.Flags().StringVar(&flags.encoding, "encoding", "", "fragment encoding: svg or png")
	cmd.Flags().StringVar(&flags.font, "font", "", "body font family")
	cmd.Flags().StringVar(&flags.locale, "locale", "", "text language as a BCP 47 tag")
	cmd.Flags().StringVar(&flags.prelude, "prelude-file", "", "markup file placed before every document")
}

// apply copies the flags the user set into cfg.
func (f *renderFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("width") {
		width := f.width
		cfg.Render.Width = &width
	}
	if cmd.Flags().Changed("height-cutoff") {
		cutoff := f.cutoff
		cfg.Render.HeightCutoff = &cutoff
	}
	cfg.Render.Encoding = f.encoding
	cfg.Render.Font = f.font
	cfg.Render.Locale = f.locale
	cfg.PreludeFile = f.prelude
}

// loadSettings resolves the configuration of a command run. cliCfg holds
// the values set through flags.
func loadSettings(cmd *cobra.Command, cliCfg *config.Config) (*settings, error) {
	logger := logging.Default()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("get config flag: %w", err)
	}
	noConfig, err := cmd.Flags().GetBool("no-config")
	if err != nil {
		return nil, fmt.Errorf("get no-config flag: %w", err)
	}
	colorMode, err := cmd.Flags().GetString("color")
	if err != nil {
		colorMode = "auto"
	}
	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		debug = false
	}

	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	result, err := configloader.Load(commandContext(cmd), configloader.LoadOptions{
		WorkingDir:          workDir,
		ExplicitPath:        configPath,
		IgnoreSystemConfig:  noConfig,
		IgnoreUserConfig:    noConfig,
		IgnoreProjectConfig: noConfig,
		CLIConfig:           cliCfg,
	})
	if err != nil {
		return nil, errors.Join(ErrConfig, err)
	}

	for _, warning := range result.Warnings {
		logger.Warn(warning)
	}
	if !debug && result.Config.LogLevel != "" {
		logging.SetLevel(result.Config.LogLevel)
	}
	if len(result.LoadedFrom) > 0 {
		logger.Debug("loaded configuration", logging.FieldPaths, result.LoadedFrom)
	}

	return &settings{config: result.Config, workDir: workDir, color: colorMode}, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// readInput reads the document named by path. The path "-" reads standard
// input, which must not be a terminal.
func readInput(cmd *cobra.Command, path string) (string, string, error) {
	if path != stdinPath {
		text, err := fsutil.ReadDocument(commandContext(cmd), path)
		if err != nil {
			return "", "", err
		}
		return path, text, nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", "", ErrInteractiveStdin
	}
	text, err := fsutil.ReadAll(in)
	if err != nil {
		return "", "", fmt.Errorf("read stdin: %w", err)
	}
	return stdinName, text, nil
}
