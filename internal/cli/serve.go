package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yaklabco/livetype/internal/logging"
	"github.com/yaklabco/livetype/internal/server"
	"github.com/yaklabco/livetype/pkg/config"
	"github.com/yaklabco/livetype/pkg/engine"
	"github.com/yaklabco/livetype/pkg/runner"
)

// DefaultAddr is the listen address of the serve command.
const DefaultAddr = "127.0.0.1:7117"

type serveFlags struct {
	render        renderFlags
	addr          string
	resolveRounds int
}

func newServeCommand() *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live preview engine over HTTP",
		Long: `Serve the engine to an editor over HTTP. Every host operation is a
JSON endpoint:

  POST   /documents                     open a document
  DELETE /documents/{id}                close it
  PUT    /documents/{id}/config         change render parameters
  POST   /documents/{id}/compile        compile into fragments
  POST   /documents/{id}/check          diagnostics only
  POST   /documents/{id}/hit-test       resolve a click
  POST   /documents/{id}/autocomplete   completions at a cursor
  POST   /documents/{id}/hover          tooltip at a cursor
  POST   /documents/{id}/resize         change width and cutoff
  POST   /documents/{id}/highlight      syntax classes of a text
  GET    /documents/{id}/pdf            paginated export
  PUT    /files/{path}                  provide an imported file
  DELETE /files/{path}                  drop it

With --resolve-rounds, files a document imports are also read from disk.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, flags)
		},
	}

	addRenderFlags(cmd, &flags.render)
	cmd.Flags().StringVar(&flags.addr, "addr", DefaultAddr, "listen address")
	cmd.Flags().IntVar(&flags.resolveRounds, "resolve-rounds", 0,
		"load imported files from disk, compiling again at most this often (0 = never)")

	return cmd
}

func runServe(cmd *cobra.Command, flags *serveFlags) error {
	logger := logging.Default()

	cliCfg := &config.Config{Serve: flags.addr}
	flags.render.apply(cmd, cliCfg)
	env, err := loadSettings(cmd, cliCfg)
	if err != nil {
		return err
	}
	cfg := env.config

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithEngine(engine.New(engine.WithLogger(logger), engine.WithDefaults(cfg.Render))),
		server.WithPrelude(cfg.Prelude),
	}
	if flags.resolveRounds > 0 {
		opts = append(opts, server.WithResolver(runner.New(runner.WithLogger(logger)), flags.resolveRounds))
	}
	srv := server.New(opts...)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serveUntilDone(ctx, srv, cfg.Serve)
}

func serveUntilDone(ctx context.Context, srv *server.Server, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	return srv.ListenAndServe(ctx, addr)
}
