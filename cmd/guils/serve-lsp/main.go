package serve_lsp

import (
	"context"
	"io"
	"os"

	"github.com/creachadair/jrpc2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/guils/pkg/config"
	"github.com/walteh/guils/pkg/debug"
	"github.com/walteh/guils/pkg/lexer"
	"github.com/walteh/guils/pkg/lsp"
	"github.com/walteh/guils/pkg/lsp/protocol"
	"github.com/walteh/guils/pkg/workspace"
	"gitlab.com/tozd/go/errors"
)

type Handler struct {
	debug   bool
	version string

	stdin  io.Reader
	stdout io.WriteCloser
	stderr io.Writer
}

func NewServeLSPCommand(version string) *cobra.Command {
	me := &Handler{
		version: version,
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}

	cmd := &cobra.Command{
		Use:   "serve-lsp",
		Short: "start the language server on stdin and stdout",
		Args:  cobra.NoArgs,
	}

	defaults := config.Defaults()

	cmd.Flags().BoolVar(&me.debug, "debug", false, "enable debug logging")
	cmd.Flags().String("language-id", defaults.LanguageID, "language id advertised for semantic tokens")
	cmd.Flags().Int("shards", defaults.Shards, "shard count of the document stores")
	cmd.Flags().Int("concurrency", defaults.Concurrency, "number of requests handled at once")
	cmd.Flags().Bool("log-to-client", defaults.LogToClient, "forward logs to the client as window/logMessage")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromCommand(cmd)
		if err != nil {
			return err
		}
		return me.Run(cmd.Context(), cfg)
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, cfg config.Config) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	if me.debug {
		level = zerolog.DebugLevel
	}

	logger := debug.NewConsoleLogger(me.stderr, level, false).With().Str("component", "lsp-server").Logger()
	ctx = logger.WithContext(ctx)

	ws := workspace.New(workspace.ClassifierFunc(lexer.Classify), workspace.WithShards(cfg.Shards))

	server := lsp.NewServer(ctx, ws,
		lsp.WithLanguageID(cfg.LanguageID),
		lsp.WithVersion(me.version),
	)

	opts := &jrpc2.ServerOptions{
		RPCLog:      &protocol.RPCLogger{},
		Concurrency: cfg.Concurrency,
	}

	instance := server.BuildServerInstance(ctx, opts, cfg.LogToClient)

	zerolog.Ctx(ctx).Info().
		Int("shards", cfg.Shards).
		Int("concurrency", cfg.Concurrency).
		Bool("log_to_client", cfg.LogToClient).
		Msg("serving language server on stdio")

	if err := instance.StartAndWait(me.stdin, me.stdout); err != nil {
		return errors.Errorf("error running language server: %w", err)
	}

	return nil
}
