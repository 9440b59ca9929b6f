package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/hpmdl/internal/config"
)

// session is the state every subcommand starts from: the output
// formatter, the resolved configuration and a logger on stderr.
type session struct {
	out    *OutputFormatter
	cfg    *config.Config
	logger *slog.Logger
}

// newSession loads configuration and sets up logging for cmd. A config
// error has already been reported when it returns.
func newSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	loader := opts.Loader
	if loader == nil {
		loader = config.NewLoader(newLogger(cmd.ErrOrStderr(), opts.Verbose, slog.LevelWarn))
	}
	cfg, err := loader.Load(opts.Config)
	if err != nil {
		return nil, out.Fail(ExitCommandError, err)
	}

	return &session{
		out:    out,
		cfg:    cfg,
		logger: newLogger(cmd.ErrOrStderr(), opts.Verbose, cfg.LogLevel()),
	}, nil
}

// newLogger returns a text logger on w at level, or debug when verbose.
func newLogger(w io.Writer, verbose bool, level slog.Level) *slog.Logger {
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
