package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/linksquared/linksquared-go/pkg/config"
	"github.com/linksquared/linksquared-go/pkg/sandbox"
)

type serveOptions struct {
	*RootOptions
	Addr     string
	BasePath string
}

func newServeCommand(root *RootOptions) *cobra.Command {
	opts := &serveOptions{RootOptions: root}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an in-memory SDK backend",
		Long: `Serve an in-memory Linksquared backend for local development.

Point LINKSQUARED_BASE_URL at the printed URL and use the sandbox API key.
The server stops on SIGINT or SIGTERM.

Example:
  linksquared serve --addr 127.0.0.1:8787`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default from LINKSQUARED_SANDBOX_ADDR)")
	cmd.Flags().StringVar(&opts.BasePath, "base-path", "", "API mount path (default from LINKSQUARED_SANDBOX_BASE_PATH)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	var cfg sandbox.Config
	if err := config.Load(&cfg, config.WithEnvFiles(opts.EnvFiles...)); err != nil {
		return wrapExit(ExitCommandError, "load sandbox config", err)
	}
	if opts.Addr != "" {
		cfg.Addr = opts.Addr
	}
	if opts.BasePath != "" {
		cfg.BasePath = opts.BasePath
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := sandbox.NewFromConfig(cfg, sandbox.WithLogger(opts.logger(cmd)))
	go func() {
		select {
		case <-srv.Ready():
			fmt.Fprintf(cmd.OutOrStdout(), "sandbox listening on %s (api key %s)\n", srv.URL(), cfg.APIKey)
		case <-ctx.Done():
		}
	}()

	if err := srv.Run(ctx); err != nil {
		return wrapExit(ExitFailure, "serve", err)
	}
	return nil
}
