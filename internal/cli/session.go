package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	linksquared "github.com/linksquared/linksquared-go"
)

// connect creates a client and waits for its backend session.
func connect(ctx context.Context, cfg linksquared.Config, opts ...linksquared.Option) (*linksquared.Client, error) {
	client, err := linksquared.New(cfg, opts...)
	if err != nil {
		code := ExitCommandError
		if !errors.Is(err, linksquared.ErrInvalidConfig) && !errors.Is(err, linksquared.ErrMissingMetadata) {
			code = ExitFailure
		}
		return nil, wrapExit(code, "create client", err)
	}
	if err := client.Configure(ctx); err != nil {
		_ = client.Close()
		return nil, wrapExit(ExitFailure, "configure", err)
	}
	if err := client.Ready(ctx); err != nil {
		_ = client.Close()
		return nil, wrapExit(ExitFailure, "authenticate", err)
	}
	return client, nil
}

// clientOptions are the SDK options shared by the commands. Without a
// metadata file the client describes itself as the simulator app.
func (o *RootOptions) clientOptions(cmd *cobra.Command, cfg linksquared.Config) []linksquared.Option {
	opts := []linksquared.Option{linksquared.WithLogger(o.logger(cmd))}
	if cfg.MetadataFile == "" {
		opts = append(opts, linksquared.WithMetadata(simulatorMetadata))
	}
	return opts
}
