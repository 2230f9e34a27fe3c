package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	linksquared "github.com/linksquared/linksquared-go"
	"github.com/linksquared/linksquared-go/pkg/api/apitest"
	"github.com/linksquared/linksquared-go/pkg/appinfo"
	"github.com/linksquared/linksquared-go/pkg/deeplink"
	"github.com/linksquared/linksquared-go/pkg/events"
	"github.com/linksquared/linksquared-go/pkg/kvstore"
	"github.com/linksquared/linksquared-go/pkg/sandbox"
)

// simulatorMetadata describes the app when no metadata file is configured.
var simulatorMetadata = appinfo.Static{
	Version:    "1.0.0",
	Build:      "1",
	Bundle:     "io.linksquared.simulator",
	DeviceName: "Simulator",
	UserAgent:  "linksquared-cli",
	URISchemes: []string{"linksquared-sim"},
}

type simulateOptions struct {
	*RootOptions
	Sandbox   bool
	Addr      string
	Ephemeral bool
	Link      string
	Events    []string
}

type simulation struct {
	Authenticated bool           `json:"authenticated"`
	Link          *string        `json:"link,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
	Logged        []events.Kind  `json:"logged"`
	Delivered     []events.Kind  `json:"delivered,omitempty"`
}

func newSimulateCommand(root *RootOptions) *cobra.Command {
	opts := &simulateOptions{RootOptions: root}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run one app session against the backend",
		Long: `Simulate an app session: launch, foreground, open a link, log events and
go to the background.

With --sandbox the session runs against an in-process backend and reports
the events it received.

Example:
  linksquared simulate --sandbox --link https://sqd.link/promo --event view
  linksquared simulate --env-file .env --metadata app.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSimulate(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Sandbox, "sandbox", false, "run against an in-process backend")
	cmd.Flags().StringVar(&opts.Addr, "addr", "127.0.0.1:0", "sandbox listen address")
	cmd.Flags().BoolVar(&opts.Ephemeral, "ephemeral", false, "keep SDK state in memory")
	cmd.Flags().StringVar(&opts.Link, "link", "", "link the app is opened with")
	cmd.Flags().StringSliceVar(&opts.Events, "event", nil, "analytics events to log (view, open, ...)")

	return cmd
}

func runSimulate(cmd *cobra.Command, opts *simulateOptions) error {
	kinds := make([]events.Kind, 0, len(opts.Events))
	for _, raw := range opts.Events {
		kind, err := events.ParseKind(raw)
		if err != nil {
			return wrapExit(ExitCommandError, "parse events", err)
		}
		kinds = append(kinds, kind)
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	log := opts.logger(cmd)
	clientOpts := opts.clientOptions(cmd, cfg)
	if opts.Ephemeral || opts.Sandbox {
		store := kvstore.NewMemory()
		defer store.Close()
		clientOpts = append(clientOpts, linksquared.WithStore(store))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var result simulation
	if !opts.Sandbox {
		result, err = simulate(ctx, cfg, opts.Link, kinds, clientOpts...)
		if err != nil {
			return err
		}
		return opts.printer(cmd).print(result, result.write)
	}

	var backendOpts []apitest.Option
	if opts.Link != "" {
		backendOpts = append(backendOpts, apitest.WithLink(opts.Link, map[string]any{"source": "simulate"}))
	}
	srv := sandbox.New(apitest.New(backendOpts...), sandbox.WithAddr(opts.Addr), sandbox.WithLogger(log))

	g, gctx := errgroup.WithContext(ctx)
	srvCtx, stopServer := context.WithCancel(gctx)
	defer stopServer()

	g.Go(func() error {
		if err := srv.Run(srvCtx); err != nil {
			return wrapExit(ExitFailure, "sandbox", err)
		}
		return nil
	})
	g.Go(func() error {
		defer stopServer()
		select {
		case <-srv.Ready():
		case <-gctx.Done():
			return gctx.Err()
		}

		cfg.BaseURL = srv.URL()
		cfg.APIKey = apitest.DefaultAPIKey
		res, err := simulate(gctx, cfg, opts.Link, kinds, clientOpts...)
		if err != nil {
			return err
		}
		res.Delivered = srv.Backend().EventKinds()
		result = res
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	return opts.printer(cmd).print(result, result.write)
}

func simulate(ctx context.Context, cfg linksquared.Config, link string, kinds []events.Kind, opts ...linksquared.Option) (simulation, error) {
	client, err := connect(ctx, cfg, opts...)
	if err != nil {
		return simulation{}, err
	}
	defer client.Close()

	res := simulation{Authenticated: client.Authenticated(), Logged: kinds}
	if err := client.Foregrounded(ctx); err != nil {
		return res, wrapExit(ExitFailure, "foreground", err)
	}
	if err := client.Sync(ctx); err != nil {
		return res, wrapExit(ExitFailure, "foreground", err)
	}

	details, err := client.HandleIntent(ctx, deeplink.NewIntent(link))
	if err != nil {
		return res, wrapExit(ExitFailure, "resolve link", err)
	}
	res.Link, res.Data = details.Link, details.Data

	for _, kind := range kinds {
		if err := client.LogEvent(ctx, kind); err != nil {
			return res, wrapExit(ExitFailure, "log event", err)
		}
	}
	if err := client.Flush(ctx); err != nil {
		return res, wrapExit(ExitFailure, "flush events", err)
	}
	if err := client.Backgrounded(ctx); err != nil {
		return res, wrapExit(ExitFailure, "background", err)
	}
	return res, nil
}

func (s simulation) write(w io.Writer) {
	fmt.Fprintf(w, "authenticated: %t\n", s.Authenticated)
	if s.Link != nil {
		fmt.Fprintf(w, "link: %s\n", *s.Link)
		for k, v := range s.Data {
			fmt.Fprintf(w, "  %s = %v\n", k, v)
		}
	} else {
		fmt.Fprintln(w, "link: none")
	}
	fmt.Fprintf(w, "logged: %v\n", s.Logged)
	if s.Delivered != nil {
		fmt.Fprintf(w, "delivered: %v\n", s.Delivered)
	}
}
