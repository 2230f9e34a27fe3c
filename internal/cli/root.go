package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	linksquared "github.com/linksquared/linksquared-go"
	"github.com/linksquared/linksquared-go/pkg/config"
	"github.com/linksquared/linksquared-go/pkg/logger"
)

const (
	formatText = "text"
	formatJSON = "json"
)

var validFormats = []string{formatText, formatJSON}

// RootOptions holds the global flags.
type RootOptions struct {
	EnvFiles     []string
	MetadataFile string
	Format       string
	Verbose      bool
}

// NewRootCommand builds the linksquared command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "linksquared",
		Short: "Linksquared SDK command line",
		Long: `Drive the Linksquared SDK from the command line.

Settings come from LINKSQUARED_* environment variables and optional .env
files. The app description is read from the YAML file given by --metadata
or LINKSQUARED_METADATA_FILE.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return wrapExit(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, validFormats), nil)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringSliceVar(&opts.EnvFiles, "env-file", nil, "read settings from .env files")
	cmd.PersistentFlags().StringVar(&opts.MetadataFile, "metadata", "", "YAML file describing the app and device")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", formatText, "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log SDK activity to stderr")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newSimulateCommand(opts))
	cmd.AddCommand(newGenerateLinkCommand(opts))
	cmd.AddCommand(newNotificationsCommand(opts))

	return cmd
}

// loadConfig reads the SDK config without validating it, so commands can
// fill in what the environment left out.
func (o *RootOptions) loadConfig() (linksquared.Config, error) {
	var cfg linksquared.Config
	if err := config.Load(&cfg, config.WithEnvFiles(o.EnvFiles...)); err != nil {
		return cfg, wrapExit(ExitCommandError, "load config", err)
	}
	if o.MetadataFile != "" {
		cfg.MetadataFile = o.MetadataFile
	}
	return cfg, nil
}

func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	if !o.Verbose {
		return logger.Discard()
	}
	return logger.New(
		logger.WithLevel(slog.LevelDebug),
		logger.WithOutput(cmd.ErrOrStderr()),
	)
}

func (o *RootOptions) printer(cmd *cobra.Command) printer {
	return printer{format: o.Format, w: cmd.OutOrStdout()}
}
