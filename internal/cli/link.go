package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/linksquared/linksquared-go/pkg/api"
)

type generateLinkOptions struct {
	*RootOptions
	Title    string
	Subtitle string
	ImageURL string
	Data     string
	Tags     []string
	QRFile   string
	QRSize   int
}

type generatedLink struct {
	Link   string `json:"link"`
	QRFile string `json:"qr_file,omitempty"`
}

func newGenerateLinkCommand(root *RootOptions) *cobra.Command {
	opts := &generateLinkOptions{RootOptions: root}

	cmd := &cobra.Command{
		Use:   "generate-link",
		Short: "Create a short link",
		Long: `Create a Linksquared short link carrying a payload.

Example:
  linksquared generate-link --title "Spring sale" --data '{"sku":"A1"}' --tag spring
  linksquared generate-link --title "Spring sale" --qr sale.png --qr-size 512`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerateLink(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "link preview title")
	cmd.Flags().StringVar(&opts.Subtitle, "subtitle", "", "link preview subtitle")
	cmd.Flags().StringVar(&opts.ImageURL, "image-url", "", "link preview image")
	cmd.Flags().StringVar(&opts.Data, "data", "", "payload as a JSON object")
	cmd.Flags().StringSliceVar(&opts.Tags, "tag", nil, "tags for the link")
	cmd.Flags().StringVar(&opts.QRFile, "qr", "", "also write a PNG QR code to this file")
	cmd.Flags().IntVar(&opts.QRSize, "qr-size", 256, "QR code size in pixels")

	return cmd
}

func (o *generateLinkOptions) params() (api.LinkParams, error) {
	params := api.LinkParams{
		Title:    o.Title,
		Subtitle: o.Subtitle,
		ImageURL: o.ImageURL,
		Tags:     o.Tags,
	}
	if o.Data != "" {
		if err := json.Unmarshal([]byte(o.Data), &params.Data); err != nil {
			return params, wrapExit(ExitCommandError, "--data must be a JSON object", err)
		}
	}
	return params, nil
}

func runGenerateLink(cmd *cobra.Command, opts *generateLinkOptions) error {
	params, err := opts.params()
	if err != nil {
		return err
	}
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := connect(ctx, cfg, opts.clientOptions(cmd, cfg)...)
	if err != nil {
		return err
	}
	defer client.Close()

	var out generatedLink
	if opts.QRFile == "" {
		out.Link, err = client.GenerateLink(ctx, params)
		if err != nil {
			return wrapExit(ExitFailure, "generate link", err)
		}
	} else {
		var png []byte
		out.Link, png, err = client.GenerateLinkQRCode(ctx, params, opts.QRSize)
		if err != nil {
			return wrapExit(ExitFailure, "generate link", err)
		}
		if err := os.WriteFile(opts.QRFile, png, 0o644); err != nil {
			return wrapExit(ExitFailure, "write QR code", err)
		}
		out.QRFile = opts.QRFile
	}

	return opts.printer(cmd).print(out, func(w io.Writer) {
		fmt.Fprintln(w, out.Link)
		if out.QRFile != "" {
			fmt.Fprintf(w, "QR code written to %s\n", out.QRFile)
		}
	})
}
