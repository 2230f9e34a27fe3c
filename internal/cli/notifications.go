package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/linksquared/linksquared-go/pkg/notifications"
)

type notificationsOptions struct {
	*RootOptions
	Page     int
	MarkRead []int
}

type notificationList struct {
	Page          int                          `json:"page"`
	Unread        int                          `json:"unread"`
	Notifications []notifications.Notification `json:"notifications"`
}

func newNotificationsCommand(root *RootOptions) *cobra.Command {
	opts := &notificationsOptions{RootOptions: root}

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "List the device's in-app notifications",
		Long: `List the in-app notifications addressed to this device, optionally
marking some as read first.

Example:
  linksquared notifications --page 2
  linksquared notifications --mark-read 12,13`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runNotifications(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Page, "page", 1, "page to list")
	cmd.Flags().IntSliceVar(&opts.MarkRead, "mark-read", nil, "notification ids to mark as read")

	return cmd
}

func runNotifications(cmd *cobra.Command, opts *notificationsOptions) error {
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

	for _, id := range opts.MarkRead {
		if err := client.MarkNotificationRead(ctx, id); err != nil {
			return wrapExit(ExitFailure, fmt.Sprintf("mark notification %d read", id), err)
		}
	}

	out := notificationList{Page: max(opts.Page, 1)}
	if out.Notifications, err = client.Notifications(ctx, out.Page); err != nil {
		return wrapExit(ExitFailure, "list notifications", err)
	}
	if out.Unread, err = client.UnreadNotificationCount(ctx); err != nil {
		return wrapExit(ExitFailure, "count unread notifications", err)
	}

	return opts.printer(cmd).print(out, func(w io.Writer) {
		fmt.Fprintf(w, "page %d, %d unread\n", out.Page, out.Unread)
		for _, n := range out.Notifications {
			mark := " "
			if !n.Read {
				mark = "*"
			}
			fmt.Fprintf(w, "%s %4d  %s\n", mark, n.ID, n.Title)
		}
	})
}
