package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			stk, err := ctx.openStack()
			if err != nil {
				return err
			}
			defer stk.Close()

			if err := stk.notifier.TestNotification(cmd.Context()); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			out := cmd.OutOrStdout()
			if stk.cfg.Notifications.NtfyTopic == "" {
				fmt.Fprintln(out, "No ntfy topic configured; notification skipped")
				return nil
			}
			fmt.Fprintln(out, "Test notification sent")
			return nil
		},
	}
}
