package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show catalog and review queue overview",
		RunE: func(cmd *cobra.Command, args []string) error {
			stk, err := ctx.openStack()
			if err != nil {
				return err
			}
			defer stk.Close()

			masters, err := stk.store.MasterCount(cmd.Context())
			if err != nil {
				return fmt.Errorf("count master records: %w", err)
			}
			pending, err := stk.queue.PendingCount(cmd.Context())
			if err != nil {
				return fmt.Errorf("count pending reviews: %w", err)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			pendingKind := statusOK
			if pending > 0 {
				pendingKind = statusWarn
			}

			fmt.Fprintln(out, renderStatusLine("Database", statusInfo, stk.store.Path(), colorize))
			fmt.Fprintln(out, renderStatusLine("Master records", statusInfo, strconv.FormatInt(masters, 10), colorize))
			fmt.Fprintln(out, renderStatusLine("Pending reviews", pendingKind, strconv.FormatInt(pending, 10), colorize))
			if pending > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Run 'catalogd review list' to inspect the queue.")
			}
			return nil
		},
	}
}
