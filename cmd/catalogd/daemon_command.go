package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Watch the inbox directory and process files as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			stk, err := ctx.openStack()
			if err != nil {
				return err
			}
			defer stk.Close()

			if err := stk.daemon.Start(cmd.Context()); err != nil {
				return fmt.Errorf("start daemon: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", stk.cfg.Paths.InboxDir)

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(signals)

			select {
			case sig := <-signals:
				fmt.Fprintf(out, "Received %s, shutting down\n", sig)
			case <-cmd.Context().Done():
			}

			stk.daemon.Stop()
			fmt.Fprintln(out, "Daemon stopped")
			return nil
		},
	}
}
