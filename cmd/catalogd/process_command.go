package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"catalogd/internal/pipeline"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var filePath string

	cmd := &cobra.Command{
		Use:   "process [text]",
		Short: "Run a raw product description through the pipeline",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawText, err := resolveInput(args, filePath)
			if err != nil {
				return err
			}

			stk, err := ctx.openStack()
			if err != nil {
				return err
			}
			defer stk.Close()

			runID, err := stk.manager.Submit(cmd.Context(), rawText)
			if err != nil {
				return fmt.Errorf("submit run: %w", err)
			}
			stk.manager.Wait()

			run, err := stk.manager.Status(runID)
			if err != nil {
				return fmt.Errorf("load run state: %w", err)
			}
			printRun(cmd, run)
			if run.Status == pipeline.StatusFailed {
				return fmt.Errorf("run %s failed: %s", run.ID, run.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Read the product description from a file")
	return cmd
}

func resolveInput(args []string, filePath string) (string, error) {
	filePath = strings.TrimSpace(filePath)
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("read input file: %w", err)
		}
		return string(data), nil
	}
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	return "", fmt.Errorf("provide product text as an argument or via --file")
}

func printRun(cmd *cobra.Command, run pipeline.RunState) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Run:      %s\n", run.ID)
	fmt.Fprintf(out, "Status:   %s\n", run.Status)
	if run.ProductType != "" {
		fmt.Fprintf(out, "Type:     %s\n", run.ProductType)
	}
	if run.MasterID != 0 {
		fmt.Fprintf(out, "Master:   #%d\n", run.MasterID)
	}
	if run.ReviewID != 0 {
		fmt.Fprintf(out, "Review:   #%d\n", run.ReviewID)
	}
	if run.ReviewReason != "" {
		fmt.Fprintf(out, "Reason:   %s\n", run.ReviewReason)
	}
	if run.Error != "" {
		fmt.Fprintf(out, "Error:    %s\n", run.Error)
	}

	if fields := run.Validated; fields != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderFields(*fields))
	} else if fields := run.Extracted; fields != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderFields(*fields))
	}

	if run.Match != nil && len(run.Match.Candidates) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Candidates:")
		fmt.Fprintln(out, renderCandidates(run.Match.Candidates))
	}

	if len(run.History) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "History:")
		for _, entry := range run.History {
			line := fmt.Sprintf("  %s  %s", entry.Timestamp.Local().Format("15:04:05"), entry.Stage)
			if entry.Note != "" {
				line += "  " + entry.Note
			}
			if entry.Err != "" {
				line += "  error: " + entry.Err
			}
			fmt.Fprintln(out, line)
		}
	}
}
