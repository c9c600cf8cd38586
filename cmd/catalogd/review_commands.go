package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"catalogd/internal/review"
	"catalogd/internal/store"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Inspect and resolve the review queue",
	}

	reviewCmd.AddCommand(newReviewListCommand(ctx))
	reviewCmd.AddCommand(newReviewShowCommand(ctx))
	reviewCmd.AddCommand(newReviewDecideCommand(ctx, true))
	reviewCmd.AddCommand(newReviewDecideCommand(ctx, false))

	return reviewCmd
}

func newReviewListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string
	var limit int
	var ascending bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List review items ordered by priority",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := parseReviewStatus(statusFlag)
			if err != nil {
				return err
			}

			stk, err := ctx.openStack()
			if err != nil {
				return err
			}
			defer stk.Close()

			items, err := stk.queue.List(cmd.Context(), status, limit, ascending)
			if err != nil {
				return fmt.Errorf("list review items: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "Review queue is empty")
				return nil
			}

			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{
					strconv.FormatInt(item.ID, 10),
					string(item.Status),
					strconv.Itoa(item.Priority),
					orDash(truncate(item.Fields.ProductName, 24)),
					reasonSummary(item.Reasons),
					formatTimestamp(item.CreatedAt),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Status", "Priority", "Product", "Reasons", "Created"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "pending", "Filter by status (pending, approved, rejected, all)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of items to show")
	cmd.Flags().BoolVar(&ascending, "asc", false, "Order by priority ascending instead of descending")
	return cmd
}

func newReviewShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a review item in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			stk, err := ctx.openStack()
			if err != nil {
				return err
			}
			defer stk.Close()

			item, err := stk.queue.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			printReviewItem(cmd, item)
			return nil
		},
	}
}

func newReviewDecideCommand(ctx *commandContext, approve bool) *cobra.Command {
	use := "reject <id>"
	short := "Reject a pending review item"
	if approve {
		use = "approve <id>"
		short = "Approve a pending review item and persist its fields"
	}

	var decidedBy string
	var feedback string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			stk, err := ctx.openStack()
			if err != nil {
				return err
			}
			defer stk.Close()

			outcome, err := stk.manager.SubmitReviewDecision(cmd.Context(), id, approve, decidedBy, feedback)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !outcome.Approved {
				fmt.Fprintf(out, "Review #%d rejected\n", outcome.ReviewID)
				return nil
			}
			if outcome.Created {
				fmt.Fprintf(out, "Review #%d approved; created master record #%d\n", outcome.ReviewID, outcome.MasterID)
			} else {
				fmt.Fprintf(out, "Review #%d approved; updated master record #%d\n", outcome.ReviewID, outcome.MasterID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&decidedBy, "by", "", "Reviewer identifier recorded with the decision")
	cmd.Flags().StringVar(&feedback, "feedback", "", "Free-form note recorded with the decision")
	return cmd
}

func printReviewItem(cmd *cobra.Command, item *review.Item) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Review:   #%d\n", item.ID)
	fmt.Fprintf(out, "Run:      %s\n", item.RunID)
	fmt.Fprintf(out, "Status:   %s\n", item.Status)
	fmt.Fprintf(out, "Priority: %d\n", item.Priority)
	if item.TargetID != 0 {
		fmt.Fprintf(out, "Target:   #%d\n", item.TargetID)
	}
	if item.DecidedBy != "" {
		fmt.Fprintf(out, "Decided:  %s\n", item.DecidedBy)
	}
	if item.Feedback != "" {
		fmt.Fprintf(out, "Feedback: %s\n", item.Feedback)
	}
	fmt.Fprintf(out, "Created:  %s\n", formatTimestamp(item.CreatedAt))

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Reasons:")
	for _, reason := range item.Reasons {
		line := fmt.Sprintf("  [%s] %s", reason.Type, reason.Message)
		if reason.Field != "" {
			line += fmt.Sprintf(" (field: %s)", reason.Field)
		}
		fmt.Fprintln(out, line)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderFields(item.Fields))

	if len(item.Conflicts) > 0 {
		rows := make([][]string, 0, len(item.Conflicts))
		for _, conflict := range item.Conflicts {
			rows = append(rows, []string{
				conflict.Field,
				orDash(conflict.ExistingValue),
				orDash(conflict.NewValue),
			})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Conflicts:")
		fmt.Fprintln(out, renderTable(
			[]string{"Field", "Existing", "Incoming"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft},
		))
	}

	if len(item.Candidates) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Candidates:")
		fmt.Fprintln(out, renderCandidates(item.Candidates))
	}
}

func reasonSummary(reasons []review.Reason) string {
	types := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		types = append(types, reason.Type)
	}
	return strings.Join(types, ", ")
}

func parseReviewStatus(value string) (store.ReviewStatus, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "pending":
		return store.ReviewPending, nil
	case "approved":
		return store.ReviewApproved, nil
	case "rejected":
		return store.ReviewRejected, nil
	case "all":
		return "", nil
	default:
		return "", fmt.Errorf("unknown review status %q (expected pending, approved, rejected, or all)", value)
	}
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", value)
	}
	return id, nil
}
