package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newProductsCommand(ctx *commandContext) *cobra.Command {
	productsCmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the master catalog",
	}

	productsCmd.AddCommand(newProductsListCommand(ctx))
	productsCmd.AddCommand(newProductsShowCommand(ctx))

	return productsCmd
}

func newProductsListCommand(ctx *commandContext) *cobra.Command {
	var productType string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List master records, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			stk, err := ctx.openStack()
			if err != nil {
				return err
			}
			defer stk.Close()

			records, err := stk.store.ListMasters(cmd.Context(), strings.TrimSpace(productType), limit)
			if err != nil {
				return fmt.Errorf("list master records: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No master records")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, record := range records {
				rows = append(rows, []string{
					strconv.FormatInt(record.ID, 10),
					orDash(record.ProductType),
					orDash(truncate(record.ProductName, 28)),
					orDash(truncate(record.Manufacturer, 24)),
					orDash(record.ApprovalNumber),
					formatTimestamp(record.UpdatedAt),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Type", "Product", "Manufacturer", "Approval", "Updated"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&productType, "type", "", "Filter by product type")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of records to show")
	return cmd
}

func newProductsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a master record in full",
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

			record, err := stk.store.MasterByID(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("load master record: %w", err)
			}
			if record == nil {
				return fmt.Errorf("master record %d not found", id)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Master:  #%d\n", record.ID)
			fmt.Fprintf(out, "Created: %s\n", formatTimestamp(record.CreatedAt))
			fmt.Fprintf(out, "Updated: %s\n", formatTimestamp(record.UpdatedAt))
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderFields(record.Fields))
			return nil
		},
	}
}
