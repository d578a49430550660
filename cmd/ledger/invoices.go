package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/the-ledger-must-balance/internal/cli"
	"github.com/spf13/cobra"
)

func invoicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "Inspect and settle credit card invoices",
	}

	cmd.AddCommand(listInvoicesCmd())
	cmd.AddCommand(showInvoiceCmd())
	cmd.AddCommand(payInvoiceCmd())
	cmd.AddCommand(assignInvoicesCmd())

	return cmd
}

func listInvoicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <card-id>",
		Short: "List the invoices of a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, store, closeFn, err := initService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			invoices, err := store.ListInvoices(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to list invoices: %w", err)
			}
			if len(invoices) == 0 {
				fmt.Println(cli.FormatInfo("No invoices for card " + args[0] + ".")) //nolint:forbidigo // User-facing output
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTitle("Invoices for card "+args[0]))

			t, err := newTable(cmd.OutOrStdout(), "ID", "Month", "Closes", "Due", "Total", "Status")
			if err != nil {
				return err
			}
			for _, inv := range invoices {
				total, err := svc.InvoiceTotal(ctx, inv.ID)
				if err != nil {
					return err
				}
				if err := t.row(inv.ID, inv.ReferenceMonth.Format("2006-01"), cli.FormatDate(inv.ClosingDate),
					cli.FormatDate(inv.DueDate), total.StringFixed(2), cli.FormatInvoiceStatus(inv.Status)); err != nil {
					return err
				}
			}
			return t.flush()
		},
	}
}

func showInvoiceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <card-id> <YYYY-MM>",
		Short: "Show one invoice with its charges",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := parseMonth(args[1])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, _, closeFn, err := initService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			summary, err := svc.Invoice(ctx, args[0], month)
			if err != nil {
				return fmt.Errorf("failed to load invoice: %w", err)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Period:  %s to %s\n", cli.FormatDate(summary.PeriodStart), cli.FormatDate(summary.PeriodEnd))
			fmt.Fprintf(&b, "Closes:  %s\n", cli.FormatDate(summary.Invoice.ClosingDate))
			fmt.Fprintf(&b, "Due:     %s %s\n", cli.CalendarIcon, cli.FormatDate(summary.Invoice.DueDate))
			fmt.Fprintf(&b, "Status:  %s\n", cli.FormatInvoiceStatus(summary.Invoice.Status))
			fmt.Fprintf(&b, "Total:   %s", cli.BoldStyle.Render(summary.Total.StringFixed(2)))

			title := fmt.Sprintf("%s %s %s", cli.CardIcon, args[0], summary.Invoice.ReferenceMonth.Format("January 2006"))
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(title, b.String()))

			if len(summary.Occurrences) == 0 {
				return nil
			}
			return printOccurrences(cmd, summary.Occurrences)
		},
	}
}

func payInvoiceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pay <invoice-id>",
		Short: "Mark an invoice as paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, _, closeFn, err := initService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.PayInvoice(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to pay invoice: %w", err)
			}
			fmt.Println(cli.FormatSuccess("Invoice " + args[0] + " paid")) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func assignInvoicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <card-id>",
		Short: "Attach unassigned card charges to their invoices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, _, closeFn, err := initService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := svc.AssignOrphans(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to assign charges: %w", err)
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("%d charges assigned", n))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}
