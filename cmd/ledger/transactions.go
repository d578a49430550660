package main

import (
	"fmt"

	"github.com/Veraticus/the-ledger-must-balance/internal/cli"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/service"
	"github.com/spf13/cobra"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Record and list ledger entries",
	}

	cmd.AddCommand(addTransactionCmd())
	cmd.AddCommand(listTransactionsCmd())

	return cmd
}

func addTransactionCmd() *cobra.Command {
	var (
		owner, amount, entryType, date string
		funding, category, status      string
	)

	cmd := &cobra.Command{
		Use:   "add <description>",
		Short: "Record a one-off entry",
		Long: `Record a single entry outside any series. Entries dated today or earlier
are confirmed unless --status says otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := parseAmount(amount)
			if err != nil {
				return err
			}
			due, err := parseDay(date, "date")
			if err != nil {
				return err
			}
			source, err := parseFunding(funding)
			if err != nil {
				return err
			}

			occ := &model.Occurrence{
				Owner:       owner,
				Description: args[0],
				Amount:      amt,
				Type:        model.EntryType(entryType),
				DueDate:     due,
				Status:      model.OccurrenceStatus(status),
				Funding:     source,
				CategoryID:  optional(category),
			}

			ctx := cmd.Context()
			svc, _, closeFn, err := initService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.CreateTransaction(ctx, occ); err != nil {
				return fmt.Errorf("failed to record transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recorded %s %s on %s (id %s)", //nolint:forbidigo // User-facing output
				occ.Description, cli.FormatAmount(occ.Amount, occ.Type), cli.FormatDate(occ.DueDate), occ.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner")
	cmd.Flags().StringVar(&amount, "amount", "", "amount")
	cmd.Flags().StringVar(&entryType, "type", string(model.EntryExpense), "entry type (income, expense, transfer, adjustment)")
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&funding, "funding", "", "account:<id> or card:<id>")
	cmd.Flags().StringVar(&category, "category", "", "category id")
	cmd.Flags().StringVar(&status, "status", "", "pending or confirmed (derived from the date when empty)")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("funding")

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	var (
		from, to, status, card string
		limit                  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ledger entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := service.OccurrenceFilter{
				Status:       model.OccurrenceStatus(status),
				CreditCardID: card,
				Limit:        limit,
			}
			if from != "" {
				d, err := parseDay(from, "from")
				if err != nil {
					return err
				}
				filter.From = &d
			}
			if to != "" {
				d, err := parseDay(to, "to")
				if err != nil {
					return err
				}
				filter.To = &d
			}

			ctx := cmd.Context()
			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			occs, err := store.ListOccurrences(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}
			if len(occs) == 0 {
				fmt.Println(cli.InfoStyle.Render("No transactions found.")) //nolint:forbidigo // User-facing output
				return nil
			}
			return printOccurrences(cmd, occs)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&status, "status", "", "pending or confirmed")
	cmd.Flags().StringVar(&card, "card", "", "only entries charged to this card")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of rows")

	return cmd
}

func printOccurrences(cmd *cobra.Command, occs []model.Occurrence) error {
	t, err := newTable(cmd.OutOrStdout(), "ID", "Due", "Description", "Amount", "Status", "Series", "Funding")
	if err != nil {
		return err
	}
	for i := range occs {
		o := &occs[i]
		if err := t.row(o.ID, cli.FormatDate(o.DueDate), o.Description, cli.FormatAmount(o.Amount, o.Type),
			cli.FormatOccurrenceStatus(o.Status), cli.FormatSeries(o), formatFunding(o.Funding)); err != nil {
			return err
		}
	}
	return t.flush()
}
