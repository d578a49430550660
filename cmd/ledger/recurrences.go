package main

import (
	"fmt"
	"os"

	"github.com/Veraticus/the-ledger-must-balance/internal/cli"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/spf13/cobra"
)

func recurrencesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recurrences",
		Aliases: []string{"rec"},
		Short:   "Manage recurring entries",
		Long: `Recurring entries are templates (rent, salary, subscriptions) that the
ledger expands into dated occurrences up to a horizon of months ahead.`,
	}

	cmd.AddCommand(addRecurrenceCmd())
	cmd.AddCommand(listRecurrencesCmd())
	cmd.AddCommand(processRecurrencesCmd())

	return cmd
}

func addRecurrenceCmd() *cobra.Command {
	var (
		id, owner, amount, entryType string
		frequency, start, end        string
		funding, category            string
	)

	cmd := &cobra.Command{
		Use:   "add <description>",
		Short: "Add a recurring entry and generate its first occurrences",
		Example: `  # Monthly rent paid from checking
  ledger recurrences add Rent --amount 1500 --frequency monthly --start 2024-01-15 --funding account:checking

  # Salary landing on the last day of each month
  ledger recurrences add Salary --type income --amount 5000 --start 2024-01-31 --funding account:checking`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := parseAmount(amount)
			if err != nil {
				return err
			}
			freq, err := model.ParseFrequency(frequency)
			if err != nil {
				return err
			}
			startDate, err := parseDay(start, "start")
			if err != nil {
				return err
			}
			source, err := parseFunding(funding)
			if err != nil {
				return err
			}

			rec := &model.Recurrence{
				ID:          id,
				Owner:       owner,
				Description: args[0],
				Amount:      amt,
				Type:        model.EntryType(entryType),
				Frequency:   freq,
				StartDate:   startDate,
				Funding:     source,
				CategoryID:  optional(category),
				IsActive:    true,
			}
			if end != "" {
				endDate, err := parseDay(end, "end")
				if err != nil {
					return err
				}
				rec.EndDate = &endDate
			}

			ctx := cmd.Context()
			svc, _, closeFn, err := initService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := svc.CreateRecurrence(ctx, rec)
			if err != nil {
				return fmt.Errorf("failed to create recurrence: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recurrence %s created with %d occurrences, next due %s", //nolint:forbidigo // User-facing output
				result.RecurrenceID, result.Created, cli.FormatDate(result.NextOccurrence))))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "recurrence id (generated when empty)")
	cmd.Flags().StringVar(&owner, "owner", "", "owner")
	cmd.Flags().StringVar(&amount, "amount", "", "amount per occurrence")
	cmd.Flags().StringVar(&entryType, "type", string(model.EntryExpense), "entry type (income, expense, transfer, adjustment)")
	cmd.Flags().StringVar(&frequency, "frequency", string(model.FrequencyMonthly), "frequency (daily, weekly, biweekly, monthly, yearly)")
	cmd.Flags().StringVar(&start, "start", "", "first due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "last possible due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&funding, "funding", "", "account:<id> or card:<id>")
	cmd.Flags().StringVar(&category, "category", "", "category id")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("funding")

	return cmd
}

func listRecurrencesCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recurring entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			recs, err := store.ListRecurrences(ctx, !all)
			if err != nil {
				return fmt.Errorf("failed to list recurrences: %w", err)
			}
			if len(recs) == 0 {
				fmt.Println(cli.InfoStyle.Render("No recurrences found. Use 'ledger recurrences add' to create one.")) //nolint:forbidigo // User-facing output
				return nil
			}

			t, err := newTable(cmd.OutOrStdout(), "ID", "Description", "Amount", "Frequency", "Next", "Funding", "Active")
			if err != nil {
				return err
			}
			for _, r := range recs {
				active := cli.SuccessIcon
				if !r.IsActive {
					active = cli.SubtleStyle.Render(cli.ErrorIcon)
				}
				if err := t.row(r.ID, r.Description, cli.FormatAmount(r.Amount, r.Type), string(r.Frequency),
					cli.FormatDate(r.NextOccurrence), formatFunding(r.Funding), active); err != nil {
					return err
				}
			}
			return t.flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include inactive recurrences")

	return cmd
}

func processRecurrencesCmd() *cobra.Command {
	var (
		id      string
		horizon int
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Generate occurrences up to the horizon",
		Long: `Expand recurring entries into occurrences due up to today plus the horizon.

Only dates after everything already generated are created, so running this
repeatedly is safe.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, _, closeFn, err := initService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if !cmd.Flags().Changed("horizon") {
				horizon = svc.HorizonMonths()
			}

			if id != "" {
				result, err := svc.ProcessRecurrence(ctx, id, horizon)
				if err != nil {
					return fmt.Errorf("failed to process recurrence: %w", err)
				}
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s: %d new occurrences, next due %s", //nolint:forbidigo // User-facing output
					result.RecurrenceID, result.Created, cli.FormatDate(result.NextOccurrence))))
				return nil
			}

			var progress *cli.Progress
			results, err := svc.ProcessAll(ctx, horizon, func(done, total int) {
				if progress == nil {
					progress = cli.NewProgress(os.Stderr, total, "Processing recurrences...")
				}
				progress.Set(done, total)
			})

			created := 0
			for _, r := range results {
				created += r.Created
			}
			fmt.Println(cli.FormatInfo(fmt.Sprintf("%d recurrences processed, %d occurrences created", len(results), created))) //nolint:forbidigo // User-facing output

			if err != nil {
				fmt.Println(cli.FormatWarning("Some recurrences could not be processed")) //nolint:forbidigo // User-facing output
				return fmt.Errorf("some recurrences failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "process a single recurrence")
	cmd.Flags().IntVar(&horizon, "horizon", 0, "months ahead of today to generate (default from config)")

	return cmd
}

func formatFunding(f model.FundingSource) string {
	if f.IsCreditCard() {
		return cli.CardIcon + " " + f.ID
	}
	return f.ID
}
