package main

import (
	"fmt"

	"github.com/Veraticus/the-ledger-must-balance/internal/cli"
	"github.com/Veraticus/the-ledger-must-balance/internal/ledger"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/spf13/cobra"
)

func installmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "installments",
		Short: "Manage installment purchases",
	}

	cmd.AddCommand(addInstallmentsCmd())

	return cmd
}

func addInstallmentsCmd() *cobra.Command {
	var (
		id, owner, amount, mode string
		frequency, first        string
		funding, category       string
		starting, total         int
	)

	cmd := &cobra.Command{
		Use:   "add <description>",
		Short: "Split a purchase into installments",
		Example: `  # 100.00 in 3 monthly installments on a card: 33.33, 33.33, 33.34
  ledger installments add Laptop --amount 100 --installments 3 --first 2024-03-06 --funding card:visa

  # Already paying installment 4 of 10 at 50.00 each
  ledger installments add Sofa --amount 50 --mode per_installment --installments 10 --starting 4 --first 2024-05-10 --funding card:visa`,
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
			firstDate, err := parseDay(first, "first")
			if err != nil {
				return err
			}
			source, err := parseFunding(funding)
			if err != nil {
				return err
			}

			purchase := ledger.InstallmentPurchase{
				Owner:       owner,
				Description: args[0],
				CategoryID:  optional(category),
				Funding:     source,
			}
			purchase.GroupID = id
			purchase.Amount = amt
			purchase.AmountMode = model.AmountMode(mode)
			purchase.Frequency = freq
			purchase.FirstDate = firstDate
			purchase.StartingInstallment = starting
			purchase.TotalInstallments = total

			ctx := cmd.Context()
			svc, _, closeFn, err := initService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			group, occs, err := svc.CreateInstallmentPurchase(ctx, purchase)
			if err != nil {
				return fmt.Errorf("failed to create installments: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Installment group %s created: %d x %s, total %s", //nolint:forbidigo // User-facing output
				group.ID, len(occs), group.InstallmentAmount.StringFixed(2), group.TotalAmount.StringFixed(2))))
			return printOccurrences(cmd, occs)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "group id (generated when empty)")
	cmd.Flags().StringVar(&owner, "owner", "", "owner")
	cmd.Flags().StringVar(&amount, "amount", "", "purchase total or per-installment amount, see --mode")
	cmd.Flags().StringVar(&mode, "mode", string(model.AmountTotal), "amount mode (total, per_installment)")
	cmd.Flags().StringVar(&frequency, "frequency", string(model.FrequencyMonthly), "installment frequency")
	cmd.Flags().StringVar(&first, "first", "", "due date of the first remaining installment (YYYY-MM-DD)")
	cmd.Flags().StringVar(&funding, "funding", "", "account:<id> or card:<id>")
	cmd.Flags().StringVar(&category, "category", "", "category id")
	cmd.Flags().IntVar(&starting, "starting", 1, "number of the first remaining installment")
	cmd.Flags().IntVar(&total, "installments", 0, "total number of installments")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("first")
	_ = cmd.MarkFlagRequired("funding")
	_ = cmd.MarkFlagRequired("installments")

	return cmd
}
