package main

import (
	"fmt"

	"github.com/Veraticus/the-ledger-must-balance/internal/cli"
	"github.com/Veraticus/the-ledger-must-balance/internal/mutation"
	"github.com/spf13/cobra"
)

func occurrencesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "occurrences",
		Aliases: []string{"occ"},
		Short:   "Confirm, edit or delete individual occurrences",
		Long: `Edit or delete an occurrence alone (--scope this_only) or together with
every later pending occurrence of its series (--scope this_and_future).
Confirmed occurrences are history and never change as part of a bulk edit.`,
	}

	cmd.AddCommand(confirmOccurrenceCmd())
	cmd.AddCommand(editOccurrenceCmd())
	cmd.AddCommand(deleteOccurrenceCmd())

	return cmd
}

func confirmOccurrenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <id>",
		Short: "Mark an occurrence as settled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, _, closeFn, err := initService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.ConfirmOccurrence(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to confirm occurrence: %w", err)
			}
			fmt.Println(cli.FormatSuccess("Occurrence " + args[0] + " confirmed")) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func editOccurrenceCmd() *cobra.Command {
	var amount, description, category, due, scope string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an occurrence",
		Example: `  # Rent goes up from this month on
  ledger occurrences edit 3f2a... --amount 1600 --scope this_and_future

  # Move a single payment
  ledger occurrences edit 3f2a... --due 2024-03-20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := mutation.ParseScope(scope)
			if err != nil {
				return err
			}

			var changes mutation.Changes
			if cmd.Flags().Changed("amount") {
				amt, err := parseAmount(amount)
				if err != nil {
					return err
				}
				changes.Amount = &amt
			}
			if cmd.Flags().Changed("description") {
				changes.Description = &description
			}
			if cmd.Flags().Changed("category") {
				changes.CategoryID = &category
			}
			if cmd.Flags().Changed("due") {
				d, err := parseDay(due, "due")
				if err != nil {
					return err
				}
				changes.DueDate = &d
			}

			ctx := cmd.Context()
			svc, _, closeFn, err := initService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			decision, err := svc.EditOccurrence(ctx, args[0], changes, s)
			if err != nil {
				return fmt.Errorf("failed to edit occurrence: %w", err)
			}
			fmt.Println(cli.FormatSuccess("Edited: " + decision.String())) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "new amount")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&category, "category", "", "new category id")
	cmd.Flags().StringVar(&due, "due", "", "new due date (this_only)")
	cmd.Flags().StringVar(&scope, "scope", string(mutation.ScopeThisOnly), "this_only or this_and_future")

	return cmd
}

func deleteOccurrenceCmd() *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an occurrence",
		Long: `Delete an occurrence. With --scope this_and_future a recurrence is ended
the day before the occurrence and an installment plan drops its remaining
pending installments.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := mutation.ParseScope(scope)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, _, closeFn, err := initService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			decision, err := svc.DeleteOccurrence(ctx, args[0], s)
			if err != nil {
				return fmt.Errorf("failed to delete occurrence: %w", err)
			}
			fmt.Println(cli.FormatSuccess("Deleted: " + decision.String())) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringVar(&scope, "scope", string(mutation.ScopeThisOnly), "this_only or this_and_future")

	return cmd
}
