package main

import (
	"fmt"
	"strconv"

	"github.com/Veraticus/the-ledger-must-balance/internal/cli"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func cardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "Manage credit cards",
		Long: `Credit cards carry the billing parameters used to assign purchases to
monthly invoices: the closing day and the due day.`,
	}

	cmd.AddCommand(addCardCmd())
	cmd.AddCommand(listCardsCmd())

	return cmd
}

func addCardCmd() *cobra.Command {
	var (
		id, owner  string
		closingDay int
		dueDay     int
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a credit card",
		Example: `  # Card closing on the 5th, due on the 15th
  ledger cards add "Visa Gold" --id visa --closing-day 5 --due-day 15`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if id == "" {
				id = uuid.NewString()
			}
			card := &model.CreditCard{
				ID:         id,
				Owner:      owner,
				Name:       args[0],
				ClosingDay: closingDay,
				DueDay:     dueDay,
			}
			if err := store.CreateCreditCard(ctx, card); err != nil {
				return fmt.Errorf("failed to create card: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s Card %q created (id %s)", cli.CardIcon, card.Name, card.ID))) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "card id (generated when empty)")
	cmd.Flags().StringVar(&owner, "owner", "", "card owner")
	cmd.Flags().IntVar(&closingDay, "closing-day", 0, "day of month the invoice closes (1-31)")
	cmd.Flags().IntVar(&dueDay, "due-day", 0, "day of month the invoice is due (1-31)")
	_ = cmd.MarkFlagRequired("closing-day")
	_ = cmd.MarkFlagRequired("due-day")

	return cmd
}

func listCardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List credit cards",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cards, err := store.ListCreditCards(ctx)
			if err != nil {
				return fmt.Errorf("failed to list cards: %w", err)
			}
			if len(cards) == 0 {
				fmt.Println(cli.InfoStyle.Render("No cards found. Use 'ledger cards add' to create one.")) //nolint:forbidigo // User-facing output
				return nil
			}

			t, err := newTable(cmd.OutOrStdout(), "ID", "Name", "Closes", "Due", "Owner")
			if err != nil {
				return err
			}
			for _, c := range cards {
				if err := t.row(c.ID, c.Name, strconv.Itoa(c.ClosingDay), strconv.Itoa(c.DueDay), c.Owner); err != nil {
					return err
				}
			}
			return t.flush()
		},
	}
}
