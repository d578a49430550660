package main

import (
	"fmt"

	"github.com/Veraticus/the-ledger-must-balance/internal/cli"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage bank and cash accounts",
	}

	cmd.AddCommand(addAccountCmd())
	cmd.AddCommand(listAccountsCmd())

	return cmd
}

func addAccountCmd() *cobra.Command {
	var id, owner string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an account",
		Args:  cobra.ExactArgs(1),
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
			account := &model.Account{ID: id, Owner: owner, Name: args[0]}
			if err := store.CreateAccount(ctx, account); err != nil {
				return fmt.Errorf("failed to create account: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Account %q created (id %s)", account.Name, account.ID))) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "account id (generated when empty)")
	cmd.Flags().StringVar(&owner, "owner", "", "account owner")

	return cmd
}

func listAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			accounts, err := store.ListAccounts(ctx)
			if err != nil {
				return fmt.Errorf("failed to list accounts: %w", err)
			}
			if len(accounts) == 0 {
				fmt.Println(cli.InfoStyle.Render("No accounts found. Use 'ledger accounts add' to create one.")) //nolint:forbidigo // User-facing output
				return nil
			}

			t, err := newTable(cmd.OutOrStdout(), "ID", "Name", "Owner")
			if err != nil {
				return err
			}
			for _, a := range accounts {
				if err := t.row(a.ID, a.Name, a.Owner); err != nil {
					return err
				}
			}
			return t.flush()
		},
	}
}
