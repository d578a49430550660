package main

import (
	"fmt"

	"github.com/Veraticus/the-ledger-must-balance/internal/cli"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage income and expense categories",
	}

	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(listCategoriesCmd())

	return cmd
}

func addCategoryCmd() *cobra.Command {
	var id, owner, categoryType string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
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
			category := &model.Category{
				ID:    id,
				Owner: owner,
				Name:  args[0],
				Type:  model.CategoryType(categoryType),
			}
			if err := store.CreateCategory(ctx, category); err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Category %q created (id %s)", category.Name, category.ID))) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "category id (generated when empty)")
	cmd.Flags().StringVar(&owner, "owner", "", "category owner")
	cmd.Flags().StringVar(&categoryType, "type", string(model.CategoryTypeExpense), "category type (income, expense)")

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories, err := store.ListCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}
			if len(categories) == 0 {
				fmt.Println(cli.InfoStyle.Render("No categories found. Use 'ledger categories add' to create one.")) //nolint:forbidigo // User-facing output
				return nil
			}

			t, err := newTable(cmd.OutOrStdout(), "ID", "Name", "Type")
			if err != nil {
				return err
			}
			for _, c := range categories {
				if err := t.row(c.ID, c.Name, string(c.Type)); err != nil {
					return err
				}
			}
			return t.flush()
		},
	}
}
