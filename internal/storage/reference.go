package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
)

// CreateAccount inserts an account.
func (s *SQLiteStorage) CreateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("%w: account", ErrNilParameter)
	}
	if err := validateString(account.ID, "account.ID"); err != nil {
		return err
	}
	if err := validateString(account.Name, "account.Name"); err != nil {
		return err
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO accounts (id, owner, name) VALUES (?, ?, ?)`,
		account.ID, account.Owner, account.Name)
	return storeError(fmt.Sprintf("insert account %s", account.ID), err)
}

// GetAccount retrieves an account by ID.
func (s *SQLiteStorage) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var a model.Account
	err := s.q.QueryRowContext(ctx,
		`SELECT id, owner, name, created_at FROM accounts WHERE id = ?`, id,
	).Scan(&a.ID, &a.Owner, &a.Name, &a.CreatedAt)
	if err != nil {
		return nil, storeError(fmt.Sprintf("get account %s", id), err)
	}
	return &a, nil
}

// ListAccounts returns all accounts ordered by name.
func (s *SQLiteStorage) ListAccounts(ctx context.Context) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `SELECT id, owner, name, created_at FROM accounts ORDER BY name`)
	if err != nil {
		return nil, storeError("query accounts", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Owner, &a.Name, &a.CreatedAt); err != nil {
			return nil, storeError("scan account", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate accounts", err)
	}
	return accounts, nil
}

// CreateCreditCard inserts a credit card.
func (s *SQLiteStorage) CreateCreditCard(ctx context.Context, card *model.CreditCard) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if card == nil {
		return fmt.Errorf("%w: credit card", ErrNilParameter)
	}
	if err := validateString(card.ID, "card.ID"); err != nil {
		return err
	}
	if err := card.Validate(); err != nil {
		return common.InvalidInput("%v", err)
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO credit_cards (id, owner, name, closing_day, due_day) VALUES (?, ?, ?, ?, ?)`,
		card.ID, card.Owner, card.Name, card.ClosingDay, card.DueDay)
	return storeError(fmt.Sprintf("insert credit card %s", card.ID), err)
}

// GetCreditCard retrieves a credit card by ID.
func (s *SQLiteStorage) GetCreditCard(ctx context.Context, id string) (*model.CreditCard, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var c model.CreditCard
	err := s.q.QueryRowContext(ctx,
		`SELECT id, owner, name, closing_day, due_day, created_at FROM credit_cards WHERE id = ?`, id,
	).Scan(&c.ID, &c.Owner, &c.Name, &c.ClosingDay, &c.DueDay, &c.CreatedAt)
	if err != nil {
		return nil, storeError(fmt.Sprintf("get credit card %s", id), err)
	}
	return &c, nil
}

// ListCreditCards returns all credit cards ordered by name.
func (s *SQLiteStorage) ListCreditCards(ctx context.Context) ([]model.CreditCard, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx,
		`SELECT id, owner, name, closing_day, due_day, created_at FROM credit_cards ORDER BY name`)
	if err != nil {
		return nil, storeError("query credit cards", err)
	}
	defer func() { _ = rows.Close() }()

	var cards []model.CreditCard
	for rows.Next() {
		var c model.CreditCard
		if err := rows.Scan(&c.ID, &c.Owner, &c.Name, &c.ClosingDay, &c.DueDay, &c.CreatedAt); err != nil {
			return nil, storeError("scan credit card", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate credit cards", err)
	}
	return cards, nil
}

// CreateCategory inserts a category.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if category == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}
	if err := validateString(category.ID, "category.ID"); err != nil {
		return err
	}
	if err := validateString(category.Name, "category.Name"); err != nil {
		return err
	}
	if category.Type != model.CategoryTypeIncome && category.Type != model.CategoryTypeExpense {
		return common.InvalidInput("unknown category type %q", category.Type)
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO categories (id, owner, name, type) VALUES (?, ?, ?, ?)`,
		category.ID, category.Owner, category.Name, string(category.Type))
	if err != nil {
		return storeError(fmt.Sprintf("insert category %s", category.Name), err)
	}

	slog.Debug("created category", "id", category.ID, "name", category.Name)
	return nil
}

// GetCategory retrieves a category by ID.
func (s *SQLiteStorage) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var c model.Category
	var catType string
	err := s.q.QueryRowContext(ctx,
		`SELECT id, owner, name, type, created_at FROM categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.Owner, &c.Name, &catType, &c.CreatedAt)
	if err != nil {
		return nil, storeError(fmt.Sprintf("get category %s", id), err)
	}
	c.Type = model.CategoryType(catType)
	return &c, nil
}

// ListCategories returns all categories ordered by name.
func (s *SQLiteStorage) ListCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx,
		`SELECT id, owner, name, type, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, storeError("query categories", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		var catType string
		if err := rows.Scan(&c.ID, &c.Owner, &c.Name, &catType, &c.CreatedAt); err != nil {
			return nil, storeError("scan category", err)
		}
		c.Type = model.CategoryType(catType)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate categories", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}
