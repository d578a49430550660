// Package testutil provides a migrated test database seeded with reference data.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/service"
	"github.com/Veraticus/the-ledger-must-balance/internal/storage"
)

// Fixture is the reference data a test database starts with.
type Fixture struct {
	Accounts   []model.Account
	Cards      []model.CreditCard
	Categories []model.Category
}

// Well-known ids of BasicFixture.
const (
	CheckingAccountID = "checking"
	VisaCardID        = "visa"
	HousingCategoryID = "housing"
	SalaryCategoryID  = "salary"
)

// BasicFixture is one checking account, one card closing on the 5th and due
// on the 15th, and a category of each type.
func BasicFixture() Fixture {
	return Fixture{
		Accounts: []model.Account{
			{ID: CheckingAccountID, Name: "Checking"},
		},
		Cards: []model.CreditCard{
			{ID: VisaCardID, Name: "Visa", ClosingDay: 5, DueDay: 15},
		},
		Categories: []model.Category{
			{ID: HousingCategoryID, Name: "Housing", Type: model.CategoryTypeExpense},
			{ID: SalaryCategoryID, Name: "Salary", Type: model.CategoryTypeIncome},
		},
	}
}

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database seeded with fixture.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t, testutil.BasicFixture())
func SetupTestDB(t *testing.T, fixture Fixture) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	if err := seed(ctx, store, fixture); err != nil {
		t.Fatalf("failed to seed fixture: %v", err)
	}

	return &TestDB{Storage: store, t: t}
}

func seed(ctx context.Context, store service.ReferenceStore, fixture Fixture) error {
	for i := range fixture.Accounts {
		if err := store.CreateAccount(ctx, &fixture.Accounts[i]); err != nil {
			return fmt.Errorf("account %q: %w", fixture.Accounts[i].ID, err)
		}
	}
	for i := range fixture.Cards {
		if err := store.CreateCreditCard(ctx, &fixture.Cards[i]); err != nil {
			return fmt.Errorf("card %q: %w", fixture.Cards[i].ID, err)
		}
	}
	for i := range fixture.Categories {
		if err := store.CreateCategory(ctx, &fixture.Categories[i]); err != nil {
			return fmt.Errorf("category %q: %w", fixture.Categories[i].ID, err)
		}
	}
	return nil
}

// WithTransaction executes fn within a database transaction that is always
// rolled back afterwards.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	ctx := context.Background()
	tx, err := db.Storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}

// MustOccurrences returns the occurrences of a series or fails the test.
func (db *TestDB) MustOccurrences(kind model.SeriesKind, seriesID string) []model.Occurrence {
	db.t.Helper()
	occs, err := db.Storage.FindSeries(context.Background(), kind, seriesID)
	if err != nil {
		db.t.Fatalf("failed to load series %s %q: %v", kind, seriesID, err)
	}
	return occs
}
