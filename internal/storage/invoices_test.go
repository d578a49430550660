package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestCard(t *testing.T, s *SQLiteStorage) *model.CreditCard {
	t.Helper()
	card := &model.CreditCard{ID: "card-1", Name: "Visa", ClosingDay: 5, DueDay: 15}
	require.NoError(t, s.CreateCreditCard(context.Background(), card))
	return card
}

func testInvoice(id string) *model.Invoice {
	return &model.Invoice{
		ID:             id,
		CreditCardID:   "card-1",
		ReferenceMonth: day("2024-03-01"),
		ClosingDate:    day("2024-03-05"),
		DueDate:        day("2024-03-15"),
	}
}

func TestSQLiteStorage_EnsureInvoice(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()
	createTestCard(t, store)

	first, err := store.EnsureInvoice(ctx, testInvoice("inv-a"))
	require.NoError(t, err)
	assert.Equal(t, "inv-a", first.ID)
	assert.Equal(t, model.InvoiceOpen, first.Status)

	second, err := store.EnsureInvoice(ctx, testInvoice("inv-b"))
	require.NoError(t, err)
	assert.Equal(t, "inv-a", second.ID, "existing invoice must be reused")

	invoices, err := store.ListInvoices(ctx, "card-1")
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
}

func TestSQLiteStorage_EnsureInvoice_Concurrent(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()
	createTestCard(t, store)

	ids := make([]string, 8)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inv, err := store.EnsureInvoice(ctx, testInvoice(string(rune('a'+i))))
			if assert.NoError(t, err) {
				ids[i] = inv.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestSQLiteStorage_InvoiceStatusAndTotal(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()
	createTestCard(t, store)

	inv, err := store.EnsureInvoice(ctx, testInvoice("inv-1"))
	require.NoError(t, err)

	occs := []model.Occurrence{
		{ID: "o1", Description: "Coffee", Amount: decimal.RequireFromString("4.50")},
		{ID: "o2", Description: "Books", Amount: decimal.RequireFromString("45.25")},
	}
	for i := range occs {
		occs[i].Type = model.EntryExpense
		occs[i].Status = model.StatusConfirmed
		occs[i].DueDate = day("2024-03-02")
		occs[i].Funding = model.FundingSource{Kind: model.FundingCreditCard, ID: "card-1"}
		occs[i].InvoiceID = &inv.ID
	}
	require.NoError(t, store.InsertBatch(ctx, occs))

	total, err := store.InvoiceTotal(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "49.75", total.StringFixed(2))

	require.NoError(t, store.SetInvoiceStatus(ctx, inv.ID, model.InvoicePaid))
	got, err := store.FindInvoice(ctx, "card-1", day("2024-03-01"))
	require.NoError(t, err)
	assert.Equal(t, model.InvoicePaid, got.Status)

	assert.ErrorIs(t, store.SetInvoiceStatus(ctx, inv.ID, "lost"), common.ErrInvalidInput)
	assert.ErrorIs(t, store.SetInvoiceStatus(ctx, "missing", model.InvoiceClosed), common.ErrNotFound)
}

func TestSQLiteStorage_ReferenceData(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	require.NoError(t, store.CreateAccount(ctx, &model.Account{ID: "acc-1", Name: "Checking"}))
	assert.ErrorIs(t, store.CreateAccount(ctx, &model.Account{ID: "acc-1", Name: "Again"}), common.ErrDuplicateEntry)

	require.NoError(t, store.CreateCategory(ctx, &model.Category{ID: "cat-1", Name: "Housing", Type: model.CategoryTypeExpense}))
	assert.ErrorIs(t, store.CreateCategory(ctx, &model.Category{ID: "cat-2", Name: "X", Type: "other"}), common.ErrInvalidInput)

	cat, err := store.GetCategory(ctx, "cat-1")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryTypeExpense, cat.Type)

	assert.ErrorIs(t,
		store.CreateCreditCard(ctx, &model.CreditCard{ID: "c", Name: "Bad", ClosingDay: 0, DueDay: 10}),
		common.ErrInvalidInput)

	_, err = store.GetCreditCard(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
