package mutation

import (
	"testing"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/schedule"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func recurringOccurrence(status model.OccurrenceStatus) *model.Occurrence {
	return &model.Occurrence{
		ID:           "occ-3",
		Description:  "Rent",
		Amount:       decimal.RequireFromString("900"),
		Type:         model.EntryExpense,
		Status:       status,
		DueDate:      schedule.Date(2024, 3, 5),
		RecurrenceID: ptr("rec-1"),
		IsRecurring:  true,
		Funding:      model.FundingSource{Kind: model.FundingAccount, ID: "acc-1"},
	}
}

func installmentOccurrence(number int, status model.OccurrenceStatus) *model.Occurrence {
	return &model.Occurrence{
		ID:                 "inst-" + string(rune('0'+number)),
		Description:        "Laptop",
		Amount:             decimal.RequireFromString("250"),
		Type:               model.EntryExpense,
		Status:             status,
		DueDate:            schedule.Date(2024, time.Month(number), 10),
		InstallmentGroupID: ptr("grp-1"),
		InstallmentNumber:  ptr(number),
		Funding:            model.FundingSource{Kind: model.FundingCreditCard, ID: "card-1"},
	}
}

var group = &model.InstallmentGroup{ID: "grp-1", StartingInstallment: 1, TotalInstallments: 4}

func TestResolveEdit_RecurringThisOnlyUnlinks(t *testing.T) {
	occ := recurringOccurrence(model.StatusConfirmed)
	amount := decimal.RequireFromString("950")

	d, err := ResolveEdit(occ, SeriesMeta{}, ScopeThisOnly, Changes{Amount: &amount})
	require.NoError(t, err)

	require.NotNil(t, d.ThisUpdate)
	assert.True(t, d.ThisUpdate.Unlink)
	assert.True(t, d.ThisUpdate.Amount.Equal(amount))
	assert.Nil(t, d.SeriesUpdate)
	assert.Nil(t, d.Bulk)
	assert.False(t, d.DeleteThis)
}

func TestResolveEdit_RecurringThisAndFuture(t *testing.T) {
	occ := recurringOccurrence(model.StatusPending)
	amount := decimal.RequireFromString("950")
	desc := "Rent (new lease)"

	d, err := ResolveEdit(occ, SeriesMeta{Recurrence: &model.Recurrence{ID: "rec-1"}}, ScopeThisAndFuture,
		Changes{Amount: &amount, Description: &desc})
	require.NoError(t, err)

	require.NotNil(t, d.ThisUpdate)
	assert.False(t, d.ThisUpdate.Unlink)

	require.NotNil(t, d.SeriesUpdate)
	assert.Equal(t, model.SeriesRecurrence, d.SeriesUpdate.Kind)
	assert.Equal(t, "rec-1", d.SeriesUpdate.ID)
	assert.True(t, d.SeriesUpdate.Amount.Equal(amount))
	assert.False(t, d.SeriesUpdate.Deactivate)

	require.NotNil(t, d.Bulk)
	assert.Equal(t, BulkUpdate, d.Bulk.Action)
	assert.Equal(t, "rec-1", d.Bulk.Where.RecurrenceID)
	assert.True(t, d.Bulk.Where.OnlyPending)
	require.NotNil(t, d.Bulk.Where.DueAfter)
	assert.Equal(t, occ.DueDate, *d.Bulk.Where.DueAfter)
	assert.Nil(t, d.Bulk.Where.DueOnOrAfter)
	assert.Equal(t, desc, *d.Bulk.Set.Description)
	assert.False(t, d.Bulk.Set.Unlink)
}

func TestResolveDelete_RecurringThisAndFuture(t *testing.T) {
	occ := recurringOccurrence(model.StatusPending)

	d, err := ResolveDelete(occ, SeriesMeta{}, ScopeThisAndFuture)
	require.NoError(t, err)

	require.NotNil(t, d.SeriesUpdate)
	assert.True(t, d.SeriesUpdate.Deactivate)
	assert.Equal(t, schedule.Date(2024, 3, 4), *d.SeriesUpdate.EndDate)

	require.NotNil(t, d.Bulk)
	assert.Equal(t, BulkDelete, d.Bulk.Action)
	assert.True(t, d.Bulk.Where.OnlyPending)
	assert.Equal(t, occ.DueDate, *d.Bulk.Where.DueOnOrAfter)
	assert.False(t, d.DeleteThis)
}

func TestResolveDelete_ThisOnly(t *testing.T) {
	for _, occ := range []*model.Occurrence{
		recurringOccurrence(model.StatusConfirmed),
		installmentOccurrence(2, model.StatusConfirmed),
	} {
		d, err := ResolveDelete(occ, SeriesMeta{}, ScopeThisOnly)
		require.NoError(t, err)
		assert.True(t, d.DeleteThis)
		assert.Nil(t, d.Bulk)
		assert.Nil(t, d.SeriesUpdate)
	}
}

func TestResolveInstallmentThisAndFuture(t *testing.T) {
	occ := installmentOccurrence(3, model.StatusPending)

	t.Run("delete", func(t *testing.T) {
		d, err := ResolveDelete(occ, SeriesMeta{Group: group}, ScopeThisAndFuture)
		require.NoError(t, err)
		require.NotNil(t, d.Bulk)
		assert.Equal(t, BulkDelete, d.Bulk.Action)
		assert.Equal(t, "grp-1", d.Bulk.Where.InstallmentGroupID)
		assert.Equal(t, 3, *d.Bulk.Where.InstallmentFrom)
		assert.True(t, d.Bulk.Where.OnlyPending)
		assert.Nil(t, d.SeriesUpdate)
	})

	t.Run("edit amount", func(t *testing.T) {
		amount := decimal.RequireFromString("260")
		d, err := ResolveEdit(occ, SeriesMeta{Group: group}, ScopeThisAndFuture, Changes{Amount: &amount})
		require.NoError(t, err)
		require.NotNil(t, d.SeriesUpdate)
		assert.Equal(t, model.SeriesInstallment, d.SeriesUpdate.Kind)
		assert.True(t, d.SeriesUpdate.Amount.Equal(amount))
		require.NotNil(t, d.Bulk)
		assert.Equal(t, BulkUpdate, d.Bulk.Action)
		assert.Equal(t, 3, *d.Bulk.Where.InstallmentFrom)
		assert.True(t, d.Bulk.Set.Amount.Equal(amount))
		assert.Nil(t, d.ThisUpdate)
	})

	t.Run("edit this only leaves group alone", func(t *testing.T) {
		desc := "Laptop (refurb)"
		d, err := ResolveEdit(occ, SeriesMeta{Group: group}, ScopeThisOnly, Changes{Description: &desc})
		require.NoError(t, err)
		require.NotNil(t, d.ThisUpdate)
		assert.False(t, d.ThisUpdate.Unlink)
		assert.Nil(t, d.SeriesUpdate)
		assert.Nil(t, d.Bulk)
	})
}

func TestResolve_ConsistencyViolations(t *testing.T) {
	amount := decimal.RequireFromString("1")

	t.Run("this and future on confirmed", func(t *testing.T) {
		_, err := ResolveDelete(installmentOccurrence(2, model.StatusConfirmed), SeriesMeta{}, ScopeThisAndFuture)
		require.ErrorIs(t, err, common.ErrConsistencyViolation)

		_, err = ResolveEdit(recurringOccurrence(model.StatusConfirmed), SeriesMeta{}, ScopeThisAndFuture, Changes{Amount: &amount})
		require.ErrorIs(t, err, common.ErrConsistencyViolation)
	})

	t.Run("both series kinds", func(t *testing.T) {
		occ := recurringOccurrence(model.StatusPending)
		occ.InstallmentGroupID = ptr("grp-1")
		occ.InstallmentNumber = ptr(1)
		_, err := ResolveDelete(occ, SeriesMeta{}, ScopeThisOnly)
		require.ErrorIs(t, err, common.ErrConsistencyViolation)
	})

	t.Run("series mismatch", func(t *testing.T) {
		_, err := ResolveDelete(recurringOccurrence(model.StatusPending),
			SeriesMeta{Recurrence: &model.Recurrence{ID: "rec-2"}}, ScopeThisAndFuture)
		require.ErrorIs(t, err, common.ErrConsistencyViolation)
	})

	t.Run("installment number outside group", func(t *testing.T) {
		_, err := ResolveDelete(installmentOccurrence(7, model.StatusPending), SeriesMeta{Group: group}, ScopeThisAndFuture)
		require.ErrorIs(t, err, common.ErrConsistencyViolation)
	})
}

func TestResolve_InvalidInput(t *testing.T) {
	oneOff := &model.Occurrence{ID: "one", Status: model.StatusPending, DueDate: schedule.Date(2024, 1, 1)}

	_, err := ResolveDelete(oneOff, SeriesMeta{}, ScopeThisAndFuture)
	require.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = ResolveDelete(oneOff, SeriesMeta{}, Scope("everything"))
	require.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = ResolveEdit(oneOff, SeriesMeta{}, ScopeThisOnly, Changes{})
	require.ErrorIs(t, err, common.ErrInvalidInput)

	negative := decimal.RequireFromString("-3")
	_, err = ResolveEdit(oneOff, SeriesMeta{}, ScopeThisOnly, Changes{Amount: &negative})
	require.ErrorIs(t, err, common.ErrInvalidInput)

	moved := schedule.Date(2024, 4, 1)
	_, err = ResolveEdit(recurringOccurrence(model.StatusPending), SeriesMeta{}, ScopeThisAndFuture, Changes{DueDate: &moved})
	require.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestResolve_Deterministic(t *testing.T) {
	occ := recurringOccurrence(model.StatusPending)
	first, err := ResolveDelete(occ, SeriesMeta{}, ScopeThisAndFuture)
	require.NoError(t, err)
	second, err := ResolveDelete(occ, SeriesMeta{}, ScopeThisAndFuture)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, first.String(), second.String())
}
