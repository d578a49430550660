package model

import (
	"testing"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestWholeCents(t *testing.T) {
	assert.True(t, WholeCents(decimal.RequireFromString("10")))
	assert.True(t, WholeCents(decimal.RequireFromString("33.33")))
	assert.True(t, WholeCents(decimal.RequireFromString("33.330")))
	assert.False(t, WholeCents(decimal.RequireFromString("33.333")))
}

func TestOccurrence_Validate(t *testing.T) {
	valid := func() Occurrence {
		return Occurrence{
			ID:          "o1",
			Description: "Coffee",
			Amount:      decimal.RequireFromString("4.50"),
			Type:        EntryExpense,
			Status:      StatusPending,
			DueDate:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			Funding:     FundingSource{Kind: FundingAccount, ID: "checking"},
		}
	}
	rec, group, n := "rent", "laptop", 1

	tests := []struct {
		name   string
		mutate func(o *Occurrence)
		want   error
	}{
		{name: "valid", mutate: func(*Occurrence) {}},
		{name: "fractional cents", mutate: func(o *Occurrence) { o.Amount = decimal.RequireFromString("4.505") }, want: common.ErrInvalidInput},
		{name: "zero amount", mutate: func(o *Occurrence) { o.Amount = decimal.Zero }, want: common.ErrInvalidInput},
		{name: "unknown status", mutate: func(o *Occurrence) { o.Status = "settled" }, want: common.ErrInvalidInput},
		{
			name: "both series",
			mutate: func(o *Occurrence) {
				o.RecurrenceID = &rec
				o.InstallmentGroupID = &group
				o.InstallmentNumber = &n
			},
			want: common.ErrConsistencyViolation,
		},
		{name: "number without group", mutate: func(o *Occurrence) { o.InstallmentNumber = &n }, want: common.ErrConsistencyViolation},
		{name: "invoice on account", mutate: func(o *Occurrence) { id := "inv"; o.InvoiceID = &id }, want: common.ErrConsistencyViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := valid()
			tt.mutate(&o)
			err := o.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
