package model

import (
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/shopspring/decimal"
)

// Recurrence is a template producing one occurrence per interval.
type Recurrence struct {
	StartDate      time.Time
	NextOccurrence time.Time
	CreatedAt      time.Time
	EndDate        *time.Time
	CategoryID     *string
	Amount         decimal.Decimal
	Funding        FundingSource
	ID             string
	Owner          string
	Description    string
	Type           EntryType
	Frequency      Frequency
	IsActive       bool
}

// Validate checks the template can generate occurrences.
func (r *Recurrence) Validate() error {
	if r.Description == "" {
		return common.InvalidInput("description is required")
	}
	if !r.Amount.IsPositive() {
		return common.InvalidInput("amount must be positive, got %s", r.Amount)
	}
	if !WholeCents(r.Amount) {
		return common.InvalidInput("amount %s has fractional cents", r.Amount)
	}
	if r.Type != EntryIncome && r.Type != EntryExpense {
		return common.InvalidInput("recurrence type must be income or expense, got %q", r.Type)
	}
	if !r.Frequency.Valid() {
		return common.InvalidInput("unknown frequency %q", r.Frequency)
	}
	if r.StartDate.IsZero() {
		return common.InvalidInput("start date is required")
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) && r.IsActive {
		return common.InvalidInput("end date %s is before start date %s",
			r.EndDate.Format(time.DateOnly), r.StartDate.Format(time.DateOnly))
	}
	if !r.NextOccurrence.IsZero() && r.NextOccurrence.Before(r.StartDate) {
		return common.ConsistencyViolation("next occurrence %s is before start date %s",
			r.NextOccurrence.Format(time.DateOnly), r.StartDate.Format(time.DateOnly))
	}
	if err := r.Funding.Validate(); err != nil {
		return common.InvalidInput("%v", err)
	}
	return nil
}

// Exhausted reports whether the cursor has moved past the end date.
func (r *Recurrence) Exhausted() bool {
	if !r.IsActive {
		return true
	}
	return r.EndDate != nil && !r.NextOccurrence.IsZero() && r.NextOccurrence.After(*r.EndDate)
}
