package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OccurrencePredicate selects occurrences for a batch update or delete. The
// store evaluates it inside a single statement so status and cutoff are
// checked at commit time.
type OccurrencePredicate struct {
	DueAfter           *time.Time // due_date > value
	DueOnOrAfter       *time.Time // due_date >= value
	InstallmentFrom    *int       // installment_number >= value
	ID                 string
	RecurrenceID       string
	InstallmentGroupID string
	OnlyPending        bool
}

// Bounded reports whether the predicate names a record or a series.
func (p OccurrencePredicate) Bounded() bool {
	return p.ID != "" || p.RecurrenceID != "" || p.InstallmentGroupID != ""
}

// OccurrencePatch lists the fields a batch update rewrites.
type OccurrencePatch struct {
	Amount      *decimal.Decimal
	Description *string
	CategoryID  *string
	DueDate     *time.Time
	InvoiceID   *string
	Status      *OccurrenceStatus
	Unlink      bool // clear recurrence_id and is_recurring
}

// IsEmpty reports whether the patch changes nothing.
func (p OccurrencePatch) IsEmpty() bool {
	return p.Amount == nil && p.Description == nil && p.CategoryID == nil &&
		p.DueDate == nil && p.InvoiceID == nil && p.Status == nil && !p.Unlink
}
