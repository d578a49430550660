// Package model defines the ledger records shared by every layer of the application.
package model

import (
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/shopspring/decimal"
)

// EntryType is the direction of a ledger entry.
type EntryType string

// Entry types.
const (
	EntryIncome     EntryType = "income"
	EntryExpense    EntryType = "expense"
	EntryTransfer   EntryType = "transfer"
	EntryAdjustment EntryType = "adjustment"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	switch t {
	case EntryIncome, EntryExpense, EntryTransfer, EntryAdjustment:
		return true
	}
	return false
}

// OccurrenceStatus tracks settlement of a ledger entry.
type OccurrenceStatus string

// Occurrence statuses. Confirmed entries are settled history.
const (
	StatusPending   OccurrenceStatus = "pending"
	StatusConfirmed OccurrenceStatus = "confirmed"
)

// Occurrence is a single dated ledger entry, optionally generated by a
// recurrence or an installment group.
type Occurrence struct {
	DueDate            time.Time
	CreatedAt          time.Time
	RecurrenceID       *string
	InstallmentGroupID *string
	InstallmentNumber  *int
	InvoiceID          *string
	CategoryID         *string
	Amount             decimal.Decimal
	Funding            FundingSource
	ID                 string
	Owner              string
	Description        string
	Type               EntryType
	Status             OccurrenceStatus
	ExternalID         string // statement FITID for imported entries
	IsRecurring        bool
}

// SeriesKind identifies which kind of series an occurrence belongs to.
type SeriesKind string

// Series kinds.
const (
	SeriesNone        SeriesKind = ""
	SeriesRecurrence  SeriesKind = "recurrence"
	SeriesInstallment SeriesKind = "installment"
)

// SeriesKind returns the series the occurrence was generated from.
func (o *Occurrence) SeriesKind() SeriesKind {
	switch {
	case o.RecurrenceID != nil:
		return SeriesRecurrence
	case o.InstallmentGroupID != nil:
		return SeriesInstallment
	default:
		return SeriesNone
	}
}

// IsConfirmed reports whether the occurrence is settled history.
func (o *Occurrence) IsConfirmed() bool {
	return o.Status == StatusConfirmed
}

// Validate checks field-level requirements and the series-kind invariants.
func (o *Occurrence) Validate() error {
	if o.Description == "" {
		return common.InvalidInput("description is required")
	}
	if !o.Amount.IsPositive() {
		return common.InvalidInput("amount must be positive, got %s", o.Amount)
	}
	if !WholeCents(o.Amount) {
		return common.InvalidInput("amount %s has fractional cents", o.Amount)
	}
	if !o.Type.Valid() {
		return common.InvalidInput("unknown entry type %q", o.Type)
	}
	if o.Status != StatusPending && o.Status != StatusConfirmed {
		return common.InvalidInput("unknown status %q", o.Status)
	}
	if o.DueDate.IsZero() {
		return common.InvalidInput("due date is required")
	}
	if err := o.Funding.Validate(); err != nil {
		return common.InvalidInput("%v", err)
	}
	if o.RecurrenceID != nil && o.InstallmentGroupID != nil {
		return common.ConsistencyViolation("occurrence %s belongs to both recurrence %s and installment group %s",
			o.ID, *o.RecurrenceID, *o.InstallmentGroupID)
	}
	if o.InstallmentNumber != nil && o.InstallmentGroupID == nil {
		return common.ConsistencyViolation("occurrence %s has an installment number without a group", o.ID)
	}
	if o.InstallmentGroupID != nil && o.InstallmentNumber == nil {
		return common.ConsistencyViolation("occurrence %s is missing its installment number", o.ID)
	}
	if o.InvoiceID != nil && (!o.Funding.IsCreditCard() || o.Type != EntryExpense) {
		return common.ConsistencyViolation("only credit card expenses reference an invoice")
	}
	return nil
}

// OccurrenceSpec is a ledger entry computed by the expansion functions but not
// yet persisted.
type OccurrenceSpec struct {
	DueDate           time.Time
	Amount            decimal.Decimal
	Status            OccurrenceStatus
	SeriesID          string
	InstallmentNumber int // zero outside installment plans
}
