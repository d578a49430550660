package cli

import (
	"strconv"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/shopspring/decimal"
)

// SignedAmount renders an amount with the sign of its entry type, two decimals.
func SignedAmount(amount decimal.Decimal, t model.EntryType) string {
	switch t {
	case model.EntryIncome:
		return "+" + amount.StringFixed(2)
	case model.EntryExpense:
		return "-" + amount.StringFixed(2)
	default:
		return amount.StringFixed(2)
	}
}

// FormatAmount renders a signed amount colored by entry type.
func FormatAmount(amount decimal.Decimal, t model.EntryType) string {
	s := SignedAmount(amount, t)
	switch t {
	case model.EntryIncome:
		return IncomeStyle.Render(s)
	case model.EntryExpense:
		return ExpenseStyle.Render(s)
	default:
		return s
	}
}

// FormatOccurrenceStatus renders a settlement status.
func FormatOccurrenceStatus(s model.OccurrenceStatus) string {
	if s == model.StatusConfirmed {
		return SuccessStyle.Render(SuccessIcon + " " + string(s))
	}
	return SubtleStyle.Render(string(s))
}

// FormatInvoiceStatus renders an invoice status.
func FormatInvoiceStatus(s model.InvoiceStatus) string {
	switch s {
	case model.InvoicePaid:
		return SuccessStyle.Render(string(s))
	case model.InvoiceClosed:
		return WarningStyle.Render(string(s))
	default:
		return InfoStyle.Render(string(s))
	}
}

// FormatDate renders a calendar day.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return SubtleStyle.Render("-")
	}
	return t.Format(time.DateOnly)
}

// FormatSeries describes which series an occurrence belongs to.
func FormatSeries(o *model.Occurrence) string {
	switch o.SeriesKind() {
	case model.SeriesRecurrence:
		return "recurring " + *o.RecurrenceID
	case model.SeriesInstallment:
		if o.InstallmentNumber != nil {
			return "installment " + *o.InstallmentGroupID + " #" + strconv.Itoa(*o.InstallmentNumber)
		}
		return "installment " + *o.InstallmentGroupID
	default:
		return SubtleStyle.Render("one-off")
	}
}
