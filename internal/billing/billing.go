// Package billing assigns credit card purchases to monthly invoices.
package billing

import (
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/schedule"
)

// Cycle is the invoice period a purchase belongs to.
type Cycle struct {
	ReferenceMonth time.Time // first day of the invoice month
	ClosingDate    time.Time
	DueDate        time.Time
}

// Resolve computes the invoice period for a purchase.
//
// A purchase made after the closing day goes to the next month's invoice; a
// purchase on the closing day itself stays on the current one. The due date
// lands in the reference month unless the due day is numerically before the
// closing day, in which case it moves to the following month. Day values past
// the end of a month clamp to its last day.
func Resolve(purchaseDate time.Time, closingDay, dueDay int) (Cycle, error) {
	if err := validateDays(closingDay, dueDay); err != nil {
		return Cycle{}, err
	}

	purchase := schedule.Day(purchaseDate)
	effectiveClosing := schedule.ClampedDate(purchase.Year(), purchase.Month(), closingDay).Day()

	ref := schedule.MonthStart(purchase)
	if purchase.Day() > effectiveClosing {
		ref = schedule.AddMonths(ref, 1)
	}

	return cycleFor(ref, closingDay, dueDay), nil
}

// CycleFor returns the cycle of a known reference month.
func CycleFor(referenceMonth time.Time, closingDay, dueDay int) (Cycle, error) {
	if err := validateDays(closingDay, dueDay); err != nil {
		return Cycle{}, err
	}
	return cycleFor(schedule.MonthStart(referenceMonth), closingDay, dueDay), nil
}

func cycleFor(ref time.Time, closingDay, dueDay int) Cycle {
	dueMonth := ref.Month()
	if dueDay < closingDay {
		dueMonth++
	}
	return Cycle{
		ReferenceMonth: ref,
		ClosingDate:    schedule.ClampedDate(ref.Year(), ref.Month(), closingDay),
		DueDate:        schedule.ClampedDate(ref.Year(), dueMonth, dueDay),
	}
}

// PeriodBounds returns the first and last purchase dates, inclusive, that
// Resolve maps to referenceMonth.
func PeriodBounds(referenceMonth time.Time, closingDay int) (time.Time, time.Time, error) {
	if closingDay < 1 || closingDay > 31 {
		return time.Time{}, time.Time{}, common.InvalidInput("closing day must be between 1 and 31, got %d", closingDay)
	}
	ref := schedule.MonthStart(referenceMonth)
	prev := schedule.AddMonths(ref, -1)

	start := schedule.ClampedDate(prev.Year(), prev.Month(), closingDay).AddDate(0, 0, 1)
	end := schedule.ClampedDate(ref.Year(), ref.Month(), closingDay)
	return start, end, nil
}

// StatusAt derives whether an unpaid invoice still accepts purchases.
func StatusAt(c Cycle, today time.Time) model.InvoiceStatus {
	if schedule.Day(today).After(c.ClosingDate) {
		return model.InvoiceClosed
	}
	return model.InvoiceOpen
}

// ResolveCard is Resolve using a card's billing parameters.
func ResolveCard(card *model.CreditCard, purchaseDate time.Time) (Cycle, error) {
	if card == nil {
		return Cycle{}, common.InvalidInput("credit card is required")
	}
	return Resolve(purchaseDate, card.ClosingDay, card.DueDay)
}

func validateDays(closingDay, dueDay int) error {
	if closingDay < 1 || closingDay > 31 {
		return common.InvalidInput("closing day must be between 1 and 31, got %d", closingDay)
	}
	if dueDay < 1 || dueDay > 31 {
		return common.InvalidInput("due day must be between 1 and 31, got %d", dueDay)
	}
	return nil
}
