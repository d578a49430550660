// Package recurrence expands recurring templates into dated ledger entries.
package recurrence

import (
	"fmt"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/schedule"
)

// Expander generates the occurrences of a recurrence up to a horizon.
type Expander struct {
	clock schedule.Clock
}

// NewExpander creates an expander that reads "today" from clock.
func NewExpander(clock schedule.Clock) *Expander {
	if clock == nil {
		clock = schedule.SystemClock{}
	}
	return &Expander{clock: clock}
}

// Expansion is the result of one expansion run.
type Expansion struct {
	NextOccurrence time.Time
	Occurrences    []model.OccurrenceSpec
}

// Expand returns the occurrences of rec due on or before today plus
// horizonMonths that come after everything already materialised.
//
// A NextOccurrence that is not a date of the schedule anchored at StartDate is
// a ConsistencyViolation.
//
// Materialised state is read from rec.NextOccurrence and lastGenerated (the
// latest persisted due date for the series, nil if none); only dates strictly
// after lastGenerated and not before NextOccurrence are produced. Dates are
// always derived from rec.StartDate so month-end clamping does not drift.
// Occurrences due today or earlier come back confirmed, later ones pending.
func (e *Expander) Expand(rec *model.Recurrence, lastGenerated *time.Time, horizonMonths int) (Expansion, error) {
	if rec == nil {
		return Expansion{}, common.InvalidInput("recurrence is required")
	}
	if horizonMonths < 0 {
		return Expansion{}, common.InvalidInput("horizon must not be negative, got %d", horizonMonths)
	}
	if err := rec.Validate(); err != nil {
		return Expansion{}, err
	}

	result := Expansion{NextOccurrence: rec.NextOccurrence}
	if !rec.IsActive {
		return result, nil
	}

	start := schedule.Day(rec.StartDate)
	cursor := start
	if next := schedule.Day(rec.NextOccurrence); next.After(cursor) {
		if err := onSchedule(start, rec.Frequency, next); err != nil {
			return Expansion{}, fmt.Errorf("recurrence %s: %w", rec.ID, err)
		}
		cursor = next
	}
	if lastGenerated != nil {
		if after := schedule.Day(*lastGenerated).AddDate(0, 0, 1); after.After(cursor) {
			cursor = after
		}
	}

	today := schedule.Today(e.clock)
	limit := schedule.AddMonths(today, horizonMonths)
	if rec.EndDate != nil && schedule.Day(*rec.EndDate).Before(limit) {
		limit = schedule.Day(*rec.EndDate)
	}

	k, err := schedule.IndexAtOrAfter(start, rec.Frequency, cursor)
	if err != nil {
		return Expansion{}, err
	}

	for {
		due, err := schedule.Advance(start, rec.Frequency, k)
		if err != nil {
			return Expansion{}, err
		}
		if due.After(limit) {
			result.NextOccurrence = due
			break
		}

		status := model.StatusPending
		if !due.After(today) {
			status = model.StatusConfirmed
		}
		result.Occurrences = append(result.Occurrences, model.OccurrenceSpec{
			DueDate:  due,
			Amount:   rec.Amount,
			Status:   status,
			SeriesID: rec.ID,
		})
		k++
	}

	return result, nil
}

func onSchedule(start time.Time, freq model.Frequency, date time.Time) error {
	k, err := schedule.IndexAtOrAfter(start, freq, date)
	if err != nil {
		return err
	}
	due, err := schedule.Advance(start, freq, k)
	if err != nil {
		return err
	}
	if !due.Equal(date) {
		return common.ConsistencyViolation("next occurrence %s is not on the %s schedule starting %s",
			date.Format(time.DateOnly), freq, start.Format(time.DateOnly))
	}
	return nil
}
