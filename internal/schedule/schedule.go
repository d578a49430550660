// Package schedule implements calendar arithmetic for ledger series.
//
// All dates are calendar days: midnight UTC. Month and year steps clamp the
// day of month to the last valid day of the target month, so Jan 31 plus one
// month is Feb 28 (Feb 29 in leap years) and Feb 29 plus one year is Feb 28.
package schedule

import (
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
)

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days of the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampedDate builds year-month-day, clamping day into the month.
func ClampedDate(year int, month time.Month, day int) time.Time {
	// Normalise month overflow first so DaysIn sees the real month.
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := DaysIn(first.Year(), first.Month())
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths adds n months keeping the day of month where possible.
func AddMonths(t time.Time, n int) time.Time {
	return ClampedDate(t.Year(), t.Month()+time.Month(n), t.Day())
}

// Advance moves date forward by count intervals of freq.
// Every step is computed from date itself rather than chained, so
// Advance(Jan 31, monthly, 2) is Mar 31.
func Advance(date time.Time, freq model.Frequency, count int) (time.Time, error) {
	if count < 0 {
		return time.Time{}, common.InvalidInput("interval count must not be negative, got %d", count)
	}
	date = Day(date)

	switch freq {
	case model.FrequencyDaily:
		return date.AddDate(0, 0, count), nil
	case model.FrequencyWeekly:
		return date.AddDate(0, 0, 7*count), nil
	case model.FrequencyBiweekly:
		return date.AddDate(0, 0, 14*count), nil
	case model.FrequencyMonthly:
		return AddMonths(date, count), nil
	case model.FrequencyYearly:
		return ClampedDate(date.Year()+count, date.Month(), date.Day()), nil
	}
	return time.Time{}, common.InvalidInput("unknown frequency %q", freq)
}

// MustAdvance is Advance for callers that already validated their inputs.
func MustAdvance(date time.Time, freq model.Frequency, count int) time.Time {
	next, err := Advance(date, freq, count)
	if err != nil {
		panic(err)
	}
	return next
}

// IndexAtOrAfter returns the smallest k such that Advance(anchor, freq, k)
// is not before target. Targets on or before anchor yield zero.
func IndexAtOrAfter(anchor time.Time, freq model.Frequency, target time.Time) (int, error) {
	anchor, target = Day(anchor), Day(target)
	if !target.After(anchor) {
		return 0, nil
	}

	var k int
	switch freq {
	case model.FrequencyDaily:
		return int(target.Sub(anchor).Hours() / 24), nil
	case model.FrequencyWeekly:
		k = int(target.Sub(anchor).Hours() / 24 / 7)
	case model.FrequencyBiweekly:
		k = int(target.Sub(anchor).Hours() / 24 / 14)
	case model.FrequencyMonthly:
		k = (target.Year()-anchor.Year())*12 + int(target.Month()-anchor.Month()) - 1
	case model.FrequencyYearly:
		k = target.Year() - anchor.Year() - 1
	default:
		return 0, common.InvalidInput("unknown frequency %q", freq)
	}
	if k < 0 {
		k = 0
	}

	// k is a lower bound; walk forward the last step or two.
	for {
		d, err := Advance(anchor, freq, k)
		if err != nil {
			return 0, err
		}
		if !d.Before(target) {
			return k, nil
		}
		k++
	}
}
