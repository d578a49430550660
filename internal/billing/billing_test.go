package billing

import (
	"testing"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		purchase    time.Time
		wantRef     time.Time
		wantDue     time.Time
		wantClosing time.Time
		name        string
		closingDay  int
		dueDay      int
	}{
		{
			name:        "purchase on closing day stays on current invoice",
			purchase:    schedule.Date(2024, 3, 5),
			closingDay:  5,
			dueDay:      10,
			wantRef:     schedule.Date(2024, 3, 1),
			wantClosing: schedule.Date(2024, 3, 5),
			wantDue:     schedule.Date(2024, 3, 10),
		},
		{
			name:        "purchase after closing day moves to next invoice",
			purchase:    schedule.Date(2024, 3, 6),
			closingDay:  5,
			dueDay:      10,
			wantRef:     schedule.Date(2024, 4, 1),
			wantClosing: schedule.Date(2024, 4, 5),
			wantDue:     schedule.Date(2024, 4, 10),
		},
		{
			name:        "due day before closing day pushes due date a month",
			purchase:    schedule.Date(2024, 3, 20),
			closingDay:  25,
			dueDay:      5,
			wantRef:     schedule.Date(2024, 3, 1),
			wantClosing: schedule.Date(2024, 3, 25),
			wantDue:     schedule.Date(2024, 4, 5),
		},
		{
			name:        "late purchase with early due day",
			purchase:    schedule.Date(2024, 12, 28),
			closingDay:  25,
			dueDay:      5,
			wantRef:     schedule.Date(2025, 1, 1),
			wantClosing: schedule.Date(2025, 1, 25),
			wantDue:     schedule.Date(2025, 2, 5),
		},
		{
			name:        "closing day 31 clamps in february",
			purchase:    schedule.Date(2023, 2, 28),
			closingDay:  31,
			dueDay:      31,
			wantRef:     schedule.Date(2023, 2, 1),
			wantClosing: schedule.Date(2023, 2, 28),
			wantDue:     schedule.Date(2023, 2, 28),
		},
		{
			name:        "due day clamps in next month",
			purchase:    schedule.Date(2024, 1, 31),
			closingDay:  30,
			dueDay:      31,
			wantRef:     schedule.Date(2024, 2, 1),
			wantClosing: schedule.Date(2024, 2, 29),
			wantDue:     schedule.Date(2024, 2, 29),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cycle, err := Resolve(tt.purchase, tt.closingDay, tt.dueDay)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRef, cycle.ReferenceMonth)
			assert.Equal(t, tt.wantClosing, cycle.ClosingDate)
			assert.Equal(t, tt.wantDue, cycle.DueDate)
		})
	}
}

func TestResolve_InvalidDays(t *testing.T) {
	for _, days := range [][2]int{{0, 10}, {32, 10}, {5, 0}, {5, 40}} {
		_, err := Resolve(schedule.Date(2024, 1, 1), days[0], days[1])
		assert.ErrorIs(t, err, common.ErrInvalidInput, "closing %d due %d", days[0], days[1])
	}
}

func TestResolve_Idempotent(t *testing.T) {
	purchase := schedule.Date(2024, 5, 27)
	first, err := Resolve(purchase, 25, 5)
	require.NoError(t, err)

	again, err := CycleFor(first.ReferenceMonth, 25, 5)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	second, err := Resolve(purchase, 25, 5)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPeriodBounds_AgreesWithResolve(t *testing.T) {
	for _, closingDay := range []int{1, 5, 15, 28, 30, 31} {
		ref := schedule.Date(2024, 3, 1)
		start, end, err := PeriodBounds(ref, closingDay)
		require.NoError(t, err)

		for d := start.AddDate(0, 0, -3); !d.After(end.AddDate(0, 0, 3)); d = d.AddDate(0, 0, 1) {
			cycle, err := Resolve(d, closingDay, 10)
			require.NoError(t, err)
			inside := !d.Before(start) && !d.After(end)
			assert.Equal(t, inside, cycle.ReferenceMonth.Equal(ref),
				"closing %d purchase %s resolved to %s", closingDay, d.Format(time.DateOnly), cycle.ReferenceMonth.Format(time.DateOnly))
		}
	}
}

func TestStatusAt(t *testing.T) {
	cycle, err := Resolve(schedule.Date(2024, 3, 1), 5, 12)
	require.NoError(t, err)

	assert.Equal(t, model.InvoiceOpen, StatusAt(cycle, schedule.Date(2024, 3, 5)))
	assert.Equal(t, model.InvoiceClosed, StatusAt(cycle, schedule.Date(2024, 3, 6)))
}
