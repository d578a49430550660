// Package installment splits a purchase into dated installments.
package installment

import (
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/schedule"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanInput describes an installment purchase.
type PlanInput struct {
	FirstDate           time.Time
	Amount              decimal.Decimal
	GroupID             string // generated when empty
	AmountMode          model.AmountMode
	Frequency           model.Frequency
	StartingInstallment int
	TotalInstallments   int
}

// Plan is the computed installment schedule.
type Plan struct {
	GroupID           string
	InstallmentAmount decimal.Decimal
	TotalAmount       decimal.Decimal
	Occurrences       []model.OccurrenceSpec
}

// Planner computes installment schedules.
type Planner struct {
	newID func() string
}

// NewPlanner creates a planner that names groups with random UUIDs.
func NewPlanner() *Planner {
	return &Planner{newID: uuid.NewString}
}

// Plan validates the input and lays out one pending occurrence per remaining
// installment, numbered from StartingInstallment to TotalInstallments.
//
// In total mode the amount is divided evenly in whole cents and the remainder
// is added to the last installment, so the occurrences always sum to the
// total.
func (p *Planner) Plan(in PlanInput) (Plan, error) {
	if err := validate(in); err != nil {
		return Plan{}, err
	}

	count := in.TotalInstallments - in.StartingInstallment + 1
	n := decimal.NewFromInt(int64(count))

	var installmentAmount, totalAmount decimal.Decimal
	switch in.AmountMode {
	case model.AmountTotal:
		totalAmount = in.Amount
		installmentAmount = in.Amount.Div(n).RoundDown(2)
		if !installmentAmount.IsPositive() {
			return Plan{}, common.InvalidInput("amount %s is too small for %d installments", in.Amount, count)
		}
	case model.AmountPerInstallment:
		installmentAmount = in.Amount
		totalAmount = in.Amount.Mul(n)
	}

	groupID := in.GroupID
	if groupID == "" {
		groupID = p.newID()
	}

	plan := Plan{
		GroupID:           groupID,
		InstallmentAmount: installmentAmount,
		TotalAmount:       totalAmount,
		Occurrences:       make([]model.OccurrenceSpec, 0, count),
	}

	allocated := decimal.Zero
	for i := 0; i < count; i++ {
		due, err := schedule.Advance(in.FirstDate, in.Frequency, i)
		if err != nil {
			return Plan{}, err
		}

		amount := installmentAmount
		if i == count-1 {
			amount = totalAmount.Sub(allocated)
		}
		allocated = allocated.Add(amount)

		plan.Occurrences = append(plan.Occurrences, model.OccurrenceSpec{
			DueDate:           due,
			Amount:            amount,
			Status:            model.StatusPending,
			SeriesID:          groupID,
			InstallmentNumber: in.StartingInstallment + i,
		})
	}

	return plan, nil
}

// Group builds the persisted installment group for a plan.
func (pl Plan) Group(in PlanInput, owner, description string, funding model.FundingSource, categoryID *string) *model.InstallmentGroup {
	return &model.InstallmentGroup{
		ID:                   pl.GroupID,
		Owner:                owner,
		Description:          description,
		InstallmentAmount:    pl.InstallmentAmount,
		TotalAmount:          pl.TotalAmount,
		TotalInstallments:    in.TotalInstallments,
		StartingInstallment:  in.StartingInstallment,
		Frequency:            in.Frequency,
		FirstInstallmentDate: schedule.Day(in.FirstDate),
		Funding:              funding,
		CategoryID:           categoryID,
	}
}

func validate(in PlanInput) error {
	if !in.Amount.IsPositive() {
		return common.InvalidInput("amount must be positive, got %s", in.Amount)
	}
	if !model.WholeCents(in.Amount) {
		return common.InvalidInput("amount %s has fractional cents", in.Amount)
	}
	if in.AmountMode != model.AmountTotal && in.AmountMode != model.AmountPerInstallment {
		return common.InvalidInput("unknown amount mode %q", in.AmountMode)
	}
	if in.StartingInstallment < 1 {
		return common.InvalidInput("starting installment must be at least 1, got %d", in.StartingInstallment)
	}
	if in.TotalInstallments < in.StartingInstallment {
		return common.InvalidInput("total installments %d is less than starting installment %d",
			in.TotalInstallments, in.StartingInstallment)
	}
	if !in.Frequency.Valid() {
		return common.InvalidInput("unknown frequency %q", in.Frequency)
	}
	if in.FirstDate.IsZero() {
		return common.InvalidInput("first installment date is required")
	}
	return nil
}
