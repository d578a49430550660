package ledger

import (
	"context"
	"strings"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/installment"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/service"
)

// InstallmentPurchase is a purchase paid in installments.
type InstallmentPurchase struct {
	CategoryID  *string
	Funding     model.FundingSource
	Owner       string
	Description string
	installment.PlanInput
}

// CreateInstallmentPurchase plans the installments of a purchase and stores
// the group with all of its occurrences atomically. Card-funded installments
// are assigned to the invoice of their due date.
func (s *Service) CreateInstallmentPurchase(ctx context.Context, p InstallmentPurchase) (*model.InstallmentGroup, []model.Occurrence, error) {
	if strings.TrimSpace(p.Description) == "" {
		return nil, nil, common.InvalidInput("description is required")
	}
	if err := p.Funding.Validate(); err != nil {
		return nil, nil, common.InvalidInput("%v", err)
	}

	plan, err := s.planner.Plan(p.PlanInput)
	if err != nil {
		return nil, nil, err
	}
	group := plan.Group(p.PlanInput, p.Owner, p.Description, p.Funding, p.CategoryID)

	var occs []model.Occurrence
	err = s.inTx(ctx, "create installment purchase", func(tx service.Transaction) (service.Change, error) {
		if err := tx.CreateInstallmentGroup(ctx, group); err != nil {
			return service.Change{}, err
		}

		occs = make([]model.Occurrence, len(plan.Occurrences))
		for i, spec := range plan.Occurrences {
			groupID := group.ID
			number := spec.InstallmentNumber
			occs[i] = model.Occurrence{
				ID:                 s.newID(),
				Owner:              p.Owner,
				Description:        p.Description,
				Amount:             spec.Amount,
				Type:               model.EntryExpense,
				DueDate:            spec.DueDate,
				Status:             spec.Status,
				InstallmentGroupID: &groupID,
				InstallmentNumber:  &number,
				CategoryID:         p.CategoryID,
				Funding:            p.Funding,
			}
		}

		r := s.newInvoiceResolver(tx)
		if err := r.assign(ctx, occs); err != nil {
			return service.Change{}, err
		}
		if err := tx.InsertBatch(ctx, occs); err != nil {
			return service.Change{}, err
		}
		return service.Change{SeriesKind: model.SeriesInstallment, SeriesID: group.ID, InvoiceIDs: r.touched}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return group, occs, nil
}
