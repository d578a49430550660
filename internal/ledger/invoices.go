package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/billing"
	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/schedule"
	"github.com/Veraticus/the-ledger-must-balance/internal/service"
	"github.com/shopspring/decimal"
)

// InvoiceSummary is an invoice with its charges.
type InvoiceSummary struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	Total       decimal.Decimal
	Invoice     model.Invoice
	Occurrences []model.Occurrence
}

// invoiceResolver memoises cards and invoices within one transaction.
type invoiceResolver struct {
	s        *Service
	tx       service.Transaction
	cards    map[string]*model.CreditCard
	invoices map[string]*model.Invoice // card id + reference month
	touched  []string
}

func (s *Service) newInvoiceResolver(tx service.Transaction) *invoiceResolver {
	return &invoiceResolver{
		s:        s,
		tx:       tx,
		cards:    make(map[string]*model.CreditCard),
		invoices: make(map[string]*model.Invoice),
	}
}

func (r *invoiceResolver) card(ctx context.Context, id string) (*model.CreditCard, error) {
	if c, ok := r.cards[id]; ok {
		return c, nil
	}
	c, err := r.tx.GetCreditCard(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.InvalidInput("unknown credit card %q", id)
	}
	if err != nil {
		return nil, err
	}
	r.cards[id] = c
	return c, nil
}

// invoiceFor returns the invoice a card purchase on date belongs to,
// creating it when missing.
func (r *invoiceResolver) invoiceFor(ctx context.Context, cardID string, date time.Time) (*model.Invoice, error) {
	card, err := r.card(ctx, cardID)
	if err != nil {
		return nil, err
	}
	cycle, err := billing.ResolveCard(card, date)
	if err != nil {
		return nil, err
	}

	key := cardID + "/" + cycle.ReferenceMonth.Format("2006-01")
	if inv, ok := r.invoices[key]; ok {
		return inv, nil
	}

	inv, err := r.tx.EnsureInvoice(ctx, &model.Invoice{
		ID:             r.s.newID(),
		CreditCardID:   cardID,
		ReferenceMonth: cycle.ReferenceMonth,
		ClosingDate:    cycle.ClosingDate,
		DueDate:        cycle.DueDate,
		Status:         billing.StatusAt(cycle, r.s.Today()),
	})
	if err != nil {
		return nil, err
	}
	r.invoices[key] = inv
	r.touched = append(r.touched, inv.ID)
	return inv, nil
}

// assign attaches every credit card expense in occs to its invoice.
func (r *invoiceResolver) assign(ctx context.Context, occs []model.Occurrence) error {
	for i := range occs {
		o := &occs[i]
		if !billable(o) {
			continue
		}
		inv, err := r.invoiceFor(ctx, o.Funding.ID, o.DueDate)
		if err != nil {
			return err
		}
		id := inv.ID
		o.InvoiceID = &id
	}
	return nil
}

func billable(o *model.Occurrence) bool {
	return o.Funding.IsCreditCard() && o.Type == model.EntryExpense
}

// AssignOrphans attaches a card's expenses that have no invoice yet to the
// invoice of their billing cycle. It returns how many were attached.
func (s *Service) AssignOrphans(ctx context.Context, cardID string) (int, error) {
	var assigned int
	err := s.inTx(ctx, "assign orphans", func(tx service.Transaction) (service.Change, error) {
		assigned = 0
		orphans, err := tx.ListOccurrences(ctx, service.OccurrenceFilter{CreditCardID: cardID, WithoutInvoice: true})
		if err != nil {
			return service.Change{}, err
		}

		r := s.newInvoiceResolver(tx)
		for i := range orphans {
			inv, err := r.invoiceFor(ctx, cardID, orphans[i].DueDate)
			if err != nil {
				return service.Change{}, err
			}
			id := inv.ID
			if _, err := tx.UpdateWhere(ctx,
				model.OccurrencePredicate{ID: orphans[i].ID},
				model.OccurrencePatch{InvoiceID: &id}); err != nil {
				return service.Change{}, err
			}
			assigned++
		}
		return service.Change{InvoiceIDs: r.touched}, nil
	})
	return assigned, err
}

// InvoiceTotal sums the charges of an invoice.
func (s *Service) InvoiceTotal(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	var generation uint64
	if s.totals != nil {
		if total, ok := s.totals.Get(invoiceID); ok {
			return total, nil
		}
		generation = s.totals.Generation()
	}

	total, err := s.store.InvoiceTotal(ctx, invoiceID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invoice total: %w", err)
	}
	if s.totals != nil {
		// A commit that landed during the read may have made total stale.
		s.totals.SetIfCurrent(invoiceID, total, generation)
	}
	return total, nil
}

// Invoice loads the invoice of a card for a reference month. Unpaid invoices
// have their open/closed status refreshed against today.
func (s *Service) Invoice(ctx context.Context, cardID string, referenceMonth time.Time) (*InvoiceSummary, error) {
	card, err := s.store.GetCreditCard(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("invoice: %w", err)
	}
	inv, err := s.store.FindInvoice(ctx, cardID, schedule.MonthStart(referenceMonth))
	if err != nil {
		return nil, fmt.Errorf("invoice: %w", err)
	}

	if inv.Status != model.InvoicePaid {
		cycle, err := billing.CycleFor(inv.ReferenceMonth, card.ClosingDay, card.DueDay)
		if err != nil {
			return nil, err
		}
		if status := billing.StatusAt(cycle, s.Today()); status != inv.Status {
			if err := s.store.SetInvoiceStatus(ctx, inv.ID, status); err != nil {
				return nil, fmt.Errorf("invoice status: %w", err)
			}
			inv.Status = status
		}
	}

	start, end, err := billing.PeriodBounds(inv.ReferenceMonth, card.ClosingDay)
	if err != nil {
		return nil, err
	}
	occs, err := s.store.ListOccurrences(ctx, service.OccurrenceFilter{InvoiceID: inv.ID})
	if err != nil {
		return nil, fmt.Errorf("invoice charges: %w", err)
	}
	total, err := s.InvoiceTotal(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.TotalAmount = total

	return &InvoiceSummary{
		Invoice:     *inv,
		Occurrences: occs,
		Total:       total,
		PeriodStart: start,
		PeriodEnd:   end,
	}, nil
}

// PayInvoice marks an invoice paid.
func (s *Service) PayInvoice(ctx context.Context, invoiceID string) error {
	return s.inTx(ctx, "pay invoice", func(tx service.Transaction) (service.Change, error) {
		if err := tx.SetInvoiceStatus(ctx, invoiceID, model.InvoicePaid); err != nil {
			return service.Change{}, err
		}
		return service.Change{InvoiceIDs: []string{invoiceID}}, nil
	})
}
