package ledger

import (
	"context"
	"log/slog"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/mutation"
	"github.com/Veraticus/the-ledger-must-balance/internal/schedule"
	"github.com/Veraticus/the-ledger-must-balance/internal/service"
	"github.com/shopspring/decimal"
)

// CreateTransaction records a one-off entry. Entries without a status are
// confirmed when due today or earlier. Card expenses go to the invoice of
// their purchase date.
func (s *Service) CreateTransaction(ctx context.Context, occ *model.Occurrence) error {
	if occ == nil {
		return common.InvalidInput("transaction is required")
	}
	if occ.RecurrenceID != nil || occ.InstallmentGroupID != nil {
		return common.InvalidInput("one-off transactions cannot belong to a series")
	}
	if occ.ID == "" {
		occ.ID = s.newID()
	}
	occ.DueDate = schedule.Day(occ.DueDate)
	if occ.Status == "" {
		occ.Status = model.StatusPending
		if !occ.DueDate.After(s.Today()) {
			occ.Status = model.StatusConfirmed
		}
	}
	occ.IsRecurring = false
	if err := occ.Validate(); err != nil {
		return err
	}

	return s.inTx(ctx, "create transaction", func(tx service.Transaction) (service.Change, error) {
		batch := []model.Occurrence{*occ}
		r := s.newInvoiceResolver(tx)
		if err := r.assign(ctx, batch); err != nil {
			return service.Change{}, err
		}
		if err := tx.InsertBatch(ctx, batch); err != nil {
			return service.Change{}, err
		}
		occ.InvoiceID = batch[0].InvoiceID
		return service.Change{InvoiceIDs: r.touched}, nil
	})
}

// ConfirmOccurrence marks a pending occurrence confirmed. Confirming twice is
// a no-op.
func (s *Service) ConfirmOccurrence(ctx context.Context, id string) error {
	return s.inTx(ctx, "confirm occurrence", func(tx service.Transaction) (service.Change, error) {
		occ, err := tx.GetOccurrence(ctx, id)
		if err != nil {
			return service.Change{}, err
		}
		if occ.IsConfirmed() {
			return service.Change{}, nil
		}

		status := model.StatusConfirmed
		if _, err := tx.UpdateWhere(ctx,
			model.OccurrencePredicate{ID: id},
			model.OccurrencePatch{Status: &status}); err != nil {
			return service.Change{}, err
		}
		return changeOf(occ, nil), nil
	})
}

// EditOccurrence applies changes to an occurrence and, with
// mutation.ScopeThisAndFuture, to the pending remainder of its series.
func (s *Service) EditOccurrence(ctx context.Context, id string, changes mutation.Changes, scope mutation.Scope) (mutation.Decision, error) {
	var decision mutation.Decision
	err := s.inTx(ctx, "edit occurrence", func(tx service.Transaction) (service.Change, error) {
		occ, series, err := s.loadWithSeries(ctx, tx, id)
		if err != nil {
			return service.Change{}, err
		}

		decision, err = mutation.ResolveEdit(occ, series, scope, changes)
		if err != nil {
			return service.Change{}, err
		}

		var moved []string
		if p := decision.ThisUpdate; p != nil && p.DueDate != nil && billable(occ) {
			r := s.newInvoiceResolver(tx)
			inv, err := r.invoiceFor(ctx, occ.Funding.ID, *p.DueDate)
			if err != nil {
				return service.Change{}, err
			}
			invoiceID := inv.ID
			p.InvoiceID = &invoiceID
			moved = r.touched
		}

		if err := s.apply(ctx, tx, series, decision); err != nil {
			return service.Change{}, err
		}
		return changeOf(occ, &decision, moved...), nil
	})
	return decision, err
}

// DeleteOccurrence removes an occurrence and, with
// mutation.ScopeThisAndFuture, the pending remainder of its series.
func (s *Service) DeleteOccurrence(ctx context.Context, id string, scope mutation.Scope) (mutation.Decision, error) {
	var decision mutation.Decision
	err := s.inTx(ctx, "delete occurrence", func(tx service.Transaction) (service.Change, error) {
		occ, series, err := s.loadWithSeries(ctx, tx, id)
		if err != nil {
			return service.Change{}, err
		}

		decision, err = mutation.ResolveDelete(occ, series, scope)
		if err != nil {
			return service.Change{}, err
		}
		if err := s.apply(ctx, tx, series, decision); err != nil {
			return service.Change{}, err
		}
		return changeOf(occ, &decision), nil
	})
	return decision, err
}

func (s *Service) loadWithSeries(ctx context.Context, tx service.Transaction, id string) (*model.Occurrence, mutation.SeriesMeta, error) {
	occ, err := tx.GetOccurrence(ctx, id)
	if err != nil {
		return nil, mutation.SeriesMeta{}, err
	}

	var meta mutation.SeriesMeta
	switch occ.SeriesKind() {
	case model.SeriesRecurrence:
		if meta.Recurrence, err = tx.GetRecurrence(ctx, *occ.RecurrenceID); err != nil {
			return nil, mutation.SeriesMeta{}, err
		}
	case model.SeriesInstallment:
		if meta.Group, err = tx.GetInstallmentGroup(ctx, *occ.InstallmentGroupID); err != nil {
			return nil, mutation.SeriesMeta{}, err
		}
	}
	return occ, meta, nil
}

// apply executes a decision. The occurrence itself is written first, then the
// bulk command, then the series template.
func (s *Service) apply(ctx context.Context, tx service.Transaction, series mutation.SeriesMeta, d mutation.Decision) error {
	if d.ThisUpdate != nil {
		if _, err := tx.UpdateWhere(ctx, model.OccurrencePredicate{ID: d.OccurrenceID}, *d.ThisUpdate); err != nil {
			return err
		}
	}
	if d.DeleteThis {
		if _, err := tx.DeleteWhere(ctx, model.OccurrencePredicate{ID: d.OccurrenceID}); err != nil {
			return err
		}
	}

	if b := d.Bulk; b != nil {
		var (
			n   int64
			err error
		)
		switch b.Action {
		case mutation.BulkUpdate:
			n, err = tx.UpdateWhere(ctx, b.Where, b.Set)
		case mutation.BulkDelete:
			n, err = tx.DeleteWhere(ctx, b.Where)
		}
		if err != nil {
			return err
		}
		slog.Info("applied series change", "decision", d.String(), "rows", n)
	}

	if u := d.SeriesUpdate; u != nil {
		return s.applySeriesUpdate(ctx, tx, series, u)
	}
	return nil
}

func (s *Service) applySeriesUpdate(ctx context.Context, tx service.Transaction, series mutation.SeriesMeta, u *mutation.SeriesUpdate) error {
	switch u.Kind {
	case model.SeriesRecurrence:
		rec := series.Recurrence
		if rec == nil {
			return common.ConsistencyViolation("recurrence %s not loaded", u.ID)
		}
		if u.Amount != nil {
			rec.Amount = *u.Amount
		}
		if u.Description != nil {
			rec.Description = *u.Description
		}
		if u.CategoryID != nil {
			rec.CategoryID = u.CategoryID
		}
		if u.EndDate != nil {
			end := *u.EndDate
			rec.EndDate = &end
		}
		if u.Deactivate {
			rec.IsActive = false
		}
		return tx.UpdateRecurrence(ctx, rec)

	case model.SeriesInstallment:
		group := series.Group
		if group == nil {
			return common.ConsistencyViolation("installment group %s not loaded", u.ID)
		}
		if u.Amount != nil {
			group.InstallmentAmount = *u.Amount
		}
		if u.Description != nil {
			group.Description = *u.Description
		}
		if u.CategoryID != nil {
			group.CategoryID = u.CategoryID
		}

		// The group total follows its installments.
		occs, err := tx.FindSeries(ctx, model.SeriesInstallment, group.ID)
		if err != nil {
			return err
		}
		total := decimal.Zero
		for i := range occs {
			total = total.Add(occs[i].Amount)
		}
		group.TotalAmount = total
		return tx.UpdateInstallmentGroup(ctx, group)
	}
	return common.InvalidInput("unknown series kind %q", u.Kind)
}

// changeOf describes what a mutation of occ touched. Bulk commands may span
// many invoices, so they name none and let listeners drop everything for the
// series.
func changeOf(occ *model.Occurrence, d *mutation.Decision, extraInvoices ...string) service.Change {
	change := service.Change{SeriesKind: occ.SeriesKind()}
	switch change.SeriesKind {
	case model.SeriesRecurrence:
		change.SeriesID = *occ.RecurrenceID
	case model.SeriesInstallment:
		change.SeriesID = *occ.InstallmentGroupID
	}
	if d != nil && d.Bulk != nil {
		return change
	}
	if occ.InvoiceID != nil {
		change.InvoiceIDs = append(change.InvoiceIDs, *occ.InvoiceID)
	}
	change.InvoiceIDs = append(change.InvoiceIDs, extraInvoices...)
	return change
}
