package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/schedule"
	"github.com/Veraticus/the-ledger-must-balance/internal/service"
)

// ProcessResult reports one expansion run of a recurrence.
type ProcessResult struct {
	NextOccurrence time.Time
	RecurrenceID   string
	Created        int
}

// CreateRecurrence persists a recurrence and materialises its occurrences up
// to the configured horizon.
func (s *Service) CreateRecurrence(ctx context.Context, rec *model.Recurrence) (ProcessResult, error) {
	if rec == nil {
		return ProcessResult{}, common.InvalidInput("recurrence is required")
	}
	if rec.ID == "" {
		rec.ID = s.newID()
	}
	rec.StartDate = schedule.Day(rec.StartDate)
	if rec.EndDate != nil {
		end := schedule.Day(*rec.EndDate)
		rec.EndDate = &end
	}
	if rec.NextOccurrence.IsZero() {
		rec.NextOccurrence = rec.StartDate
	}
	if err := rec.Validate(); err != nil {
		return ProcessResult{}, err
	}

	var result ProcessResult
	err := s.inTx(ctx, "create recurrence", func(tx service.Transaction) (service.Change, error) {
		created := *rec
		if err := tx.CreateRecurrence(ctx, &created); err != nil {
			return service.Change{}, err
		}
		var invoices []string
		var err error
		result, invoices, err = s.expand(ctx, tx, &created, s.cfg.HorizonMonths)
		if err != nil {
			return service.Change{}, err
		}
		return service.Change{SeriesKind: model.SeriesRecurrence, SeriesID: rec.ID, InvoiceIDs: invoices}, nil
	})
	if err != nil {
		return ProcessResult{}, err
	}
	rec.NextOccurrence = result.NextOccurrence
	return result, nil
}

// ProcessRecurrence materialises the occurrences of a recurrence up to
// horizonMonths past today. Running it again with the same or a smaller
// horizon creates nothing.
func (s *Service) ProcessRecurrence(ctx context.Context, id string, horizonMonths int) (ProcessResult, error) {
	var result ProcessResult
	err := s.inTx(ctx, "process recurrence", func(tx service.Transaction) (service.Change, error) {
		rec, err := tx.GetRecurrence(ctx, id)
		if err != nil {
			return service.Change{}, err
		}
		var invoices []string
		result, invoices, err = s.expand(ctx, tx, rec, horizonMonths)
		if err != nil {
			return service.Change{}, err
		}
		return service.Change{SeriesKind: model.SeriesRecurrence, SeriesID: id, InvoiceIDs: invoices}, nil
	})
	return result, err
}

// ProcessAll expands every active recurrence. progress, when set, is called
// after each one. A failing recurrence does not stop the others.
func (s *Service) ProcessAll(ctx context.Context, horizonMonths int, progress func(done, total int)) ([]ProcessResult, error) {
	recs, err := s.store.ListRecurrences(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list recurrences: %w", err)
	}

	results := make([]ProcessResult, 0, len(recs))
	var errs []error
	for i := range recs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		if !recs[i].Exhausted() {
			result, err := s.ProcessRecurrence(ctx, recs[i].ID, horizonMonths)
			if err != nil {
				common.LogError(ctx, err, "failed to process recurrence", common.Fields{"id": recs[i].ID})
				errs = append(errs, fmt.Errorf("recurrence %s: %w", recs[i].ID, err))
			} else {
				results = append(results, result)
			}
		}

		if progress != nil {
			progress(i+1, len(recs))
		}
	}

	return results, errors.Join(errs...)
}

// expand inserts the occurrences produced by the expander and advances the
// recurrence's next occurrence, all inside tx.
func (s *Service) expand(ctx context.Context, tx service.Transaction, rec *model.Recurrence, horizonMonths int) (ProcessResult, []string, error) {
	last, err := tx.LastDueDate(ctx, rec.ID)
	if err != nil {
		return ProcessResult{}, nil, err
	}

	exp, err := s.expander.Expand(rec, last, horizonMonths)
	if err != nil {
		return ProcessResult{}, nil, err
	}

	result := ProcessResult{RecurrenceID: rec.ID, NextOccurrence: exp.NextOccurrence}
	if len(exp.Occurrences) == 0 {
		return result, nil, nil
	}

	occs := make([]model.Occurrence, len(exp.Occurrences))
	for i, spec := range exp.Occurrences {
		recID := rec.ID
		occs[i] = model.Occurrence{
			ID:           s.newID(),
			Owner:        rec.Owner,
			Description:  rec.Description,
			Amount:       spec.Amount,
			Type:         rec.Type,
			DueDate:      spec.DueDate,
			Status:       spec.Status,
			RecurrenceID: &recID,
			IsRecurring:  true,
			CategoryID:   rec.CategoryID,
			Funding:      rec.Funding,
		}
	}

	r := s.newInvoiceResolver(tx)
	if err := r.assign(ctx, occs); err != nil {
		return ProcessResult{}, nil, err
	}
	if err := tx.InsertBatch(ctx, occs); err != nil {
		return ProcessResult{}, nil, err
	}

	rec.NextOccurrence = exp.NextOccurrence
	if err := tx.UpdateRecurrence(ctx, rec); err != nil {
		return ProcessResult{}, nil, err
	}

	result.Created = len(occs)
	common.LogInfo(ctx, "expanded recurrence", common.Fields{
		"id":              rec.ID,
		"created":         result.Created,
		"next_occurrence": result.NextOccurrence.Format(time.DateOnly),
	})
	return result, r.touched, nil
}
