// Package mutation decides which records an edit or delete of a series
// occurrence touches.
//
// A this-and-future operation never reaches confirmed occurrences: every bulk
// predicate it produces is restricted to pending entries, and targeting a
// confirmed occurrence with that scope is rejected outright.
package mutation

import (
	"fmt"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/schedule"
	"github.com/shopspring/decimal"
)

// Scope selects how far an edit or delete reaches into a series.
type Scope string

// Scopes.
const (
	ScopeThisOnly      Scope = "this_only"
	ScopeThisAndFuture Scope = "this_and_future"
)

// ParseScope validates a scope name.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeThisOnly, ScopeThisAndFuture:
		return Scope(s), nil
	}
	return "", common.InvalidInput("unknown scope %q (want %s or %s)", s, ScopeThisOnly, ScopeThisAndFuture)
}

// Changes is a user edit of an occurrence. Nil fields are left alone.
type Changes struct {
	Amount      *decimal.Decimal
	Description *string
	CategoryID  *string
	DueDate     *time.Time
}

// IsEmpty reports whether the edit changes nothing.
func (c Changes) IsEmpty() bool {
	return c.Amount == nil && c.Description == nil && c.CategoryID == nil && c.DueDate == nil
}

// SeriesMeta is the parent series of an occurrence, as loaded by the caller.
type SeriesMeta struct {
	Recurrence *model.Recurrence
	Group      *model.InstallmentGroup
}

// SeriesUpdate rewrites the parent series.
type SeriesUpdate struct {
	Amount      *decimal.Decimal // recurrence amount or group installment amount
	Description *string
	CategoryID  *string
	EndDate     *time.Time
	Kind        model.SeriesKind
	ID          string
	Deactivate  bool
}

// BulkAction is the kind of batch command.
type BulkAction string

// Bulk actions.
const (
	BulkUpdate BulkAction = "update"
	BulkDelete BulkAction = "delete"
)

// Bulk is a filtered batch command against a series.
type Bulk struct {
	Set    model.OccurrencePatch
	Action BulkAction
	Where  model.OccurrencePredicate
}

// Decision is the full set of writes an edit or delete resolves to.
type Decision struct {
	ThisUpdate   *model.OccurrencePatch
	SeriesUpdate *SeriesUpdate
	Bulk         *Bulk
	OccurrenceID string
	DeleteThis   bool
}

// ResolveEdit computes the writes for editing occ with the given scope.
func ResolveEdit(occ *model.Occurrence, series SeriesMeta, scope Scope, changes Changes) (Decision, error) {
	kind, err := check(occ, series, scope)
	if err != nil {
		return Decision{}, err
	}
	if err := validateChanges(changes); err != nil {
		return Decision{}, err
	}

	patch := patchFrom(changes)
	d := Decision{OccurrenceID: occ.ID}

	if scope == ScopeThisOnly {
		// Editing a single recurring occurrence detaches it from the template.
		patch.Unlink = kind == model.SeriesRecurrence
		d.ThisUpdate = &patch
		return d, nil
	}

	if changes.DueDate != nil {
		return Decision{}, common.InvalidInput("due date can only be changed for a single occurrence")
	}

	template := model.OccurrencePatch{
		Amount:      changes.Amount,
		Description: changes.Description,
		CategoryID:  changes.CategoryID,
	}

	switch kind {
	case model.SeriesRecurrence:
		due := schedule.Day(occ.DueDate)
		d.ThisUpdate = &patch
		d.SeriesUpdate = &SeriesUpdate{
			Kind:        kind,
			ID:          *occ.RecurrenceID,
			Amount:      changes.Amount,
			Description: changes.Description,
			CategoryID:  changes.CategoryID,
		}
		d.Bulk = &Bulk{
			Action: BulkUpdate,
			Set:    template,
			Where: model.OccurrencePredicate{
				RecurrenceID: *occ.RecurrenceID,
				OnlyPending:  true,
				DueAfter:     &due,
			},
		}
	case model.SeriesInstallment:
		from := *occ.InstallmentNumber
		d.SeriesUpdate = &SeriesUpdate{
			Kind:        kind,
			ID:          *occ.InstallmentGroupID,
			Amount:      changes.Amount,
			Description: changes.Description,
			CategoryID:  changes.CategoryID,
		}
		d.Bulk = &Bulk{
			Action: BulkUpdate,
			Set:    template,
			Where: model.OccurrencePredicate{
				InstallmentGroupID: *occ.InstallmentGroupID,
				OnlyPending:        true,
				InstallmentFrom:    &from,
			},
		}
	}

	return d, nil
}

// ResolveDelete computes the writes for deleting occ with the given scope.
func ResolveDelete(occ *model.Occurrence, series SeriesMeta, scope Scope) (Decision, error) {
	kind, err := check(occ, series, scope)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{OccurrenceID: occ.ID}
	if scope == ScopeThisOnly {
		d.DeleteThis = true
		return d, nil
	}

	switch kind {
	case model.SeriesRecurrence:
		due := schedule.Day(occ.DueDate)
		end := due.AddDate(0, 0, -1)
		d.SeriesUpdate = &SeriesUpdate{
			Kind:       kind,
			ID:         *occ.RecurrenceID,
			EndDate:    &end,
			Deactivate: true,
		}
		d.Bulk = &Bulk{
			Action: BulkDelete,
			Where: model.OccurrencePredicate{
				RecurrenceID: *occ.RecurrenceID,
				OnlyPending:  true,
				DueOnOrAfter: &due,
			},
		}
	case model.SeriesInstallment:
		from := *occ.InstallmentNumber
		d.Bulk = &Bulk{
			Action: BulkDelete,
			Where: model.OccurrencePredicate{
				InstallmentGroupID: *occ.InstallmentGroupID,
				OnlyPending:        true,
				InstallmentFrom:    &from,
			},
		}
	}

	return d, nil
}

func check(occ *model.Occurrence, series SeriesMeta, scope Scope) (model.SeriesKind, error) {
	if occ == nil {
		return "", common.InvalidInput("occurrence is required")
	}
	if _, err := ParseScope(string(scope)); err != nil {
		return "", err
	}
	if occ.RecurrenceID != nil && occ.InstallmentGroupID != nil {
		return "", common.ConsistencyViolation("occurrence %s belongs to both a recurrence and an installment group", occ.ID)
	}

	kind := occ.SeriesKind()
	switch kind {
	case model.SeriesNone:
		if scope == ScopeThisAndFuture {
			return "", common.InvalidInput("occurrence %s is not part of a series", occ.ID)
		}
		return kind, nil
	case model.SeriesRecurrence:
		if series.Recurrence != nil && series.Recurrence.ID != *occ.RecurrenceID {
			return "", common.ConsistencyViolation("occurrence %s references recurrence %s, got %s",
				occ.ID, *occ.RecurrenceID, series.Recurrence.ID)
		}
	case model.SeriesInstallment:
		if occ.InstallmentNumber == nil {
			return "", common.ConsistencyViolation("occurrence %s is missing its installment number", occ.ID)
		}
		if g := series.Group; g != nil {
			if g.ID != *occ.InstallmentGroupID {
				return "", common.ConsistencyViolation("occurrence %s references installment group %s, got %s",
					occ.ID, *occ.InstallmentGroupID, g.ID)
			}
			if !g.Contains(*occ.InstallmentNumber) {
				return "", common.ConsistencyViolation("installment %d is outside %d..%d",
					*occ.InstallmentNumber, g.StartingInstallment, g.TotalInstallments)
			}
		}
	}

	if scope == ScopeThisAndFuture && occ.IsConfirmed() {
		return "", common.ConsistencyViolation("occurrence %s is confirmed; only this_only changes are allowed", occ.ID)
	}
	return kind, nil
}

func validateChanges(c Changes) error {
	if c.IsEmpty() {
		return common.InvalidInput("edit changes nothing")
	}
	if c.Amount != nil {
		if !c.Amount.IsPositive() {
			return common.InvalidInput("amount must be positive, got %s", c.Amount)
		}
		if !model.WholeCents(*c.Amount) {
			return common.InvalidInput("amount %s has fractional cents", c.Amount)
		}
	}
	if c.Description != nil && *c.Description == "" {
		return common.InvalidInput("description must not be empty")
	}
	if c.DueDate != nil && c.DueDate.IsZero() {
		return common.InvalidInput("due date must not be empty")
	}
	return nil
}

func patchFrom(c Changes) model.OccurrencePatch {
	p := model.OccurrencePatch{
		Amount:      c.Amount,
		Description: c.Description,
		CategoryID:  c.CategoryID,
	}
	if c.DueDate != nil {
		due := schedule.Day(*c.DueDate)
		p.DueDate = &due
	}
	return p
}

// String renders a decision for logs.
func (d Decision) String() string {
	s := fmt.Sprintf("occurrence=%s", d.OccurrenceID)
	if d.DeleteThis {
		s += " delete-this"
	}
	if d.ThisUpdate != nil {
		s += " update-this"
	}
	if d.SeriesUpdate != nil {
		s += fmt.Sprintf(" series=%s:%s", d.SeriesUpdate.Kind, d.SeriesUpdate.ID)
	}
	if d.Bulk != nil {
		s += " bulk-" + string(d.Bulk.Action)
	}
	return s
}
