package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrEmptySlice       = errors.New("slice cannot be empty")
	ErrUnboundedBatch   = errors.New("batch predicate must name a record or a series")
	ErrEmptyPatch       = errors.New("patch changes nothing")
	ErrInvalidPredicate = errors.New("invalid predicate")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateOccurrences validates a batch before anything is written.
func validateOccurrences(occurrences []model.Occurrence) error {
	if occurrences == nil {
		return fmt.Errorf("%w: occurrences", ErrNilParameter)
	}
	if len(occurrences) == 0 {
		return fmt.Errorf("%w: occurrences", ErrEmptySlice)
	}

	for i := range occurrences {
		if occurrences[i].ID == "" {
			return fmt.Errorf("occurrence at index %d: %w", i, common.InvalidInput("missing ID"))
		}
		if err := occurrences[i].Validate(); err != nil {
			return fmt.Errorf("occurrence at index %d: %w", i, err)
		}
	}
	return nil
}

// validatePredicate refuses predicates that would sweep the whole table or
// combine incompatible filters.
func validatePredicate(where model.OccurrencePredicate) error {
	if !where.Bounded() {
		return ErrUnboundedBatch
	}
	if where.RecurrenceID != "" && where.InstallmentGroupID != "" {
		return fmt.Errorf("%w: both recurrence and installment group", ErrInvalidPredicate)
	}
	if where.InstallmentFrom != nil && where.InstallmentGroupID == "" {
		return fmt.Errorf("%w: installment number filter without a group", ErrInvalidPredicate)
	}
	if where.DueAfter != nil && where.DueOnOrAfter != nil {
		return fmt.Errorf("%w: two due date cutoffs", ErrInvalidPredicate)
	}
	return nil
}

func validatePatch(set model.OccurrencePatch) error {
	if set.IsEmpty() {
		return ErrEmptyPatch
	}
	if set.Amount != nil && !set.Amount.IsPositive() {
		return common.InvalidInput("amount must be positive, got %s", set.Amount)
	}
	if set.Description != nil && strings.TrimSpace(*set.Description) == "" {
		return common.InvalidInput("description must not be empty")
	}
	return nil
}
