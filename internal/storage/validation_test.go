package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/shopspring/decimal"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		wantErr error
		name    string
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: nil,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: ErrNilContext,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		wantErr   error
		name      string
		s         string
		paramName string
	}{
		{name: "valid string", s: "hello", paramName: "test"},
		{name: "empty string", s: "", paramName: "test", wantErr: ErrEmptyString},
		{name: "whitespace only", s: "   \t\n  ", paramName: "test", wantErr: ErrEmptyString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.s, tt.paramName)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePredicate(t *testing.T) {
	cutoff := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	from := 3

	tests := []struct {
		wantErr error
		name    string
		where   model.OccurrencePredicate
	}{
		{
			name:  "recurrence cutoff",
			where: model.OccurrencePredicate{RecurrenceID: "r", OnlyPending: true, DueAfter: &cutoff},
		},
		{
			name:  "installment range",
			where: model.OccurrencePredicate{InstallmentGroupID: "g", InstallmentFrom: &from},
		},
		{
			name:    "unbounded",
			where:   model.OccurrencePredicate{OnlyPending: true, DueAfter: &cutoff},
			wantErr: ErrUnboundedBatch,
		},
		{
			name:    "two series",
			where:   model.OccurrencePredicate{RecurrenceID: "r", InstallmentGroupID: "g"},
			wantErr: ErrInvalidPredicate,
		},
		{
			name:    "installment number without group",
			where:   model.OccurrencePredicate{RecurrenceID: "r", InstallmentFrom: &from},
			wantErr: ErrInvalidPredicate,
		},
		{
			name:    "two cutoffs",
			where:   model.OccurrencePredicate{RecurrenceID: "r", DueAfter: &cutoff, DueOnOrAfter: &cutoff},
			wantErr: ErrInvalidPredicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePredicate(tt.where)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validatePredicate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePatch(t *testing.T) {
	negative := decimal.RequireFromString("-1")
	blank := "  "
	desc := "ok"

	tests := []struct {
		wantErr error
		name    string
		set     model.OccurrencePatch
	}{
		{name: "description", set: model.OccurrencePatch{Description: &desc}},
		{name: "unlink only", set: model.OccurrencePatch{Unlink: true}},
		{name: "empty", set: model.OccurrencePatch{}, wantErr: ErrEmptyPatch},
		{name: "negative amount", set: model.OccurrencePatch{Amount: &negative}, wantErr: common.ErrInvalidInput},
		{name: "blank description", set: model.OccurrencePatch{Description: &blank}, wantErr: common.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePatch(tt.set)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validatePatch() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
