package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AmountMode says how the amount of an installment purchase was entered.
type AmountMode string

// Amount modes.
const (
	AmountTotal          AmountMode = "total"
	AmountPerInstallment AmountMode = "per_installment"
)

// InstallmentGroup is a purchase split across a fixed number of installments.
// StartingInstallment allows entering a purchase that is already partially paid.
type InstallmentGroup struct {
	FirstInstallmentDate time.Time
	CreatedAt            time.Time
	CategoryID           *string
	InstallmentAmount    decimal.Decimal
	TotalAmount          decimal.Decimal
	Funding              FundingSource
	ID                   string
	Owner                string
	Description          string
	Frequency            Frequency
	TotalInstallments    int
	StartingInstallment  int
}

// OccurrenceCount is the number of entries the group materialises.
func (g *InstallmentGroup) OccurrenceCount() int {
	return g.TotalInstallments - g.StartingInstallment + 1
}

// Contains reports whether n is an installment number this group generates.
func (g *InstallmentGroup) Contains(n int) bool {
	return n >= g.StartingInstallment && n <= g.TotalInstallments
}
