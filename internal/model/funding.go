package model

import (
	"fmt"
	"time"
)

// FundingKind tells whether money moves through an account or a credit card.
type FundingKind string

// Funding source kinds.
const (
	FundingAccount    FundingKind = "account"
	FundingCreditCard FundingKind = "credit_card"
)

// FundingSource references either an account or a credit card, never both.
type FundingSource struct {
	Kind FundingKind
	ID   string
}

// IsCreditCard reports whether the source is a credit card.
func (f FundingSource) IsCreditCard() bool {
	return f.Kind == FundingCreditCard
}

// Validate checks the funding reference is complete.
func (f FundingSource) Validate() error {
	switch f.Kind {
	case FundingAccount, FundingCreditCard:
	default:
		return fmt.Errorf("unknown funding kind %q", f.Kind)
	}
	if f.ID == "" {
		return fmt.Errorf("funding %s id is required", f.Kind)
	}
	return nil
}

// Account is a bank or cash account.
type Account struct {
	CreatedAt time.Time
	ID        string
	Owner     string
	Name      string
}

// CreditCard carries the billing parameters consumed by the billing cycle resolver.
type CreditCard struct {
	CreatedAt  time.Time
	ID         string
	Owner      string
	Name       string
	ClosingDay int
	DueDay     int
}

// Validate checks closing and due days are calendar days.
func (c *CreditCard) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("card name is required")
	}
	if c.ClosingDay < 1 || c.ClosingDay > 31 {
		return fmt.Errorf("closing day must be between 1 and 31, got %d", c.ClosingDay)
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return fmt.Errorf("due day must be between 1 and 31, got %d", c.DueDay)
	}
	return nil
}
