package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle of a credit card bill.
type InvoiceStatus string

// Invoice statuses.
const (
	InvoiceOpen   InvoiceStatus = "open"
	InvoiceClosed InvoiceStatus = "closed"
	InvoicePaid   InvoiceStatus = "paid"
)

// Invoice is the billing period of a card for one reference month.
type Invoice struct {
	ReferenceMonth time.Time // first day of the month
	DueDate        time.Time
	ClosingDate    time.Time
	TotalAmount    decimal.Decimal
	ID             string
	CreditCardID   string
	Status         InvoiceStatus
}
