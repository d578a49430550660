// Package service defines the contracts between the ledger core and its collaborators.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/shopspring/decimal"
)

// OccurrenceFilter defines filtering options for occurrence queries.
type OccurrenceFilter struct {
	From         *time.Time
	To           *time.Time
	Status       model.OccurrenceStatus
	CreditCardID string
	InvoiceID    string
	// WithoutInvoice selects credit card expenses not yet assigned to an invoice.
	WithoutInvoice bool
	Limit          int
}

// OccurrenceStore is the persistence boundary for ledger entries. Batch
// predicates are evaluated by the store when the command commits.
type OccurrenceStore interface {
	InsertBatch(ctx context.Context, occurrences []model.Occurrence) error
	UpdateWhere(ctx context.Context, where model.OccurrencePredicate, set model.OccurrencePatch) (int64, error)
	DeleteWhere(ctx context.Context, where model.OccurrencePredicate) (int64, error)
	FindSeries(ctx context.Context, kind model.SeriesKind, seriesID string) ([]model.Occurrence, error)
	GetOccurrence(ctx context.Context, id string) (*model.Occurrence, error)
	ListOccurrences(ctx context.Context, filter OccurrenceFilter) ([]model.Occurrence, error)
	LastDueDate(ctx context.Context, recurrenceID string) (*time.Time, error)
	HasExternalID(ctx context.Context, externalID string) (bool, error)
}

// SeriesStore persists recurrences and installment groups.
type SeriesStore interface {
	CreateRecurrence(ctx context.Context, rec *model.Recurrence) error
	GetRecurrence(ctx context.Context, id string) (*model.Recurrence, error)
	ListRecurrences(ctx context.Context, activeOnly bool) ([]model.Recurrence, error)
	UpdateRecurrence(ctx context.Context, rec *model.Recurrence) error

	CreateInstallmentGroup(ctx context.Context, group *model.InstallmentGroup) error
	GetInstallmentGroup(ctx context.Context, id string) (*model.InstallmentGroup, error)
	UpdateInstallmentGroup(ctx context.Context, group *model.InstallmentGroup) error
}

// ReferenceStore persists accounts, cards and categories.
type ReferenceStore interface {
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)

	CreateCreditCard(ctx context.Context, card *model.CreditCard) error
	GetCreditCard(ctx context.Context, id string) (*model.CreditCard, error)
	ListCreditCards(ctx context.Context) ([]model.CreditCard, error)

	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

// InvoiceStore persists credit card invoices.
type InvoiceStore interface {
	// EnsureInvoice returns the invoice of (card, reference month), creating it if missing.
	EnsureInvoice(ctx context.Context, invoice *model.Invoice) (*model.Invoice, error)
	GetInvoice(ctx context.Context, id string) (*model.Invoice, error)
	FindInvoice(ctx context.Context, cardID string, referenceMonth time.Time) (*model.Invoice, error)
	ListInvoices(ctx context.Context, cardID string) ([]model.Invoice, error)
	SetInvoiceStatus(ctx context.Context, id string, status model.InvoiceStatus) error
	InvoiceTotal(ctx context.Context, id string) (decimal.Decimal, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	OccurrenceStore
	SeriesStore
	ReferenceStore
	InvoiceStore

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}

// Change describes what a committed batch touched.
type Change struct {
	SeriesKind model.SeriesKind
	SeriesID   string
	InvoiceIDs []string
}

// ChangeNotifier is invoked after every successful batch.
type ChangeNotifier interface {
	Notify(ctx context.Context, change Change)
}

// NopNotifier ignores changes.
type NopNotifier struct{}

// Notify does nothing.
func (NopNotifier) Notify(context.Context, Change) {}
