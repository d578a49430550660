package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/shopspring/decimal"
)

const invoiceColumns = `id, credit_card_id, reference_month, closing_date, due_date, status`

// EnsureInvoice returns the invoice of (card, reference month), inserting the
// given one when none exists. Concurrent callers converge on one row.
func (s *SQLiteStorage) EnsureInvoice(ctx context.Context, invoice *model.Invoice) (*model.Invoice, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, fmt.Errorf("%w: invoice", ErrNilParameter)
	}
	if err := validateString(invoice.ID, "invoice.ID"); err != nil {
		return nil, err
	}
	if err := validateString(invoice.CreditCardID, "invoice.CreditCardID"); err != nil {
		return nil, err
	}
	status := invoice.Status
	if status == "" {
		status = model.InvoiceOpen
	}

	var result *model.Invoice
	err := s.inTx(ctx, func(q queryable) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO invoices (id, credit_card_id, reference_month, closing_date, due_date, status)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (credit_card_id, reference_month) DO NOTHING`,
			invoice.ID, invoice.CreditCardID, formatDate(invoice.ReferenceMonth),
			formatDate(invoice.ClosingDate), formatDate(invoice.DueDate), string(status))
		if err != nil {
			return storeError("insert invoice", err)
		}

		result, err = scanInvoice(q.QueryRowContext(ctx,
			`SELECT `+invoiceColumns+` FROM invoices WHERE credit_card_id = ? AND reference_month = ?`,
			invoice.CreditCardID, formatDate(invoice.ReferenceMonth)))
		return storeError("load invoice", err)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetInvoice retrieves an invoice by ID.
func (s *SQLiteStorage) GetInvoice(ctx context.Context, id string) (*model.Invoice, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	inv, err := scanInvoice(s.q.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id))
	if err != nil {
		return nil, storeError(fmt.Sprintf("get invoice %s", id), err)
	}
	return inv, nil
}

// FindInvoice retrieves the invoice of a card for a reference month.
func (s *SQLiteStorage) FindInvoice(ctx context.Context, cardID string, referenceMonth time.Time) (*model.Invoice, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	inv, err := scanInvoice(s.q.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE credit_card_id = ? AND reference_month = ?`,
		cardID, formatDate(referenceMonth)))
	if err != nil {
		return nil, storeError(fmt.Sprintf("find invoice %s %s", cardID, referenceMonth.Format("2006-01")), err)
	}
	return inv, nil
}

// ListInvoices returns a card's invoices, oldest first.
func (s *SQLiteStorage) ListInvoices(ctx context.Context, cardID string) ([]model.Invoice, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE credit_card_id = ? ORDER BY reference_month`, cardID)
	if err != nil {
		return nil, storeError("query invoices", err)
	}
	defer func() { _ = rows.Close() }()

	var invoices []model.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, storeError("scan invoice", err)
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate invoices", err)
	}
	return invoices, nil
}

// SetInvoiceStatus changes an invoice's status.
func (s *SQLiteStorage) SetInvoiceStatus(ctx context.Context, id string, status model.InvoiceStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	switch status {
	case model.InvoiceOpen, model.InvoiceClosed, model.InvoicePaid:
	default:
		return common.InvalidInput("unknown invoice status %q", status)
	}

	res, err := s.q.ExecContext(ctx, `UPDATE invoices SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return storeError("update invoice status", err)
	}
	return requireOneRow(res, "invoice", id)
}

// InvoiceTotal sums the occurrences assigned to an invoice.
func (s *SQLiteStorage) InvoiceTotal(ctx context.Context, id string) (decimal.Decimal, error) {
	if err := validateContext(ctx); err != nil {
		return decimal.Zero, err
	}

	rows, err := s.q.QueryContext(ctx, `SELECT amount FROM occurrences WHERE invoice_id = ?`, id)
	if err != nil {
		return decimal.Zero, storeError("query invoice amounts", err)
	}
	defer func() { _ = rows.Close() }()

	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, storeError("scan invoice amount", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return decimal.Zero, storeError("parse invoice amount", err)
		}
		total = total.Add(d)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, storeError("iterate invoice amounts", err)
	}
	return total, nil
}

func scanInvoice(row scanner) (*model.Invoice, error) {
	var (
		inv                       model.Invoice
		ref, closing, due, status string
		err                       error
	)
	if err = row.Scan(&inv.ID, &inv.CreditCardID, &ref, &closing, &due, &status); err != nil {
		return nil, err
	}
	if inv.ReferenceMonth, err = parseDate(ref); err != nil {
		return nil, err
	}
	if inv.ClosingDate, err = parseDate(closing); err != nil {
		return nil, err
	}
	if inv.DueDate, err = parseDate(due); err != nil {
		return nil, err
	}
	inv.Status = model.InvoiceStatus(status)
	return &inv, nil
}
