package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/service"
	"github.com/shopspring/decimal"
)

const occurrenceColumns = `id, owner, description, amount, type, due_date, status,
	recurrence_id, is_recurring, installment_group_id, installment_number,
	category_id, funding_kind, funding_id, invoice_id, external_id, created_at`

// InsertBatch inserts all occurrences or none of them.
func (s *SQLiteStorage) InsertBatch(ctx context.Context, occurrences []model.Occurrence) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOccurrences(occurrences); err != nil {
		return err
	}

	return s.inTx(ctx, func(q queryable) error {
		for i := range occurrences {
			o := &occurrences[i]
			var externalID any
			if o.ExternalID != "" {
				externalID = o.ExternalID
			}
			var number any
			if o.InstallmentNumber != nil {
				number = *o.InstallmentNumber
			}

			_, err := q.ExecContext(ctx, `
				INSERT INTO occurrences (
					id, owner, description, amount, type, due_date, status,
					recurrence_id, is_recurring, installment_group_id, installment_number,
					category_id, funding_kind, funding_id, invoice_id, external_id
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				o.ID, o.Owner, o.Description, o.Amount.StringFixed(2), string(o.Type),
				formatDate(o.DueDate), string(o.Status),
				nullString(o.RecurrenceID), o.RecurrenceID != nil,
				nullString(o.InstallmentGroupID), number,
				nullString(o.CategoryID), string(o.Funding.Kind), o.Funding.ID,
				nullString(o.InvoiceID), externalID,
			)
			if err != nil {
				return storeError(fmt.Sprintf("insert occurrence %s", o.ID), err)
			}
		}
		return nil
	})
}

// buildWhere renders a predicate as a SQL condition.
func buildWhere(where model.OccurrencePredicate) (string, []any) {
	var conds []string
	var args []any

	if where.ID != "" {
		conds = append(conds, "id = ?")
		args = append(args, where.ID)
	}
	if where.RecurrenceID != "" {
		conds = append(conds, "recurrence_id = ?")
		args = append(args, where.RecurrenceID)
	}
	if where.InstallmentGroupID != "" {
		conds = append(conds, "installment_group_id = ?")
		args = append(args, where.InstallmentGroupID)
	}
	if where.OnlyPending {
		conds = append(conds, "status = ?")
		args = append(args, string(model.StatusPending))
	}
	if where.DueAfter != nil {
		conds = append(conds, "due_date > ?")
		args = append(args, formatDate(*where.DueAfter))
	}
	if where.DueOnOrAfter != nil {
		conds = append(conds, "due_date >= ?")
		args = append(args, formatDate(*where.DueOnOrAfter))
	}
	if where.InstallmentFrom != nil {
		conds = append(conds, "installment_number >= ?")
		args = append(args, *where.InstallmentFrom)
	}

	return strings.Join(conds, " AND "), args
}

// UpdateWhere applies set to every occurrence matching where in one statement.
func (s *SQLiteStorage) UpdateWhere(ctx context.Context, where model.OccurrencePredicate, set model.OccurrencePatch) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validatePredicate(where); err != nil {
		return 0, err
	}
	if err := validatePatch(set); err != nil {
		return 0, err
	}

	var sets []string
	var args []any
	if set.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, set.Amount.StringFixed(2))
	}
	if set.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *set.Description)
	}
	if set.CategoryID != nil {
		sets = append(sets, "category_id = ?")
		args = append(args, *set.CategoryID)
	}
	if set.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, formatDate(*set.DueDate))
	}
	if set.InvoiceID != nil {
		sets = append(sets, "invoice_id = ?")
		args = append(args, *set.InvoiceID)
	}
	if set.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*set.Status))
	}
	if set.Unlink {
		sets = append(sets, "recurrence_id = NULL", "is_recurring = 0")
	}

	cond, condArgs := buildWhere(where)
	query := "UPDATE occurrences SET " + strings.Join(sets, ", ") + " WHERE " + cond

	res, err := s.q.ExecContext(ctx, query, append(args, condArgs...)...)
	if err != nil {
		return 0, storeError("update occurrences", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeError("update occurrences", err)
	}

	slog.Debug("updated occurrences", "where", cond, "rows", n)
	return n, nil
}

// DeleteWhere removes every occurrence matching where in one statement.
func (s *SQLiteStorage) DeleteWhere(ctx context.Context, where model.OccurrencePredicate) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validatePredicate(where); err != nil {
		return 0, err
	}

	cond, args := buildWhere(where)
	res, err := s.q.ExecContext(ctx, "DELETE FROM occurrences WHERE "+cond, args...)
	if err != nil {
		return 0, storeError("delete occurrences", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeError("delete occurrences", err)
	}

	slog.Debug("deleted occurrences", "where", cond, "rows", n)
	return n, nil
}

// FindSeries returns the occurrences of a recurrence or installment group in
// due date order.
func (s *SQLiteStorage) FindSeries(ctx context.Context, kind model.SeriesKind, seriesID string) ([]model.Occurrence, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(seriesID, "seriesID"); err != nil {
		return nil, err
	}

	var query string
	switch kind {
	case model.SeriesRecurrence:
		query = `SELECT ` + occurrenceColumns + ` FROM occurrences WHERE recurrence_id = ? ORDER BY due_date, id`
	case model.SeriesInstallment:
		query = `SELECT ` + occurrenceColumns + ` FROM occurrences WHERE installment_group_id = ? ORDER BY installment_number`
	default:
		return nil, common.InvalidInput("unknown series kind %q", kind)
	}

	return s.queryOccurrences(ctx, query, seriesID)
}

// GetOccurrence retrieves a single occurrence by ID.
func (s *SQLiteStorage) GetOccurrence(ctx context.Context, id string) (*model.Occurrence, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	occ, err := scanOccurrence(s.q.QueryRowContext(ctx,
		`SELECT `+occurrenceColumns+` FROM occurrences WHERE id = ?`, id))
	if err != nil {
		return nil, storeError(fmt.Sprintf("get occurrence %s", id), err)
	}
	return occ, nil
}

// ListOccurrences returns occurrences matching filter in due date order.
func (s *SQLiteStorage) ListOccurrences(ctx context.Context, filter service.OccurrenceFilter) ([]model.Occurrence, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + occurrenceColumns + ` FROM occurrences WHERE 1 = 1`
	var args []any

	if filter.From != nil {
		query += " AND due_date >= ?"
		args = append(args, formatDate(*filter.From))
	}
	if filter.To != nil {
		query += " AND due_date <= ?"
		args = append(args, formatDate(*filter.To))
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.CreditCardID != "" {
		query += " AND funding_kind = ? AND funding_id = ?"
		args = append(args, string(model.FundingCreditCard), filter.CreditCardID)
	}
	if filter.InvoiceID != "" {
		query += " AND invoice_id = ?"
		args = append(args, filter.InvoiceID)
	}
	if filter.WithoutInvoice {
		query += " AND invoice_id IS NULL AND funding_kind = ? AND type = ?"
		args = append(args, string(model.FundingCreditCard), string(model.EntryExpense))
	}

	query += " ORDER BY due_date, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	return s.queryOccurrences(ctx, query, args...)
}

// LastDueDate returns the latest persisted due date of a recurrence, or nil
// when nothing was generated yet.
func (s *SQLiteStorage) LastDueDate(ctx context.Context, recurrenceID string) (*time.Time, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(recurrenceID, "recurrenceID"); err != nil {
		return nil, err
	}

	var last sql.NullString
	err := s.q.QueryRowContext(ctx,
		`SELECT MAX(due_date) FROM occurrences WHERE recurrence_id = ?`, recurrenceID).Scan(&last)
	if err != nil {
		return nil, storeError("last due date", err)
	}
	return parseNullDate(last)
}

// HasExternalID reports whether an imported entry with this statement id exists.
func (s *SQLiteStorage) HasExternalID(ctx context.Context, externalID string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(externalID, "externalID"); err != nil {
		return false, err
	}

	var count int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM occurrences WHERE external_id = ?`, externalID).Scan(&count)
	if err != nil {
		return false, storeError("lookup external id", err)
	}
	return count > 0, nil
}

func (s *SQLiteStorage) queryOccurrences(ctx context.Context, query string, args ...any) ([]model.Occurrence, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError("query occurrences", err)
	}
	defer func() { _ = rows.Close() }()

	var occurrences []model.Occurrence
	for rows.Next() {
		occ, err := scanOccurrence(rows)
		if err != nil {
			return nil, storeError("scan occurrence", err)
		}
		occurrences = append(occurrences, *occ)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate occurrences", err)
	}
	return occurrences, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOccurrence(row scanner) (*model.Occurrence, error) {
	var (
		occ                                        model.Occurrence
		amount, entryType, dueDate, status, kind   string
		recurrenceID, groupID, categoryID, invoice sql.NullString
		externalID                                 sql.NullString
		number                                     sql.NullInt64
	)

	err := row.Scan(
		&occ.ID, &occ.Owner, &occ.Description, &amount, &entryType, &dueDate, &status,
		&recurrenceID, &occ.IsRecurring, &groupID, &number,
		&categoryID, &kind, &occ.Funding.ID, &invoice, &externalID, &occ.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if occ.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("bad amount %q: %w", amount, err)
	}
	if occ.DueDate, err = parseDate(dueDate); err != nil {
		return nil, err
	}
	occ.Type = model.EntryType(entryType)
	occ.Status = model.OccurrenceStatus(status)
	occ.Funding.Kind = model.FundingKind(kind)
	occ.RecurrenceID = stringPtr(recurrenceID)
	occ.InstallmentGroupID = stringPtr(groupID)
	occ.CategoryID = stringPtr(categoryID)
	occ.InvoiceID = stringPtr(invoice)
	occ.ExternalID = externalID.String
	if number.Valid {
		n := int(number.Int64)
		occ.InstallmentNumber = &n
	}
	return &occ, nil
}
