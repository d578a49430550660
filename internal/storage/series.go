package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/shopspring/decimal"
)

const recurrenceColumns = `id, owner, description, amount, type, frequency, start_date, end_date,
	next_occurrence, is_active, category_id, funding_kind, funding_id, created_at`

// CreateRecurrence inserts a recurrence. NextOccurrence defaults to the start date.
func (s *SQLiteStorage) CreateRecurrence(ctx context.Context, rec *model.Recurrence) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%w: recurrence", ErrNilParameter)
	}
	if err := validateString(rec.ID, "recurrence.ID"); err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	if rec.NextOccurrence.IsZero() {
		rec.NextOccurrence = rec.StartDate
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO recurrences (
			id, owner, description, amount, type, frequency, start_date, end_date,
			next_occurrence, is_active, category_id, funding_kind, funding_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Owner, rec.Description, rec.Amount.StringFixed(2), string(rec.Type),
		string(rec.Frequency), formatDate(rec.StartDate), formatDatePtr(rec.EndDate),
		formatDate(rec.NextOccurrence), rec.IsActive, nullString(rec.CategoryID),
		string(rec.Funding.Kind), rec.Funding.ID,
	)
	return storeError(fmt.Sprintf("insert recurrence %s", rec.ID), err)
}

// GetRecurrence retrieves a recurrence by ID.
func (s *SQLiteStorage) GetRecurrence(ctx context.Context, id string) (*model.Recurrence, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	rec, err := scanRecurrence(s.q.QueryRowContext(ctx,
		`SELECT `+recurrenceColumns+` FROM recurrences WHERE id = ?`, id))
	if err != nil {
		return nil, storeError(fmt.Sprintf("get recurrence %s", id), err)
	}
	return rec, nil
}

// ListRecurrences returns recurrences ordered by description.
func (s *SQLiteStorage) ListRecurrences(ctx context.Context, activeOnly bool) ([]model.Recurrence, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + recurrenceColumns + ` FROM recurrences`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY description, id`

	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, storeError("query recurrences", err)
	}
	defer func() { _ = rows.Close() }()

	var recs []model.Recurrence
	for rows.Next() {
		rec, err := scanRecurrence(rows)
		if err != nil {
			return nil, storeError("scan recurrence", err)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate recurrences", err)
	}
	return recs, nil
}

// UpdateRecurrence rewrites the mutable template fields and the cursor.
func (s *SQLiteStorage) UpdateRecurrence(ctx context.Context, rec *model.Recurrence) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%w: recurrence", ErrNilParameter)
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	res, err := s.q.ExecContext(ctx, `
		UPDATE recurrences SET
			description = ?, amount = ?, category_id = ?, end_date = ?,
			next_occurrence = ?, is_active = ?
		WHERE id = ?`,
		rec.Description, rec.Amount.StringFixed(2), nullString(rec.CategoryID),
		formatDatePtr(rec.EndDate), formatDate(rec.NextOccurrence), rec.IsActive, rec.ID,
	)
	if err != nil {
		return storeError(fmt.Sprintf("update recurrence %s", rec.ID), err)
	}
	return requireOneRow(res, "recurrence", rec.ID)
}

func scanRecurrence(row scanner) (*model.Recurrence, error) {
	var (
		rec                                      model.Recurrence
		amount, recType, freq, start, next, kind string
		end, categoryID                          sql.NullString
	)
	err := row.Scan(&rec.ID, &rec.Owner, &rec.Description, &amount, &recType, &freq, &start, &end,
		&next, &rec.IsActive, &categoryID, &kind, &rec.Funding.ID, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	if rec.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("bad amount %q: %w", amount, err)
	}
	if rec.StartDate, err = parseDate(start); err != nil {
		return nil, err
	}
	if rec.NextOccurrence, err = parseDate(next); err != nil {
		return nil, err
	}
	if rec.EndDate, err = parseNullDate(end); err != nil {
		return nil, err
	}
	rec.Type = model.EntryType(recType)
	rec.Frequency = model.Frequency(freq)
	rec.Funding.Kind = model.FundingKind(kind)
	rec.CategoryID = stringPtr(categoryID)
	return &rec, nil
}

const groupColumns = `id, owner, description, installment_amount, total_amount, total_installments,
	starting_installment, frequency, first_installment_date, category_id, funding_kind, funding_id, created_at`

// CreateInstallmentGroup inserts an installment group.
func (s *SQLiteStorage) CreateInstallmentGroup(ctx context.Context, group *model.InstallmentGroup) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if group == nil {
		return fmt.Errorf("%w: installment group", ErrNilParameter)
	}
	if err := validateString(group.ID, "group.ID"); err != nil {
		return err
	}
	if group.StartingInstallment < 1 || group.TotalInstallments < group.StartingInstallment {
		return common.InvalidInput("installments %d..%d", group.StartingInstallment, group.TotalInstallments)
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO installment_groups (
			id, owner, description, installment_amount, total_amount, total_installments,
			starting_installment, frequency, first_installment_date, category_id, funding_kind, funding_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		group.ID, group.Owner, group.Description, group.InstallmentAmount.StringFixed(2),
		group.TotalAmount.StringFixed(2), group.TotalInstallments, group.StartingInstallment,
		string(group.Frequency), formatDate(group.FirstInstallmentDate), nullString(group.CategoryID),
		string(group.Funding.Kind), group.Funding.ID,
	)
	return storeError(fmt.Sprintf("insert installment group %s", group.ID), err)
}

// GetInstallmentGroup retrieves an installment group by ID.
func (s *SQLiteStorage) GetInstallmentGroup(ctx context.Context, id string) (*model.InstallmentGroup, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var (
		g                                model.InstallmentGroup
		amount, total, freq, first, kind string
		categoryID                       sql.NullString
	)
	err := s.q.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM installment_groups WHERE id = ?`, id).Scan(
		&g.ID, &g.Owner, &g.Description, &amount, &total, &g.TotalInstallments,
		&g.StartingInstallment, &freq, &first, &categoryID, &kind, &g.Funding.ID, &g.CreatedAt,
	)
	if err != nil {
		return nil, storeError(fmt.Sprintf("get installment group %s", id), err)
	}

	if g.InstallmentAmount, err = decimal.NewFromString(amount); err != nil {
		return nil, storeError("parse installment amount", err)
	}
	if g.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, storeError("parse total amount", err)
	}
	if g.FirstInstallmentDate, err = parseDate(first); err != nil {
		return nil, err
	}
	g.Frequency = model.Frequency(freq)
	g.Funding.Kind = model.FundingKind(kind)
	g.CategoryID = stringPtr(categoryID)
	return &g, nil
}

// UpdateInstallmentGroup rewrites the mutable group fields.
func (s *SQLiteStorage) UpdateInstallmentGroup(ctx context.Context, group *model.InstallmentGroup) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if group == nil {
		return fmt.Errorf("%w: installment group", ErrNilParameter)
	}
	if !group.InstallmentAmount.IsPositive() {
		return common.InvalidInput("installment amount must be positive, got %s", group.InstallmentAmount)
	}

	res, err := s.q.ExecContext(ctx, `
		UPDATE installment_groups SET
			description = ?, installment_amount = ?, total_amount = ?, category_id = ?
		WHERE id = ?`,
		group.Description, group.InstallmentAmount.StringFixed(2), group.TotalAmount.StringFixed(2),
		nullString(group.CategoryID), group.ID,
	)
	if err != nil {
		return storeError(fmt.Sprintf("update installment group %s", group.ID), err)
	}
	return requireOneRow(res, "installment group", group.ID)
}

func requireOneRow(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeError("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, common.ErrNotFound)
	}
	return nil
}
