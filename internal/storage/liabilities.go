package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cartera/internal/core"
)

// InsertLiabilityIgnoreDuplicate inserts the liability and reports whether a
// row was written. Seeding relies on the (user, name, month) uniqueness to
// stay idempotent.
func (q *Queries) InsertLiabilityIgnoreDuplicate(ctx context.Context, l core.FixedLiability) (bool, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO fixed_expenses (id, user_id, name, amount_cents, category_id, month_key, is_paid)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, name, month_key) DO NOTHING`,
		l.ID, l.UserID, l.Name, l.Amount.Cents, nullStr(l.CategoryID), l.Month.String(), boolInt(l.Paid))
	if err != nil {
		return false, fmt.Errorf("insert liability: %w", mapConstraintErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert liability rows affected: %w", err)
	}
	return n > 0, nil
}

func (q *Queries) InsertLiability(ctx context.Context, l core.FixedLiability) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO fixed_expenses (id, user_id, name, amount_cents, category_id, month_key, is_paid)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.Name, l.Amount.Cents, nullStr(l.CategoryID), l.Month.String(), boolInt(l.Paid))
	if err != nil {
		return fmt.Errorf("insert liability: %w", mapConstraintErr(err))
	}
	return nil
}

func (q *Queries) GetLiability(ctx context.Context, id string) (core.FixedLiability, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, amount_cents, COALESCE(category_id, ''), month_key, is_paid, created_at
		FROM fixed_expenses WHERE id = ?`, id)
	l, err := scanLiability(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.FixedLiability{}, core.ErrNotFound
	}
	if err != nil {
		return core.FixedLiability{}, fmt.Errorf("get liability: %w", err)
	}
	return l, nil
}

func (q *Queries) ListLiabilitiesByMonth(ctx context.Context, userID string, month core.MonthKey) ([]core.FixedLiability, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, user_id, name, amount_cents, COALESCE(category_id, ''), month_key, is_paid, created_at
		FROM fixed_expenses
		WHERE user_id = ? AND month_key = ?
		ORDER BY name`, userID, month.String())
	if err != nil {
		return nil, fmt.Errorf("list liabilities: %w", err)
	}
	defer rows.Close()

	var liabilities []core.FixedLiability
	for rows.Next() {
		l, err := scanLiability(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan liability: %w", err)
		}
		liabilities = append(liabilities, l)
	}
	return liabilities, rows.Err()
}

func (q *Queries) SetLiabilityPaid(ctx context.Context, id string, paid bool) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE fixed_expenses SET is_paid = ? WHERE id = ?`, boolInt(paid), id)
	if err != nil {
		return fmt.Errorf("set liability paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set liability paid rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// UpdateLiability rewrites name, amount and category. The month and paid flag
// are managed by their own operations.
func (q *Queries) UpdateLiability(ctx context.Context, l core.FixedLiability) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE fixed_expenses SET name = ?, amount_cents = ?, category_id = ?
		WHERE id = ?`,
		l.Name, l.Amount.Cents, nullStr(l.CategoryID), l.ID)
	if err != nil {
		return fmt.Errorf("update liability: %w", mapConstraintErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update liability rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// LiabilityTotals returns total and paid cent sums for one user and month.
func (q *Queries) LiabilityTotals(ctx context.Context, userID string, month core.MonthKey) (total, paid int64, err error) {
	err = q.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0),
		       COALESCE(SUM(CASE WHEN is_paid = 1 THEN amount_cents ELSE 0 END), 0)
		FROM fixed_expenses
		WHERE user_id = ? AND month_key = ?`, userID, month.String()).Scan(&total, &paid)
	if err != nil {
		return 0, 0, fmt.Errorf("liability totals: %w", err)
	}
	return total, paid, nil
}

func scanLiability(scan func(dest ...any) error) (core.FixedLiability, error) {
	var l core.FixedLiability
	var month, createdAt string
	var paid int
	if err := scan(&l.ID, &l.UserID, &l.Name, &l.Amount.Cents, &l.CategoryID, &month, &paid, &createdAt); err != nil {
		return core.FixedLiability{}, err
	}
	l.Month = core.MonthKey(month)
	l.Paid = paid == 1
	l.CreatedAt = parseTimestamp(createdAt)
	return l, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
