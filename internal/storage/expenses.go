package storage

import (
	"context"
	"database/sql"
	"fmt"

	"cartera/internal/core"
)

// ExpenseFilter narrows ListExpenses to manual or liability-generated rows.
type ExpenseFilter string

const (
	FilterAll     ExpenseFilter = "all"
	FilterRegular ExpenseFilter = "regular"
	FilterFixed   ExpenseFilter = "fixed"
)

func (q *Queries) InsertExpense(ctx context.Context, e core.Expense) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO expenses (id, user_id, amount_cents, category_id, description, date, payment_source, source_liability_id, source_month)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Amount.Cents, nullStr(e.CategoryID), e.Description,
		fmtDate(e.Date), string(e.Wallet), nullStr(e.SourceLiabilityID), nullStr(e.SourceMonth.String()))
	if err != nil {
		return fmt.Errorf("insert expense: %w", mapConstraintErr(err))
	}
	return nil
}

func (q *Queries) SumExpensesByWallet(ctx context.Context, w core.Wallet) (int64, error) {
	var total int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE payment_source = ?`,
		string(w)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum expenses for %s: %w", w, err)
	}
	return total, nil
}

func (q *Queries) ListExpenses(ctx context.Context, userID string, filter ExpenseFilter, limit int) ([]core.Expense, error) {
	query := `
		SELECT id, user_id, amount_cents, COALESCE(category_id, ''), description, date, payment_source,
		       COALESCE(source_liability_id, ''), COALESCE(source_month, ''), created_at
		FROM expenses
		WHERE user_id = ?`
	switch filter {
	case FilterRegular:
		query += ` AND source_liability_id IS NULL`
	case FilterFixed:
		query += ` AND source_liability_id IS NOT NULL`
	}
	query += ` ORDER BY date DESC, created_at DESC LIMIT ?`

	rows, err := q.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()
	return collectExpenses(rows)
}

func (q *Queries) ListExpensesBetween(ctx context.Context, userID, from, to string) ([]core.Expense, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, user_id, amount_cents, COALESCE(category_id, ''), description, date, payment_source,
		       COALESCE(source_liability_id, ''), COALESCE(source_month, ''), created_at
		FROM expenses
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list expenses between %s and %s: %w", from, to, err)
	}
	defer rows.Close()
	return collectExpenses(rows)
}

// SyntheticExpenseExists reports whether a liability already has its
// generated expense row.
func (q *Queries) SyntheticExpenseExists(ctx context.Context, liabilityID string) (bool, error) {
	var one int
	err := q.db.QueryRowContext(ctx, `
		SELECT 1 FROM expenses WHERE source_liability_id = ?`, liabilityID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check synthetic expense: %w", err)
	}
	return true, nil
}

func (q *Queries) DeleteSyntheticExpense(ctx context.Context, liabilityID string) error {
	_, err := q.db.ExecContext(ctx, `
		DELETE FROM expenses WHERE source_liability_id = ?`, liabilityID)
	if err != nil {
		return fmt.Errorf("delete synthetic expense: %w", err)
	}
	return nil
}

// CategorySum pairs a category name with a summed cent amount.
type CategorySum struct {
	Name  string
	Cents int64
}

func (q *Queries) CategorySums(ctx context.Context, userID string) ([]CategorySum, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT COALESCE(c.name, 'Uncategorized'), COALESCE(SUM(e.amount_cents), 0) AS total
		FROM expenses e
		LEFT JOIN expense_categories c ON c.id = e.category_id
		WHERE e.user_id = ?
		GROUP BY c.name
		ORDER BY total DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("category sums: %w", err)
	}
	defer rows.Close()

	var sums []CategorySum
	for rows.Next() {
		var cs CategorySum
		if err := rows.Scan(&cs.Name, &cs.Cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		sums = append(sums, cs)
	}
	return sums, rows.Err()
}

func (q *Queries) MonthlyExpenseTotals(ctx context.Context, userID string) ([]MonthTotal, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT substr(date, 1, 7) AS month, COALESCE(SUM(amount_cents), 0)
		FROM expenses
		WHERE user_id = ?
		GROUP BY month
		ORDER BY month`, userID)
	if err != nil {
		return nil, fmt.Errorf("monthly expense totals: %w", err)
	}
	defer rows.Close()

	var totals []MonthTotal
	for rows.Next() {
		var mt MonthTotal
		var month string
		if err := rows.Scan(&month, &mt.Cents); err != nil {
			return nil, fmt.Errorf("scan month total: %w", err)
		}
		mt.Month = core.MonthKey(month)
		totals = append(totals, mt)
	}
	return totals, rows.Err()
}

func collectExpenses(rows *sql.Rows) ([]core.Expense, error) {
	var expenses []core.Expense
	for rows.Next() {
		var e core.Expense
		var date, wallet, sourceMonth, createdAt string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount.Cents, &e.CategoryID, &e.Description,
			&date, &wallet, &e.SourceLiabilityID, &sourceMonth, &createdAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Date = parseDate(date)
		e.Wallet = core.Wallet(wallet)
		e.SourceMonth = core.MonthKey(sourceMonth)
		e.CreatedAt = parseTimestamp(createdAt)
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}
