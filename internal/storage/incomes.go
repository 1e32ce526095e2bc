package storage

import (
	"context"
	"database/sql"
	"fmt"

	"cartera/internal/core"

	"github.com/shopspring/decimal"
)

func (q *Queries) InsertIncome(ctx context.Context, in core.Income) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO income (id, user_id, name, amount_cop_cents, exchange_rate, amount_usd_cents, date, payment_source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.UserID, in.Name, in.AmountLocal.Cents, in.RateUsed.String(),
		in.AmountTarget.Cents, fmtDate(in.Date), string(in.Wallet))
	if err != nil {
		return fmt.Errorf("insert income: %w", mapConstraintErr(err))
	}
	return nil
}

// SumIncomeByWallet totals all recorded income for one payment source, in
// target-currency cents.
func (q *Queries) SumIncomeByWallet(ctx context.Context, w core.Wallet) (int64, error) {
	var total int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_usd_cents), 0) FROM income WHERE payment_source = ?`,
		string(w)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum income for %s: %w", w, err)
	}
	return total, nil
}

func (q *Queries) SumIncomeByWalletInMonth(ctx context.Context, w core.Wallet, month core.MonthKey) (int64, error) {
	var total int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_usd_cents), 0)
		FROM income
		WHERE payment_source = ? AND substr(date, 1, 7) = ?`,
		string(w), month.String()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum income for %s in %s: %w", w, month, err)
	}
	return total, nil
}

func (q *Queries) ListIncome(ctx context.Context, limit int) ([]core.Income, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, user_id, name, amount_cop_cents, exchange_rate, amount_usd_cents, date, payment_source, created_at
		FROM income
		ORDER BY date DESC, created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	defer rows.Close()
	return collectIncome(rows)
}

func (q *Queries) ListIncomeBetween(ctx context.Context, from, to string) ([]core.Income, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, user_id, name, amount_cop_cents, exchange_rate, amount_usd_cents, date, payment_source, created_at
		FROM income
		WHERE date >= ? AND date <= ?
		ORDER BY date`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list income between %s and %s: %w", from, to, err)
	}
	defer rows.Close()
	return collectIncome(rows)
}

// MonthTotal pairs a month key with a summed cent amount.
type MonthTotal struct {
	Month core.MonthKey
	Cents int64
}

func (q *Queries) MonthlyIncomeTotals(ctx context.Context) ([]MonthTotal, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT substr(date, 1, 7) AS month, COALESCE(SUM(amount_usd_cents), 0)
		FROM income
		GROUP BY month
		ORDER BY month`)
	if err != nil {
		return nil, fmt.Errorf("monthly income totals: %w", err)
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

func collectIncome(rows *sql.Rows) ([]core.Income, error) {
	var incomes []core.Income
	for rows.Next() {
		var in core.Income
		var rate, date, wallet, createdAt string
		if err := rows.Scan(&in.ID, &in.UserID, &in.Name, &in.AmountLocal.Cents, &rate,
			&in.AmountTarget.Cents, &date, &wallet, &createdAt); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		d, err := decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("parse stored income rate %q: %w", rate, err)
		}
		in.RateUsed = d
		in.Date = parseDate(date)
		in.Wallet = core.Wallet(wallet)
		in.CreatedAt = parseTimestamp(createdAt)
		incomes = append(incomes, in)
	}
	return incomes, rows.Err()
}
