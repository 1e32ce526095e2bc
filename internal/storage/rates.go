package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cartera/internal/core"

	"github.com/shopspring/decimal"
)

// ActiveRate returns the currently active exchange rate, or core.ErrNotFound
// when no rate has been activated yet.
func (q *Queries) ActiveRate(ctx context.Context) (core.ExchangeRate, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, rate, date, is_active, notes, created_at
		FROM exchange_rates WHERE is_active = 1`)
	r, err := scanRate(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ExchangeRate{}, core.ErrNotFound
	}
	if err != nil {
		return core.ExchangeRate{}, fmt.Errorf("get active rate: %w", err)
	}
	return r, nil
}

func (q *Queries) InsertRate(ctx context.Context, r core.ExchangeRate) error {
	active := 0
	if r.Active {
		active = 1
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO exchange_rates (id, rate, date, is_active, notes)
		VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Rate.String(), fmtDate(r.Date), active, r.Notes)
	if err != nil {
		return fmt.Errorf("insert rate: %w", mapConstraintErr(err))
	}
	return nil
}

func (q *Queries) DeactivateRates(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE exchange_rates SET is_active = 0 WHERE is_active = 1`)
	if err != nil {
		return fmt.Errorf("deactivate rates: %w", err)
	}
	return nil
}

func (q *Queries) ActivateRate(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE exchange_rates SET is_active = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("activate rate: %w", mapConstraintErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("activate rate rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (q *Queries) ListRates(ctx context.Context, limit int) ([]core.ExchangeRate, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, rate, date, is_active, notes, created_at
		FROM exchange_rates
		ORDER BY date DESC, created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list rates: %w", err)
	}
	defer rows.Close()

	var rates []core.ExchangeRate
	for rows.Next() {
		r, err := scanRate(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan rate: %w", err)
		}
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

func scanRate(scan func(dest ...any) error) (core.ExchangeRate, error) {
	var r core.ExchangeRate
	var rate, date, createdAt string
	var active int
	if err := scan(&r.ID, &rate, &date, &active, &r.Notes, &createdAt); err != nil {
		return core.ExchangeRate{}, err
	}
	d, err := decimal.NewFromString(rate)
	if err != nil {
		return core.ExchangeRate{}, fmt.Errorf("parse stored rate %q: %w", rate, err)
	}
	r.Rate = d
	r.Date = parseDate(date)
	r.Active = active == 1
	r.CreatedAt = parseTimestamp(createdAt)
	return r, nil
}
