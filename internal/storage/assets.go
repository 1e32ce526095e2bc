package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cartera/internal/core"
)

func (q *Queries) InsertAsset(ctx context.Context, a core.Asset) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO assets (id, user_id, name, type, value_cents, description, date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, a.Type, a.Value.Cents, a.Description, fmtDate(a.Date))
	if err != nil {
		return fmt.Errorf("insert asset: %w", mapConstraintErr(err))
	}
	return nil
}

func (q *Queries) GetAsset(ctx context.Context, id string) (core.Asset, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, type, value_cents, description, date, created_at
		FROM assets WHERE id = ?`, id)
	a, err := scanAsset(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Asset{}, core.ErrNotFound
	}
	if err != nil {
		return core.Asset{}, fmt.Errorf("get asset: %w", err)
	}
	return a, nil
}

func (q *Queries) ListAssets(ctx context.Context, userID string) ([]core.Asset, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, user_id, name, type, value_cents, description, date, created_at
		FROM assets
		WHERE user_id = ?
		ORDER BY date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []core.Asset
	for rows.Next() {
		a, err := scanAsset(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (q *Queries) UpdateAsset(ctx context.Context, a core.Asset) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE assets SET name = ?, type = ?, value_cents = ?, description = ?, date = ?
		WHERE id = ?`,
		a.Name, a.Type, a.Value.Cents, a.Description, fmtDate(a.Date), a.ID)
	if err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update asset rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (q *Queries) DeleteAsset(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete asset rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// SumAssetValue nets positive and negative entries for one user.
func (q *Queries) SumAssetValue(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(value_cents), 0) FROM assets WHERE user_id = ?`, userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum asset value: %w", err)
	}
	return total, nil
}

// TypeSum pairs an asset type with a net cent amount.
type TypeSum struct {
	Type  string
	Cents int64
}

func (q *Queries) AssetTotalsByType(ctx context.Context, userID string) ([]TypeSum, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT type, COALESCE(SUM(value_cents), 0) AS total
		FROM assets
		WHERE user_id = ?
		GROUP BY type
		ORDER BY total DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("asset totals by type: %w", err)
	}
	defer rows.Close()

	var sums []TypeSum
	for rows.Next() {
		var ts TypeSum
		if err := rows.Scan(&ts.Type, &ts.Cents); err != nil {
			return nil, fmt.Errorf("scan type sum: %w", err)
		}
		sums = append(sums, ts)
	}
	return sums, rows.Err()
}

func scanAsset(scan func(dest ...any) error) (core.Asset, error) {
	var a core.Asset
	var date, createdAt string
	if err := scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Value.Cents, &a.Description, &date, &createdAt); err != nil {
		return core.Asset{}, err
	}
	a.Date = parseDate(date)
	a.CreatedAt = parseTimestamp(createdAt)
	return a, nil
}
