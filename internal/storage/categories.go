package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cartera/internal/core"
)

func (q *Queries) ListCategories(ctx context.Context) ([]core.ExpenseCategory, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, name, description FROM expense_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.ExpenseCategory
	for rows.Next() {
		var c core.ExpenseCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (q *Queries) GetCategoryByName(ctx context.Context, name string) (core.ExpenseCategory, error) {
	var c core.ExpenseCategory
	err := q.db.QueryRowContext(ctx, `
		SELECT id, name, description FROM expense_categories WHERE name = ?`, name).
		Scan(&c.ID, &c.Name, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ExpenseCategory{}, core.ErrNotFound
	}
	if err != nil {
		return core.ExpenseCategory{}, fmt.Errorf("get category %q: %w", name, err)
	}
	return c, nil
}
