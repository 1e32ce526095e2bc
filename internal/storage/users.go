package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cartera/internal/core"
)

func (q *Queries) CreateUser(ctx context.Context, u core.User) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash)
		VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, nullStr(u.Email), u.PasswordHash)
	if err != nil {
		return fmt.Errorf("insert user: %w", mapConstraintErr(err))
	}
	return nil
}

// UpsertUser inserts the user or refreshes credentials when the username
// already exists.
func (q *Queries) UpsertUser(ctx context.Context, u core.User) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (username) DO UPDATE SET
			email = excluded.email,
			password_hash = excluded.password_hash`,
		u.ID, u.Username, nullStr(u.Email), u.PasswordHash)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, username, COALESCE(email, ''), password_hash, created_at
		FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func (q *Queries) GetUserByID(ctx context.Context, id string) (core.User, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, username, COALESCE(email, ''), password_hash, created_at
		FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (q *Queries) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, username, COALESCE(email, ''), password_hash, created_at
		FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		var u core.User
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &createdAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.CreatedAt = parseTimestamp(createdAt)
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	var createdAt string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = parseTimestamp(createdAt)
	return u, nil
}
