package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/simple-event-calendar/server/internal/storage"
)

type UserRepository struct {
	q querier
}

const userColumns = `id, name, email, given_name, password, created_at`

func (r *UserRepository) Create(ctx context.Context, params storage.CreateUserParams) (storage.User, error) {
	row := r.q.QueryRowContext(ctx, `
INSERT INTO users (name, email, given_name, password, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING `+userColumns,
		params.Name, params.Email, params.GivenName, params.PasswordHash, encodeTime(params.CreatedAt))
	user, err := scanUser(row)
	if err != nil {
		return storage.User{}, mapError("create user", err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (storage.User, error) {
	return r.getOne(ctx, "get user by id", `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (storage.User, error) {
	return r.getOne(ctx, "get user by email", `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *UserRepository) GetByGivenName(ctx context.Context, givenName string) (storage.User, error) {
	return r.getOne(ctx, "get user by given name", `SELECT `+userColumns+` FROM users WHERE given_name = ?`, givenName)
}

func (r *UserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = ?)`, id).Scan(&exists); err != nil {
		return false, mapError("user exists", err)
	}
	return exists, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.q.ExecContext(ctx, `UPDATE users SET password = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return mapError("update password", err)
	}
	return requireAffected(result, "update password")
}

func (r *UserRepository) getOne(ctx context.Context, op, query string, arg any) (storage.User, error) {
	user, err := scanUser(r.q.QueryRowContext(ctx, query, arg))
	if err != nil {
		return storage.User{}, mapError(op, err)
	}
	return user, nil
}

func scanUser(row rowScanner) (storage.User, error) {
	var (
		user      storage.User
		createdAt string
	)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.GivenName, &user.PasswordHash, &createdAt); err != nil {
		return storage.User{}, err
	}
	t, err := decodeTime(createdAt)
	if err != nil {
		return storage.User{}, err
	}
	user.CreatedAt = t
	return user, nil
}

func requireAffected(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
