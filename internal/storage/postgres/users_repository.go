package postgres

import (
	"context"

	"github.com/simple-event-calendar/server/internal/storage"
)

type UserRepository struct {
	q queryer
}

const userColumns = `id, name, email, given_name, password, created_at`

func (r *UserRepository) Create(ctx context.Context, params storage.CreateUserParams) (storage.User, error) {
	row := r.q.QueryRow(ctx, `
INSERT INTO users (name, email, given_name, password, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+userColumns,
		params.Name, params.Email, params.GivenName, params.PasswordHash, params.CreatedAt)
	user, err := scanUser(row)
	if err != nil {
		return storage.User{}, mapError("create user", err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (storage.User, error) {
	return r.getOne(ctx, "get user by id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (storage.User, error) {
	return r.getOne(ctx, "get user by email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) GetByGivenName(ctx context.Context, givenName string) (storage.User, error) {
	return r.getOne(ctx, "get user by given name", `SELECT `+userColumns+` FROM users WHERE given_name = $1`, givenName)
}

func (r *UserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, mapError("user exists", err)
	}
	return exists, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.q.Exec(ctx, `UPDATE users SET password = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return mapError("update password", err)
	}
	return requireAffected(tag)
}

func (r *UserRepository) getOne(ctx context.Context, op, query string, arg any) (storage.User, error) {
	user, err := scanUser(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		return storage.User{}, mapError(op, err)
	}
	return user, nil
}

func scanUser(row rowScanner) (storage.User, error) {
	var user storage.User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.GivenName, &user.PasswordHash, &user.CreatedAt)
	return user, err
}
