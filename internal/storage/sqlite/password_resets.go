package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/simple-event-calendar/server/internal/storage"
)

type PasswordResetRepository struct {
	q querier
}

const passwordResetColumns = `id, id_user, token_hash, expires_at, used_at, created_at`

func (r *PasswordResetRepository) Create(ctx context.Context, params storage.CreatePasswordResetParams) (storage.PasswordReset, error) {
	row := r.q.QueryRowContext(ctx, `
INSERT INTO password_resets (id_user, token_hash, expires_at, created_at)
VALUES (?, ?, ?, ?)
RETURNING `+passwordResetColumns,
		params.UserID, params.TokenHash, encodeTime(params.ExpiresAt), encodeTime(params.CreatedAt))
	reset, err := scanPasswordReset(row)
	if err != nil {
		return storage.PasswordReset{}, mapError("create password reset", err)
	}
	return reset, nil
}

func (r *PasswordResetRepository) GetByTokenHash(ctx context.Context, tokenHash string) (storage.PasswordReset, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+passwordResetColumns+` FROM password_resets WHERE token_hash = ?`, tokenHash)
	reset, err := scanPasswordReset(row)
	if err != nil {
		return storage.PasswordReset{}, mapError("get password reset", err)
	}
	return reset, nil
}

func (r *PasswordResetRepository) MarkUsed(ctx context.Context, id int64, usedAt time.Time) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE password_resets SET used_at = ? WHERE id = ? AND used_at IS NULL`,
		encodeTime(usedAt), id)
	if err != nil {
		return mapError("mark password reset used", err)
	}
	return requireAffected(result, "mark password reset used")
}

func scanPasswordReset(row rowScanner) (storage.PasswordReset, error) {
	var (
		reset                storage.PasswordReset
		expiresAt, createdAt string
		usedAt               sql.NullString
	)
	if err := row.Scan(&reset.ID, &reset.UserID, &reset.TokenHash, &expiresAt, &usedAt, &createdAt); err != nil {
		return storage.PasswordReset{}, err
	}
	var err error
	if reset.ExpiresAt, err = decodeTime(expiresAt); err != nil {
		return storage.PasswordReset{}, err
	}
	if reset.CreatedAt, err = decodeTime(createdAt); err != nil {
		return storage.PasswordReset{}, err
	}
	if reset.UsedAt, err = decodeNullTime(usedAt); err != nil {
		return storage.PasswordReset{}, err
	}
	return reset, nil
}
