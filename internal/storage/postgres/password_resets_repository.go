package postgres

import (
	"context"
	"time"

	"github.com/simple-event-calendar/server/internal/storage"
)

type PasswordResetRepository struct {
	q queryer
}

const passwordResetColumns = `id, id_user, token_hash, expires_at, used_at, created_at`

func (r *PasswordResetRepository) Create(ctx context.Context, params storage.CreatePasswordResetParams) (storage.PasswordReset, error) {
	row := r.q.QueryRow(ctx, `
INSERT INTO password_resets (id_user, token_hash, expires_at, created_at)
VALUES ($1, $2, $3, $4)
RETURNING `+passwordResetColumns,
		params.UserID, params.TokenHash, params.ExpiresAt, params.CreatedAt)
	reset, err := scanPasswordReset(row)
	if err != nil {
		return storage.PasswordReset{}, mapError("create password reset", err)
	}
	return reset, nil
}

func (r *PasswordResetRepository) GetByTokenHash(ctx context.Context, tokenHash string) (storage.PasswordReset, error) {
	row := r.q.QueryRow(ctx, `SELECT `+passwordResetColumns+` FROM password_resets WHERE token_hash = $1`, tokenHash)
	reset, err := scanPasswordReset(row)
	if err != nil {
		return storage.PasswordReset{}, mapError("get password reset", err)
	}
	return reset, nil
}

func (r *PasswordResetRepository) MarkUsed(ctx context.Context, id int64, usedAt time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE password_resets SET used_at = $1 WHERE id = $2 AND used_at IS NULL`,
		usedAt, id)
	if err != nil {
		return mapError("mark password reset used", err)
	}
	return requireAffected(tag)
}

func scanPasswordReset(row rowScanner) (storage.PasswordReset, error) {
	var reset storage.PasswordReset
	err := row.Scan(&reset.ID, &reset.UserID, &reset.TokenHash, &reset.ExpiresAt, &reset.UsedAt, &reset.CreatedAt)
	return reset, err
}
