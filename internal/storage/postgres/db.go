// Package postgres implements storage.Repository on PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/simple-event-calendar/server/internal/storage"
)

type Repository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

// Open creates a pool for databaseURL and verifies connectivity.
func Open(ctx context.Context, databaseURL string, maxConns int) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return NewRepository(pool)
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{pool: pool}, nil
}

// Pool exposes the pool for health checks and metrics.
func (r *Repository) Pool() *pgxpool.Pool { return r.pool }

func (r *Repository) Users() storage.UserRepository {
	return &UserRepository{q: r.queryer()}
}

func (r *Repository) Events() storage.EventRepository {
	return &EventRepository{q: r.queryer()}
}

func (r *Repository) Participants() storage.ParticipantRepository {
	return &ParticipantRepository{q: r.queryer()}
}

func (r *Repository) Comments() storage.CommentRepository {
	return &CommentRepository{q: r.queryer()}
}

func (r *Repository) PasswordResets() storage.PasswordResetRepository {
	return &PasswordResetRepository{q: r.queryer()}
}

func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, storage.Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := &Repository{pool: r.pool, tx: tx}
	if err := fn(ctx, wrapped); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *Repository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

type rowScanner interface {
	Scan(dest ...any) error
}

func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return &storage.ConflictError{Field: conflictField(pgErr.ConstraintName)}
		case pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, storage.ErrForeignKey)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func conflictField(constraint string) string {
	switch {
	case strings.Contains(constraint, "users_email"):
		return "email"
	case strings.Contains(constraint, "users_given_name"):
		return "given_name"
	case strings.Contains(constraint, "participants_user_event"):
		return "participant"
	case strings.Contains(constraint, "token_hash"):
		return "token_hash"
	}
	return ""
}

func requireAffected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
