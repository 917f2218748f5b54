// Package sqlite implements storage.Repository on an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/simple-event-calendar/server/internal/storage"
)

// driverName is the database/sql name registered by go-sqlite3.
const driverName = "sqlite3"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repository struct {
	db *sql.DB
	tx *sql.Tx
}

// Open opens the database file named by dsn with foreign keys enforced.
// It does not run migrations.
func Open(ctx context.Context, dsn string) (*Repository, error) {
	db, err := sql.Open(driverName, DSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway and a single
	// connection keeps transactions free of SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &Repository{db: db}, nil
}

// DSN normalizes a path or file: URI and adds the connection options the
// schema depends on.
func DSN(raw string) string {
	raw = strings.TrimPrefix(raw, "sqlite3://")
	raw = strings.TrimPrefix(raw, "sqlite://")
	if !strings.HasPrefix(raw, "file:") {
		raw = "file:" + raw
	}

	base, query, _ := strings.Cut(raw, "?")
	values, err := url.ParseQuery(query)
	if err != nil {
		values = url.Values{}
	}
	setDefault(values, "_foreign_keys", "on")
	setDefault(values, "_busy_timeout", "5000")
	setDefault(values, "_journal_mode", "WAL")
	setDefault(values, "_txlock", "immediate")
	return base + "?" + values.Encode()
}

func setDefault(values url.Values, key, value string) {
	if values.Get(key) == "" {
		values.Set(key, value)
	}
}

// DB exposes the underlying handle for health checks and metrics.
func (r *Repository) DB() *sql.DB { return r.db }

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

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := &Repository{db: r.db, tx: tx}
	if err := fn(ctx, wrapped); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) queryer() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}
