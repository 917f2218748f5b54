package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/simple-event-calendar/server/internal/storage"
)

// timeLayout is fixed-width UTC so that text comparison in SQL orders chronologically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode time %q: %w", value, err)
	}
	return t, nil
}

func decodeNullTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	t, err := decodeTime(value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func intPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

// mapError translates driver errors into storage sentinels.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return &storage.ConflictError{Field: conflictField(sqliteErr.Error())}
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%s: %w", op, storage.ErrForeignKey)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// conflictField reads the column list out of "UNIQUE constraint failed: users.email".
func conflictField(msg string) string {
	switch {
	case strings.Contains(msg, "users.email"):
		return "email"
	case strings.Contains(msg, "users.given_name"):
		return "given_name"
	case strings.Contains(msg, "participants.id_user"):
		return "participant"
	case strings.Contains(msg, "password_resets.token_hash"):
		return "token_hash"
	}
	return ""
}
