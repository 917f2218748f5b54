package storage

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("unique constraint violation")
	ErrForeignKey = errors.New("foreign key violation")
)

// ConflictError reports which unique column rejected a write.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	if e.Field == "" {
		return ErrConflict.Error()
	}
	return fmt.Sprintf("%s: %s", ErrConflict, e.Field)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// ConflictField returns the conflicting column of err, or "" when err is not a conflict.
func ConflictField(err error) string {
	var c *ConflictError
	if errors.As(err, &c) {
		return c.Field
	}
	return ""
}
