package storage

import (
	"context"
	"time"
)

// Repository groups data access by domain.
type Repository interface {
	Users() UserRepository
	Events() EventRepository
	Participants() ParticipantRepository
	Comments() CommentRepository
	PasswordResets() PasswordResetRepository

	// WithTx runs fn against a transaction-scoped Repository. A nested call
	// reuses the enclosing transaction.
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}

type UserRepository interface {
	Create(ctx context.Context, params CreateUserParams) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByGivenName(ctx context.Context, givenName string) (User, error)
	Exists(ctx context.Context, id int64) (bool, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type EventRepository interface {
	Create(ctx context.Context, params CreateEventParams) (Event, error)
	GetByID(ctx context.Context, id int64) (Event, error)
	// ListOpen returns events whose confirmation deadline is after now, soonest first.
	ListOpen(ctx context.Context, now time.Time) ([]Event, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

type ParticipantRepository interface {
	Create(ctx context.Context, params CreateParticipantParams) (Participant, error)
	Get(ctx context.Context, userID, eventID int64) (Participant, error)
	Exists(ctx context.Context, userID, eventID int64) (bool, error)
	// Confirm sets confirmed on an unconfirmed row. It reports whether a row changed.
	Confirm(ctx context.Context, userID, eventID int64) (bool, error)
	ListByEvent(ctx context.Context, eventID int64) ([]Participant, error)
	ListEventsForUser(ctx context.Context, userID int64) ([]ParticipatingEvent, error)
}

type CommentRepository interface {
	Create(ctx context.Context, params CreateCommentParams) (Comment, error)
	// ListByEvent returns comments newest first.
	ListByEvent(ctx context.Context, eventID int64) ([]Comment, error)
}

type PasswordResetRepository interface {
	Create(ctx context.Context, params CreatePasswordResetParams) (PasswordReset, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (PasswordReset, error)
	// MarkUsed consumes an unused token. ErrNotFound means it was already consumed.
	MarkUsed(ctx context.Context, id int64, usedAt time.Time) error
}

type User struct {
	ID           int64
	Name         string
	Email        string
	GivenName    string
	PasswordHash string
	CreatedAt    time.Time
}

type CreateUserParams struct {
	Name         string
	Email        string
	GivenName    string
	PasswordHash string
	CreatedAt    time.Time
}

type Event struct {
	ID            int64
	Title         string
	Date          time.Time
	Description   string
	Location      string
	Category      string
	CreatedBy     string
	UserID        *int64
	ConfirmeUntil time.Time
	CreatedAt     time.Time
}

type CreateEventParams struct {
	Title         string
	Date          time.Time
	Description   string
	Location      string
	Category      string
	CreatedBy     string
	UserID        *int64
	ConfirmeUntil time.Time
	CreatedAt     time.Time
}

type Participant struct {
	ID        int64
	UserID    int64
	EventID   int64
	Name      string
	Confirmed bool
}

type CreateParticipantParams struct {
	UserID  int64
	EventID int64
	Name    string
}

// ParticipatingEvent is a participant row joined with its event.
type ParticipatingEvent struct {
	Participant Participant
	Event       Event
}

type Comment struct {
	ID        int64
	EventID   int64
	UserID    *int64
	Author    string
	Text      string
	CreatedAt time.Time
}

type CreateCommentParams struct {
	EventID   int64
	UserID    *int64
	Author    string
	Text      string
	CreatedAt time.Time
}

type PasswordReset struct {
	ID        int64
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

type CreatePasswordResetParams struct {
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
