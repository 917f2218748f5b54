package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/simple-event-calendar/server/internal/storage"
)

type EventRepository struct {
	q querier
}

const eventColumns = `id, title, date, description, location, category, created_by, id_user, confirme_until, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *EventRepository) Create(ctx context.Context, params storage.CreateEventParams) (storage.Event, error) {
	row := r.q.QueryRowContext(ctx, `
INSERT INTO events (title, date, description, location, category, created_by, id_user, confirme_until, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING `+eventColumns,
		params.Title,
		encodeTime(params.Date),
		params.Description,
		params.Location,
		params.Category,
		params.CreatedBy,
		nullInt(params.UserID),
		encodeTime(params.ConfirmeUntil),
		encodeTime(params.CreatedAt),
	)
	event, err := scanEvent(row)
	if err != nil {
		return storage.Event{}, mapError("create event", err)
	}
	return event, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (storage.Event, error) {
	event, err := scanEvent(r.q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if err != nil {
		return storage.Event{}, mapError("get event", err)
	}
	return event, nil
}

func (r *EventRepository) ListOpen(ctx context.Context, now time.Time) ([]storage.Event, error) {
	rows, err := r.q.QueryContext(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE confirme_until > ?
 ORDER BY date ASC, id ASC
`, encodeTime(now))
	if err != nil {
		return nil, mapError("list events", err)
	}
	defer func() { _ = rows.Close() }()

	events := make([]storage.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, mapError("scan event", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list events", err)
	}
	return events, nil
}

func (r *EventRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = ?)`, id).Scan(&exists); err != nil {
		return false, mapError("event exists", err)
	}
	return exists, nil
}

func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return mapError("delete event", err)
	}
	return requireAffected(result, "delete event")
}

func scanEvent(row rowScanner) (storage.Event, error) {
	var (
		event                          storage.Event
		date, confirmeUntil, createdAt string
		userID                         sql.NullInt64
	)
	if err := row.Scan(
		&event.ID,
		&event.Title,
		&date,
		&event.Description,
		&event.Location,
		&event.Category,
		&event.CreatedBy,
		&userID,
		&confirmeUntil,
		&createdAt,
	); err != nil {
		return storage.Event{}, err
	}
	var err error
	if event.Date, err = decodeTime(date); err != nil {
		return storage.Event{}, err
	}
	if event.ConfirmeUntil, err = decodeTime(confirmeUntil); err != nil {
		return storage.Event{}, err
	}
	if event.CreatedAt, err = decodeTime(createdAt); err != nil {
		return storage.Event{}, err
	}
	event.UserID = intPtr(userID)
	return event, nil
}
