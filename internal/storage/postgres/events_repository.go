package postgres

import (
	"context"
	"time"

	"github.com/simple-event-calendar/server/internal/storage"
)

type EventRepository struct {
	q queryer
}

const eventColumns = `id, title, date, description, location, category, created_by, id_user, confirme_until, created_at`

func (r *EventRepository) Create(ctx context.Context, params storage.CreateEventParams) (storage.Event, error) {
	row := r.q.QueryRow(ctx, `
INSERT INTO events (title, date, description, location, category, created_by, id_user, confirme_until, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING `+eventColumns,
		params.Title,
		params.Date,
		params.Description,
		params.Location,
		params.Category,
		params.CreatedBy,
		params.UserID,
		params.ConfirmeUntil,
		params.CreatedAt,
	)
	event, err := scanEvent(row)
	if err != nil {
		return storage.Event{}, mapError("create event", err)
	}
	return event, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (storage.Event, error) {
	event, err := scanEvent(r.q.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		return storage.Event{}, mapError("get event", err)
	}
	return event, nil
}

func (r *EventRepository) ListOpen(ctx context.Context, now time.Time) ([]storage.Event, error) {
	rows, err := r.q.Query(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE confirme_until > $1
 ORDER BY date ASC, id ASC
`, now)
	if err != nil {
		return nil, mapError("list events", err)
	}
	defer rows.Close()

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
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, mapError("event exists", err)
	}
	return exists, nil
}

func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return mapError("delete event", err)
	}
	return requireAffected(tag)
}

func scanEvent(row rowScanner) (storage.Event, error) {
	var event storage.Event
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Date,
		&event.Description,
		&event.Location,
		&event.Category,
		&event.CreatedBy,
		&event.UserID,
		&event.ConfirmeUntil,
		&event.CreatedAt,
	)
	return event, err
}
