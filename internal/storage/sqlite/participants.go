package sqlite

import (
	"context"
	"database/sql"

	"github.com/simple-event-calendar/server/internal/storage"
)

type ParticipantRepository struct {
	q querier
}

const participantColumns = `id, id_user, id_event, name_participant, confirmed`

func (r *ParticipantRepository) Create(ctx context.Context, params storage.CreateParticipantParams) (storage.Participant, error) {
	row := r.q.QueryRowContext(ctx, `
INSERT INTO participants (id_user, id_event, name_participant)
VALUES (?, ?, ?)
RETURNING `+participantColumns,
		params.UserID, params.EventID, params.Name)
	participant, err := scanParticipant(row)
	if err != nil {
		return storage.Participant{}, mapError("create participant", err)
	}
	return participant, nil
}

func (r *ParticipantRepository) Get(ctx context.Context, userID, eventID int64) (storage.Participant, error) {
	row := r.q.QueryRowContext(ctx, `
SELECT `+participantColumns+`
  FROM participants
 WHERE id_user = ? AND id_event = ?
`, userID, eventID)
	participant, err := scanParticipant(row)
	if err != nil {
		return storage.Participant{}, mapError("get participant", err)
	}
	return participant, nil
}

func (r *ParticipantRepository) Exists(ctx context.Context, userID, eventID int64) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM participants WHERE id_user = ? AND id_event = ?)`,
		userID, eventID).Scan(&exists)
	if err != nil {
		return false, mapError("participant exists", err)
	}
	return exists, nil
}

func (r *ParticipantRepository) Confirm(ctx context.Context, userID, eventID int64) (bool, error) {
	result, err := r.q.ExecContext(ctx, `
UPDATE participants
   SET confirmed = 1
 WHERE id_user = ? AND id_event = ? AND confirmed IS NULL
`, userID, eventID)
	if err != nil {
		return false, mapError("confirm participant", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, mapError("confirm participant", err)
	}
	return n > 0, nil
}

func (r *ParticipantRepository) ListByEvent(ctx context.Context, eventID int64) ([]storage.Participant, error) {
	rows, err := r.q.QueryContext(ctx, `
SELECT `+participantColumns+`
  FROM participants
 WHERE id_event = ?
 ORDER BY id ASC
`, eventID)
	if err != nil {
		return nil, mapError("list participants", err)
	}
	defer func() { _ = rows.Close() }()

	participants := make([]storage.Participant, 0)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, mapError("scan participant", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list participants", err)
	}
	return participants, nil
}

func (r *ParticipantRepository) ListEventsForUser(ctx context.Context, userID int64) ([]storage.ParticipatingEvent, error) {
	rows, err := r.q.QueryContext(ctx, `
SELECT pp.id, pp.id_user, pp.id_event, pp.name_participant, pp.confirmed,
       ev.id, ev.title, ev.date, ev.description, ev.location, ev.category,
       ev.created_by, ev.id_user, ev.confirme_until, ev.created_at
  FROM participants pp
 INNER JOIN events ev ON ev.id = pp.id_event
 WHERE pp.id_user = ?
 ORDER BY ev.date ASC, ev.id ASC
`, userID)
	if err != nil {
		return nil, mapError("list events for user", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]storage.ParticipatingEvent, 0)
	for rows.Next() {
		var (
			item                           storage.ParticipatingEvent
			confirmed                      sql.NullInt64
			date, confirmeUntil, createdAt string
			eventUserID                    sql.NullInt64
		)
		if err := rows.Scan(
			&item.Participant.ID,
			&item.Participant.UserID,
			&item.Participant.EventID,
			&item.Participant.Name,
			&confirmed,
			&item.Event.ID,
			&item.Event.Title,
			&date,
			&item.Event.Description,
			&item.Event.Location,
			&item.Event.Category,
			&item.Event.CreatedBy,
			&eventUserID,
			&confirmeUntil,
			&createdAt,
		); err != nil {
			return nil, mapError("scan participating event", err)
		}
		item.Participant.Confirmed = confirmed.Valid && confirmed.Int64 != 0
		item.Event.UserID = intPtr(eventUserID)
		if item.Event.Date, err = decodeTime(date); err != nil {
			return nil, err
		}
		if item.Event.ConfirmeUntil, err = decodeTime(confirmeUntil); err != nil {
			return nil, err
		}
		if item.Event.CreatedAt, err = decodeTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list events for user", err)
	}
	return out, nil
}

func scanParticipant(row rowScanner) (storage.Participant, error) {
	var (
		p         storage.Participant
		confirmed sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.EventID, &p.Name, &confirmed); err != nil {
		return storage.Participant{}, err
	}
	p.Confirmed = confirmed.Valid && confirmed.Int64 != 0
	return p, nil
}
