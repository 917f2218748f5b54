package postgres

import (
	"context"

	"github.com/simple-event-calendar/server/internal/storage"
)

type ParticipantRepository struct {
	q queryer
}

const participantColumns = `id, id_user, id_event, name_participant, confirmed`

func (r *ParticipantRepository) Create(ctx context.Context, params storage.CreateParticipantParams) (storage.Participant, error) {
	row := r.q.QueryRow(ctx, `
INSERT INTO participants (id_user, id_event, name_participant)
VALUES ($1, $2, $3)
RETURNING `+participantColumns,
		params.UserID, params.EventID, params.Name)
	p, err := scanParticipant(row)
	if err != nil {
		return storage.Participant{}, mapError("create participant", err)
	}
	return p, nil
}

func (r *ParticipantRepository) Get(ctx context.Context, userID, eventID int64) (storage.Participant, error) {
	row := r.q.QueryRow(ctx, `
SELECT `+participantColumns+`
  FROM participants
 WHERE id_user = $1 AND id_event = $2
`, userID, eventID)
	p, err := scanParticipant(row)
	if err != nil {
		return storage.Participant{}, mapError("get participant", err)
	}
	return p, nil
}

func (r *ParticipantRepository) Exists(ctx context.Context, userID, eventID int64) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM participants WHERE id_user = $1 AND id_event = $2)`,
		userID, eventID).Scan(&exists)
	if err != nil {
		return false, mapError("participant exists", err)
	}
	return exists, nil
}

func (r *ParticipantRepository) Confirm(ctx context.Context, userID, eventID int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `
UPDATE participants
   SET confirmed = TRUE
 WHERE id_user = $1 AND id_event = $2 AND confirmed IS NULL
`, userID, eventID)
	if err != nil {
		return false, mapError("confirm participant", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ParticipantRepository) ListByEvent(ctx context.Context, eventID int64) ([]storage.Participant, error) {
	rows, err := r.q.Query(ctx, `
SELECT `+participantColumns+`
  FROM participants
 WHERE id_event = $1
 ORDER BY id ASC
`, eventID)
	if err != nil {
		return nil, mapError("list participants", err)
	}
	defer rows.Close()

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
	rows, err := r.q.Query(ctx, `
SELECT pp.id, pp.id_user, pp.id_event, pp.name_participant, pp.confirmed,
       ev.id, ev.title, ev.date, ev.description, ev.location, ev.category,
       ev.created_by, ev.id_user, ev.confirme_until, ev.created_at
  FROM participants pp
 INNER JOIN events ev ON ev.id = pp.id_event
 WHERE pp.id_user = $1
 ORDER BY ev.date ASC, ev.id ASC
`, userID)
	if err != nil {
		return nil, mapError("list events for user", err)
	}
	defer rows.Close()

	out := make([]storage.ParticipatingEvent, 0)
	for rows.Next() {
		var (
			item      storage.ParticipatingEvent
			confirmed *bool
		)
		if err := rows.Scan(
			&item.Participant.ID,
			&item.Participant.UserID,
			&item.Participant.EventID,
			&item.Participant.Name,
			&confirmed,
			&item.Event.ID,
			&item.Event.Title,
			&item.Event.Date,
			&item.Event.Description,
			&item.Event.Location,
			&item.Event.Category,
			&item.Event.CreatedBy,
			&item.Event.UserID,
			&item.Event.ConfirmeUntil,
			&item.Event.CreatedAt,
		); err != nil {
			return nil, mapError("scan participating event", err)
		}
		item.Participant.Confirmed = confirmed != nil && *confirmed
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
		confirmed *bool
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.EventID, &p.Name, &confirmed); err != nil {
		return storage.Participant{}, err
	}
	p.Confirmed = confirmed != nil && *confirmed
	return p, nil
}
