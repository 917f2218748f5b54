package events

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/simple-event-calendar/server/internal/audit"
	"github.com/simple-event-calendar/server/internal/domain/apperr"
	"github.com/simple-event-calendar/server/internal/metrics"
	"github.com/simple-event-calendar/server/internal/sanitize"
	"github.com/simple-event-calendar/server/internal/storage"
	"github.com/simple-event-calendar/server/internal/telemetry"
)

// AddParticipant joins a user to an event. The user, event and existing
// participant lookups run concurrently; a duplicate join is reported before
// a missing user or event.
func (s *Service) AddParticipant(ctx context.Context, userID, eventID int64, displayName string) (participant storage.Participant, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "events.AddParticipant",
		attribute.Int64("user.id", userID), attribute.Int64("event.id", eventID))
	defer func() { telemetry.EndSpan(span, err) }()

	var (
		user          storage.User
		userFound     bool
		eventFound    bool
		alreadyJoined bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.repo.Users().GetByID(gctx, userID)
		switch {
		case err == nil:
			user, userFound = u, true
		case !errors.Is(err, storage.ErrNotFound):
			return apperr.Storage("get participant user", err)
		}
		return nil
	})
	g.Go(func() error {
		exists, err := s.repo.Events().Exists(gctx, eventID)
		if err != nil {
			return apperr.Storage("check event", err)
		}
		eventFound = exists
		return nil
	})
	g.Go(func() error {
		exists, err := s.repo.Participants().Exists(gctx, userID, eventID)
		if err != nil {
			return apperr.Storage("check participant", err)
		}
		alreadyJoined = exists
		return nil
	})
	if err := g.Wait(); err != nil {
		return storage.Participant{}, err
	}

	switch {
	case alreadyJoined:
		metrics.ParticipantJoinsTotal.WithLabelValues("duplicate").Inc()
		return storage.Participant{}, apperr.Conflict(MsgAlreadyParticipant)
	case !userFound:
		metrics.ParticipantJoinsTotal.WithLabelValues("not_found").Inc()
		return storage.Participant{}, apperr.NotFound(MsgUserNotFound)
	case !eventFound:
		metrics.ParticipantJoinsTotal.WithLabelValues("not_found").Inc()
		return storage.Participant{}, apperr.NotFound(MsgEventNotFound)
	}

	name := sanitize.Text(displayName)
	if name == "" {
		name = user.Name
	}

	participant, err = s.repo.Participants().Create(ctx, storage.CreateParticipantParams{
		UserID:  userID,
		EventID: eventID,
		Name:    name,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			// Lost a race with a concurrent join for the same pair.
			metrics.ParticipantJoinsTotal.WithLabelValues("duplicate").Inc()
			return storage.Participant{}, apperr.Conflict(MsgAlreadyParticipant)
		case errors.Is(err, storage.ErrForeignKey):
			// The event or user was deleted between the checks and the insert.
			metrics.ParticipantJoinsTotal.WithLabelValues("not_found").Inc()
			return storage.Participant{}, apperr.NotFound(MsgEventNotFound)
		}
		return storage.Participant{}, apperr.Storage("create participant", err)
	}

	metrics.ParticipantJoinsTotal.WithLabelValues("added").Inc()
	s.auditLogger.LogSuccess("event.participant_added", user.Email, "event", idString(eventID), audit.ClientIP(ctx), map[string]string{
		"user_id": idString(userID),
	})
	return participant, nil
}

// ConfirmParticipation marks a participant as attending. The deadline is the
// event's confirme_until, or the earlier clientDeadline when one is given.
// Confirming twice succeeds; confirmed is terminal.
func (s *Service) ConfirmParticipation(ctx context.Context, userID, eventID int64, clientDeadline *time.Time) (participant storage.Participant, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "events.ConfirmParticipation",
		attribute.Int64("user.id", userID), attribute.Int64("event.id", eventID))
	defer func() { telemetry.EndSpan(span, err) }()

	now := s.now()
	if clientDeadline != nil && !now.Before(*clientDeadline) {
		metrics.ConfirmationsTotal.WithLabelValues("expired").Inc()
		return storage.Participant{}, apperr.Expired(MsgConfirmationExpired)
	}

	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			metrics.ConfirmationsTotal.WithLabelValues("not_found").Inc()
		}
		return storage.Participant{}, err
	}
	deadline := event.ConfirmeUntil
	if clientDeadline != nil && clientDeadline.Before(deadline) {
		deadline = *clientDeadline
	}
	if !now.Before(deadline) {
		metrics.ConfirmationsTotal.WithLabelValues("expired").Inc()
		return storage.Participant{}, apperr.Expired(MsgConfirmationExpired)
	}

	changed, err := s.repo.Participants().Confirm(ctx, userID, eventID)
	if err != nil {
		return storage.Participant{}, apperr.Storage("confirm participant", err)
	}

	participant, err = s.repo.Participants().Get(ctx, userID, eventID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			metrics.ConfirmationsTotal.WithLabelValues("not_found").Inc()
			return storage.Participant{}, apperr.NotFound(MsgParticipantNotFound)
		}
		return storage.Participant{}, apperr.Storage("get participant", err)
	}

	metrics.ConfirmationsTotal.WithLabelValues("confirmed").Inc()
	if changed {
		s.auditLogger.LogSuccess("event.participation_confirmed", "user:"+idString(userID), "event", idString(eventID), audit.ClientIP(ctx), nil)
	}
	return participant, nil
}

func (s *Service) ListParticipants(ctx context.Context, eventID int64) ([]storage.Participant, error) {
	participants, err := s.repo.Participants().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, apperr.Storage("list participants", err)
	}
	if participants == nil {
		participants = []storage.Participant{}
	}
	return participants, nil
}

// ListEventsForUser returns every event the user joined, with their participation row.
func (s *Service) ListEventsForUser(ctx context.Context, userID int64) ([]storage.ParticipatingEvent, error) {
	joined, err := s.repo.Participants().ListEventsForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("list events for user", err)
	}
	if joined == nil {
		joined = []storage.ParticipatingEvent{}
	}
	return joined, nil
}
