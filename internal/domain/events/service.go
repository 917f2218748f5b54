// Package events enforces the event, participation and comment invariants.
package events

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/simple-event-calendar/server/internal/audit"
	"github.com/simple-event-calendar/server/internal/domain/apperr"
	"github.com/simple-event-calendar/server/internal/metrics"
	"github.com/simple-event-calendar/server/internal/sanitize"
	"github.com/simple-event-calendar/server/internal/storage"
	"github.com/simple-event-calendar/server/internal/telemetry"
)

const tracerName = "github.com/simple-event-calendar/server/internal/domain/events"

type Service struct {
	repo        storage.Repository
	auditLogger *audit.Logger
	logger      zerolog.Logger
	now         func() time.Time
	location    *time.Location
}

func NewService(repo storage.Repository, auditLogger *audit.Logger, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		auditLogger: auditLogger,
		logger:      logger.With().Str("component", "events").Logger(),
		now:         time.Now,
		location:    time.Local,
	}
}

// WithLocation sets the zone for timestamps submitted without an offset.
func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.location = loc
	}
	return s
}

// ParseClientDeadline reads an optional confirme_until sent with a
// confirmation. An empty value yields nil.
func (s *Service) ParseClientDeadline(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	deadline, err := ParseDateTime("confirme_until", value, s.now(), s.location)
	if err != nil {
		return nil, err
	}
	return &deadline, nil
}

// CreateEventParams carries the raw client input for a new event.
type CreateEventParams struct {
	Title         string
	Date          string
	Description   string
	Category      string
	ConfirmeUntil string
	Address       Address
	CreatedBy     string
	UserID        *int64
}

// CreateEvent validates and stores a new event. Both date and confirme_until
// must lie strictly after the creation instant.
func (s *Service) CreateEvent(ctx context.Context, params CreateEventParams) (event storage.Event, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "events.CreateEvent")
	defer func() { telemetry.EndSpan(span, err) }()

	sanitize.Fields(&params.Title, &params.Description, &params.Category, &params.CreatedBy,
		&params.Address.Location, &params.Address.LocationNumber, &params.Address.District,
		&params.Address.LocationCity, &params.Address.UF, &params.Address.CEP)
	if params.Title == "" {
		return storage.Event{}, apperr.Validation(MsgTitleRequired)
	}

	now := s.now()
	confirmeUntil, err := ParseDateTime("confirme_until", params.ConfirmeUntil, now, s.location)
	if err != nil {
		return storage.Event{}, err
	}
	if !confirmeUntil.After(now) {
		return storage.Event{}, apperr.Validation(MsgConfirmeUntilNotFuture)
	}
	date, err := ParseDateTime("date", params.Date, now, s.location)
	if err != nil {
		return storage.Event{}, err
	}
	if !date.After(now) {
		return storage.Event{}, apperr.Validation(MsgDateNotInFuture)
	}

	if params.UserID != nil {
		exists, err := s.repo.Users().Exists(ctx, *params.UserID)
		if err != nil {
			return storage.Event{}, apperr.Storage("check event owner", err)
		}
		if !exists {
			return storage.Event{}, apperr.NotFound(MsgUserNotFound)
		}
	}

	event, err = s.repo.Events().Create(ctx, storage.CreateEventParams{
		Title:         params.Title,
		Date:          date,
		Description:   params.Description,
		Location:      params.Address.Compose(),
		Category:      params.Category,
		CreatedBy:     params.CreatedBy,
		UserID:        params.UserID,
		ConfirmeUntil: confirmeUntil,
		CreatedAt:     now,
	})
	if err != nil {
		return storage.Event{}, apperr.Storage("create event", err)
	}

	span.SetAttributes(attribute.Int64("event.id", event.ID))
	metrics.EventsCreatedTotal.Inc()
	s.auditLogger.LogSuccess("event.created", actor(params.CreatedBy, params.UserID), "event", idString(event.ID), audit.ClientIP(ctx), map[string]string{
		"title": event.Title,
	})
	return event, nil
}

func (s *Service) GetEvent(ctx context.Context, id int64) (storage.Event, error) {
	event, err := s.repo.Events().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Event{}, apperr.NotFound(MsgEventNotFound)
		}
		return storage.Event{}, apperr.Storage("get event", err)
	}
	return event, nil
}

// ListEvents returns events still open for confirmation, soonest first.
func (s *Service) ListEvents(ctx context.Context) ([]storage.Event, error) {
	events, err := s.repo.Events().ListOpen(ctx, s.now())
	if err != nil {
		return nil, apperr.Storage("list events", err)
	}
	if events == nil {
		events = []storage.Event{}
	}
	return events, nil
}

// DeleteEvent removes an event together with its participants and comments.
func (s *Service) DeleteEvent(ctx context.Context, id int64, actorEmail string) (err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "events.DeleteEvent", attribute.Int64("event.id", id))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := s.repo.Events().Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound(MsgEventNotFound)
		}
		return apperr.Storage("delete event", err)
	}
	s.auditLogger.LogSuccess("event.deleted", actorEmail, "event", idString(id), audit.ClientIP(ctx), nil)
	return nil
}

func actor(createdBy string, userID *int64) string {
	if userID != nil {
		return "user:" + idString(*userID)
	}
	if createdBy != "" {
		return createdBy
	}
	return "anonymous"
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
