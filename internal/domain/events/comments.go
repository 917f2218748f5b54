package events

import (
	"context"
	"errors"

	"github.com/simple-event-calendar/server/internal/domain/apperr"
	"github.com/simple-event-calendar/server/internal/metrics"
	"github.com/simple-event-calendar/server/internal/sanitize"
	"github.com/simple-event-calendar/server/internal/storage"
)

type AddCommentParams struct {
	EventID int64
	UserID  *int64
	Author  string
	Text    string
}

func (s *Service) AddComment(ctx context.Context, params AddCommentParams) (storage.Comment, error) {
	text := sanitize.Text(params.Text)
	if text == "" {
		return storage.Comment{}, apperr.Validation(MsgCommentRequired)
	}

	exists, err := s.repo.Events().Exists(ctx, params.EventID)
	if err != nil {
		return storage.Comment{}, apperr.Storage("check event", err)
	}
	if !exists {
		return storage.Comment{}, apperr.NotFound(MsgEventNotFound)
	}

	comment, err := s.repo.Comments().Create(ctx, storage.CreateCommentParams{
		EventID:   params.EventID,
		UserID:    params.UserID,
		Author:    sanitize.Text(params.Author),
		Text:      text,
		CreatedAt: s.now(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrForeignKey) {
			return storage.Comment{}, apperr.NotFound(MsgEventNotFound)
		}
		return storage.Comment{}, apperr.Storage("create comment", err)
	}
	metrics.CommentsCreatedTotal.Inc()
	return comment, nil
}

// ListComments returns an event's comments, newest first.
func (s *Service) ListComments(ctx context.Context, eventID int64) ([]storage.Comment, error) {
	comments, err := s.repo.Comments().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, apperr.Storage("list comments", err)
	}
	if comments == nil {
		comments = []storage.Comment{}
	}
	return comments, nil
}
