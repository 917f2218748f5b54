package handlers

import (
	"time"

	"github.com/simple-event-calendar/server/internal/storage"
)

type eventView struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Date          time.Time `json:"date"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	Category      string    `json:"category"`
	CreatedBy     string    `json:"created_by"`
	UserID        *int64    `json:"id_user"`
	ConfirmeUntil time.Time `json:"confirme_until"`
	CreatedAt     time.Time `json:"created_at"`
}

type participantView struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"id_user"`
	EventID   int64  `json:"id_event"`
	Name      string `json:"name_participant"`
	Confirmed bool   `json:"confirmed"`
}

// participatingEventView flattens a participant row and its event. The
// participant's id_user shadows the event creator's.
type participatingEventView struct {
	eventView
	ParticipantID int64  `json:"id_participant"`
	UserID        int64  `json:"id_user"`
	EventID       int64  `json:"id_event"`
	Name          string `json:"name_participant"`
	Confirmed     bool   `json:"confirmed"`
}

type commentView struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"idEvent"`
	UserID    *int64    `json:"idUser"`
	Author    string    `json:"author"`
	Text      string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func toEventView(e storage.Event) eventView {
	return eventView{
		ID:            e.ID,
		Title:         e.Title,
		Date:          e.Date,
		Description:   e.Description,
		Location:      e.Location,
		Category:      e.Category,
		CreatedBy:     e.CreatedBy,
		UserID:        e.UserID,
		ConfirmeUntil: e.ConfirmeUntil,
		CreatedAt:     e.CreatedAt,
	}
}

func toParticipantView(p storage.Participant) participantView {
	return participantView{
		ID:        p.ID,
		UserID:    p.UserID,
		EventID:   p.EventID,
		Name:      p.Name,
		Confirmed: p.Confirmed,
	}
}

func toCommentView(c storage.Comment) commentView {
	return commentView{
		ID:        c.ID,
		EventID:   c.EventID,
		UserID:    c.UserID,
		Author:    c.Author,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
}

func mapSlice[T, V any](items []T, fn func(T) V) []V {
	out := make([]V, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
