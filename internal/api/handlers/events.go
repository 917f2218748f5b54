package handlers

import (
	"net/http"

	"github.com/simple-event-calendar/server/internal/api/middleware"
	"github.com/simple-event-calendar/server/internal/api/respond"
	"github.com/simple-event-calendar/server/internal/domain/apperr"
	"github.com/simple-event-calendar/server/internal/domain/events"
)

const msgActingForOther = "token does not belong to this user"

type EventsHandler struct {
	Service *events.Service
}

func NewEventsHandler(service *events.Service) *EventsHandler {
	return &EventsHandler{Service: service}
}

type createEventRequest struct {
	Title          string `json:"title" validate:"required,max=200"`
	Date           string `json:"date" validate:"required"`
	Description    string `json:"description" validate:"max=5000"`
	Category       string `json:"category" validate:"max=100"`
	ConfirmeUntil  string `json:"confirme_until" validate:"required"`
	Location       string `json:"location" validate:"max=200"`
	LocationNumber string `json:"locationNumber" validate:"max=20"`
	District       string `json:"district" validate:"max=100"`
	LocationCity   string `json:"locationCity" validate:"max=100"`
	UF             string `json:"uf" validate:"max=2"`
	LocationCEP    string `json:"locationCEP" validate:"max=9"`
	CreatedBy      string `json:"created_by" validate:"max=120"`
	UserID         *int64 `json:"id_user" validate:"omitempty,gt=0"`
}

type joinRequest struct {
	UserID   int64  `json:"id_user" validate:"omitempty,gt=0"`
	EventID  int64  `json:"id_event" validate:"required,gt=0"`
	NameShow string `json:"name_participant" validate:"max=120"`
}

type eventRequest struct {
	EventID int64 `json:"id_event" validate:"required,gt=0"`
}

type userRequest struct {
	UserID int64 `json:"id_user" validate:"required,gt=0"`
}

type confirmRequest struct {
	UserID        int64  `json:"id_user" validate:"omitempty,gt=0"`
	EventID       int64  `json:"id_event" validate:"required,gt=0"`
	ConfirmeUntil string `json:"confirme_until"`
}

type createCommentRequest struct {
	Comment string `json:"comment" validate:"required,max=2000"`
	UserID  *int64 `json:"idUser" validate:"omitempty,gt=0"`
	EventID int64  `json:"idEvent" validate:"required,gt=0"`
	Author  string `json:"author" validate:"max=120"`
}

type commentsRequest struct {
	EventID int64 `json:"idEvent" validate:"required,gt=0"`
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListEvents(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, "ok", respond.Payload{"data": mapSlice(list, toEventView)})
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Fail(w, r, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	event, err := h.Service.GetEvent(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, "ok", respond.Payload{"data": toEventView(event)})
}

// Create stores a new event. id_user defaults to the authenticated user and
// created_by to their email.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	claims, _ := middleware.ClaimsFromContext(r.Context())
	if claims != nil {
		if req.UserID == nil {
			req.UserID = &claims.UserID
		} else if *req.UserID != claims.UserID {
			respond.Fail(w, r, http.StatusForbidden, msgActingForOther, nil)
			return
		}
		if req.CreatedBy == "" {
			req.CreatedBy = claims.Email
		}
	}

	event, err := h.Service.CreateEvent(r.Context(), events.CreateEventParams{
		Title:         req.Title,
		Date:          req.Date,
		Description:   req.Description,
		Category:      req.Category,
		ConfirmeUntil: req.ConfirmeUntil,
		Address: events.Address{
			Location:       req.Location,
			LocationNumber: req.LocationNumber,
			District:       req.District,
			LocationCity:   req.LocationCity,
			UF:             req.UF,
			CEP:            req.LocationCEP,
		},
		CreatedBy: req.CreatedBy,
		UserID:    req.UserID,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, "event created successfully", respond.Payload{"id": event.ID})
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Fail(w, r, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var actor string
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		actor = claims.Email
	}
	if err := h.Service.DeleteEvent(r.Context(), id, actor); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, "event deleted successfully", nil)
}

// AddParticipant joins the authenticated user to an event. A repeated join
// answers 400, as clients of the original API expect.
func (h *EventsHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID, ok := actingUser(w, r, req.UserID)
	if !ok {
		return
	}
	participant, err := h.Service.AddParticipant(r.Context(), userID, req.EventID, req.NameShow)
	if err != nil {
		respond.Error(w, r, err, respond.StatusFor(apperr.KindConflict, http.StatusBadRequest))
		return
	}
	respond.OK(w, "added to event successfully", respond.Payload{"data": toParticipantView(participant)})
}

func (h *EventsHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	participants, err := h.Service.ListParticipants(r.Context(), req.EventID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, "ok", respond.Payload{"data": mapSlice(participants, toParticipantView)})
}

func (h *EventsHandler) ListEventsForUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	joined, err := h.Service.ListEventsForUser(r.Context(), req.UserID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	data := make([]participatingEventView, 0, len(joined))
	for _, row := range joined {
		data = append(data, participatingEventView{
			eventView:     toEventView(row.Event),
			ParticipantID: row.Participant.ID,
			UserID:        row.Participant.UserID,
			EventID:       row.Participant.EventID,
			Name:          row.Participant.Name,
			Confirmed:     row.Participant.Confirmed,
		})
	}
	respond.OK(w, "ok", respond.Payload{"data": data})
}

func (h *EventsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID, ok := actingUser(w, r, req.UserID)
	if !ok {
		return
	}
	deadline, err := h.Service.ParseClientDeadline(req.ConfirmeUntil)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	participant, err := h.Service.ConfirmParticipation(r.Context(), userID, req.EventID, deadline)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, "event confirmed successfully", respond.Payload{"data": toParticipantView(participant)})
}

func (h *EventsHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var bodyUser int64
	if req.UserID != nil {
		bodyUser = *req.UserID
	}
	userID, ok := actingUser(w, r, bodyUser)
	if !ok {
		return
	}

	comment, err := h.Service.AddComment(r.Context(), events.AddCommentParams{
		EventID: req.EventID,
		UserID:  &userID,
		Author:  req.Author,
		Text:    req.Comment,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, "comment added successfully", respond.Payload{"data": toCommentView(comment)})
}

func (h *EventsHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	var req commentsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	comments, err := h.Service.ListComments(r.Context(), req.EventID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, "ok", respond.Payload{"data": mapSlice(comments, toCommentView)})
}

// actingUser resolves the user a write acts for: the token's user, which a
// body id_user may repeat but not contradict.
func actingUser(w http.ResponseWriter, r *http.Request, bodyUserID int64) (int64, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respond.Fail(w, r, http.StatusUnauthorized, "authentication token is missing", nil)
		return 0, false
	}
	if bodyUserID != 0 && bodyUserID != claims.UserID {
		respond.Fail(w, r, http.StatusForbidden, msgActingForOther, nil)
		return 0, false
	}
	return claims.UserID, true
}
