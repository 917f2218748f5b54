package handlers

import (
	"net/http"

	"github.com/simple-event-calendar/server/internal/api/respond"
	"github.com/simple-event-calendar/server/internal/domain/apperr"
	"github.com/simple-event-calendar/server/internal/domain/users"
)

type UsersHandler struct {
	Service *users.Service
}

func NewUsersHandler(service *users.Service) *UsersHandler {
	return &UsersHandler{Service: service}
}

type signupRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	Email     string `json:"email" validate:"required,email,max=254"`
	GivenName string `json:"given_name" validate:"required,max=60"`
	Password  string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type resetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type updatePasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Token    string `json:"token" validate:"required"`
}

func (h *UsersHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.Service.Register(r.Context(), users.RegisterParams{
		Name:      req.Name,
		Email:     req.Email,
		GivenName: req.GivenName,
		Password:  req.Password,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, "user created successfully", respond.Payload{
		"token":   session.Token,
		"id_user": session.UserID,
	})
}

func (h *UsersHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, "login successful", respond.Payload{
		"token":      session.Token,
		"id_user":    session.UserID,
		"given_name": session.GivenName,
	})
}

func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, "password reset email sent", nil)
}

// UpdatePassword completes a reset. An expired token is an auth failure here.
func (h *UsersHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Service.UpdatePassword(r.Context(), req.Email, req.Password, req.Token); err != nil {
		respond.Error(w, r, err, respond.StatusFor(apperr.KindExpired, http.StatusUnauthorized))
		return
	}
	respond.OK(w, "password updated successfully", nil)
}
