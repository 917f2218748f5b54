// Package respond writes the {status, err, msg} JSON envelope used by every
// endpoint and maps domain error kinds to HTTP status codes.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/simple-event-calendar/server/internal/domain/apperr"
)

const contentType = "application/json; charset=utf-8"

const msgInternal = "internal server error"

// Payload holds the extra top-level keys of a response, such as "token" or "data".
type Payload map[string]any

// JSON writes status as both the HTTP code and the envelope's status field.
// Payload keys never replace the envelope fields.
func JSON(w http.ResponseWriter, status int, msg string, payload Payload) {
	body := make(map[string]any, len(payload)+3)
	for k, v := range payload {
		body[k] = v
	}
	body["status"] = status
	body["err"] = status >= http.StatusBadRequest
	body["msg"] = msg

	data, err := json.Marshal(body)
	if err != nil {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":500,"err":true,"msg":"internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func OK(w http.ResponseWriter, msg string, payload Payload) {
	JSON(w, http.StatusOK, msg, payload)
}

// Fail writes an error envelope and logs err through the request logger:
// 5xx at error level, 4xx at warn.
func Fail(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	if err != nil && r != nil {
		logger := zerolog.Ctx(r.Context())
		var event *zerolog.Event
		if status >= http.StatusInternalServerError {
			event = logger.Error()
		} else {
			event = logger.Warn()
		}
		event.Err(err).
			Int("status", status).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(msg)
	}
	JSON(w, status, msg, nil)
}

// Option adjusts how Error maps a kind.
type Option func(map[apperr.Kind]int)

// StatusFor overrides the status used for kind.
func StatusFor(kind apperr.Kind, status int) Option {
	return func(m map[apperr.Kind]int) { m[kind] = status }
}

// Error maps a domain error onto the envelope. Unclassified errors become a
// generic 500 whose cause only reaches the log.
func Error(w http.ResponseWriter, r *http.Request, err error, opts ...Option) {
	statuses := map[apperr.Kind]int{
		apperr.KindValidation: http.StatusBadRequest,
		apperr.KindConflict:   http.StatusConflict,
		apperr.KindNotFound:   http.StatusNotFound,
		apperr.KindAuth:       http.StatusUnauthorized,
		apperr.KindExpired:    http.StatusBadRequest,
		apperr.KindStorage:    http.StatusInternalServerError,
	}
	for _, opt := range opts {
		opt(statuses)
	}

	status, ok := statuses[apperr.KindOf(err)]
	if !ok {
		status = http.StatusInternalServerError
	}
	msg := apperr.Message(err, msgInternal)
	if status >= http.StatusInternalServerError {
		msg = msgInternal
	}
	Fail(w, r, status, msg, err)
}
