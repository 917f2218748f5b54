package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/simple-event-calendar/server/internal/api/respond"
)

const (
	msgBodyRequired  = "request body is required"
	msgMalformedBody = "malformed JSON body"
	msgBodyTooLarge  = "request body too large"
	msgInvalidID     = "invalid id"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads and validates a request body into dst. On failure it has
// already written the error envelope and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			respond.Fail(w, r, http.StatusRequestEntityTooLarge, msgBodyTooLarge, err)
		case errors.Is(err, io.EOF):
			respond.Fail(w, r, http.StatusBadRequest, msgBodyRequired, err)
		default:
			respond.Fail(w, r, http.StatusBadRequest, msgMalformedBody, err)
		}
		return false
	}

	if err := validate.Struct(dst); err != nil {
		respond.Fail(w, r, http.StatusBadRequest, validationMessage(err), err)
		return false
	}
	return true
}

// validationMessage describes the first failing field.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid request"
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be a positive integer", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// pathID parses a positive integer path value.
func pathID(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PathValue(key)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
