package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"notes-server/internal/service"
	"notes-server/pkg/password"
	"notes-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeBody reads a JSON request body into dst and runs struct validation on it.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &service.ValidationError{Violations: []string{"Request body is required."}}
		}
		return &service.ValidationError{Violations: []string{"Request body is not valid JSON."}}
	}
	if err := validate.Struct(dst); err != nil {
		return &service.ValidationError{Violations: validationMessages(err)}
	}
	return nil
}

func validationMessages(err error) []string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required.", fe.Field()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be no more than %s characters.", fe.Field(), fe.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid.", fe.Field()))
		}
	}
	return messages
}

// writeError maps service errors to HTTP statuses. Anything unrecognised is
// logged and reported as 500 without leaking details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(w, password.Message(validationErr.Violations))
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUnauthorized):
		response.Unauthorized(w, "Unauthorized")
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(w, "Forbidden")
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(w, "Not found")
	case errors.Is(err, service.ErrConflict):
		response.Conflict(w, "Username already exists")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		response.InternalError(w, "Internal server error")
	}
}
