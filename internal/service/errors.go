package service

import (
	"errors"

	"notes-server/pkg/password"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("username already exists")
)

// ValidationError carries every rule a request broke. Its message is the
// comma-joined list of violations.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return password.Message(e.Violations)
}

func newValidationError(violations ...string) *ValidationError {
	return &ValidationError{Violations: violations}
}
