package store

import (
	"errors"
	"fmt"
)

// Sentinel errors every Store implementation normalizes backend failures
// into. Handlers branch on these with errors.Is and never surface raw
// backend messages except through ValidationError.
var (
	// ErrNotFound is returned by any read that finds no matching row.
	ErrNotFound = errors.New("store: not found")

	// ErrInvalidCredentials is returned by SignIn on a wrong email or
	// password, and by login when the account has no provisioned profile.
	ErrInvalidCredentials = errors.New("store: invalid credentials")

	// ErrUpstream is returned when the backend cannot be reached or
	// responds with an unexpected failure.
	ErrUpstream = errors.New("store: backend unavailable")
)

// ValidationError carries a user-facing message for input the backend
// rejected, e.g. a duplicate email or a too-short password at signup.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("store: validation failed: %s", e.Message)
}

// Validation wraps a backend rejection message into a ValidationError.
func Validation(message string) error {
	return &ValidationError{Message: message}
}

// AsValidation unwraps err into a ValidationError, if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
