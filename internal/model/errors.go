package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// Credential errors
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrUnauthenticated = errors.New("not authenticated")

	// Transaction errors
	ErrTransactionNotFound = errors.New("transaction not found")

	// Storage errors
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError reports a missing or malformed input field.
// Its message is safe to show to the caller verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for a field
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is or wraps a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
