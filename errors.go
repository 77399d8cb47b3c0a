package loginapp

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by the auth workflow
type ErrorKind string

const (
	ValidationError   ErrorKind = "validation_error"
	ConflictError     ErrorKind = "conflict"
	TokenInvalid      ErrorKind = "token_invalid"
	PersistenceError  ErrorKind = "persistence_error"
	AuthProviderError ErrorKind = "auth_provider_error"
)

var (
	// ErrUserNotFound is returned by stores when no user matches a lookup
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned by stores when a create would duplicate an email
	ErrEmailExists = errors.New("email already registered")

	// ErrTokenInvalid covers bad signatures, malformed payloads and expired tokens alike
	ErrTokenInvalid = errors.New("invalid or expired token")
)

// AuthError is a workflow failure with enough context to render it
type AuthError struct {
	Kind    ErrorKind
	Message string // user visible
	Field   string // form field, if any
	Err     error
}

func NewAuthError(kind ErrorKind, message, field string, err error) *AuthError {
	return &AuthError{Kind: kind, Message: message, Field: field, Err: err}
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsKind reports whether any AuthError in err's chain has the given kind
func IsKind(err error, kind ErrorKind) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.Kind == kind
}
