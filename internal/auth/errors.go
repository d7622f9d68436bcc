package auth

import (
	"errors"
	"fmt"
)

// ErrUnauthorized matches every AuthorizationError.
var ErrUnauthorized = errors.New("unauthorized")

// Reason distinguishes the AuthorizationError variants.
type Reason int

const (
	ReasonNotAuthenticated Reason = iota + 1
	ReasonMissingScope
)

// AuthorizationError is returned by Gateway.Require.
type AuthorizationError struct {
	Reason Reason
	Scope  string
}

// ErrNotAuthenticated is returned when no token is active.
var ErrNotAuthenticated = &AuthorizationError{Reason: ReasonNotAuthenticated}

// MissingScope returns the error for a token that lacks scope.
func MissingScope(scope string) *AuthorizationError {
	return &AuthorizationError{Reason: ReasonMissingScope, Scope: scope}
}

func (e *AuthorizationError) Error() string {
	if e.Reason == ReasonMissingScope {
		return fmt.Sprintf("missing required scope: %s", e.Scope)
	}
	return "not authenticated: issue a token first"
}

// Is matches ErrUnauthorized, and another AuthorizationError with the same
// reason. A target without a scope matches any missing scope.
func (e *AuthorizationError) Is(target error) bool {
	if target == ErrUnauthorized {
		return true
	}
	t, ok := target.(*AuthorizationError)
	if !ok {
		return false
	}
	return t.Reason == e.Reason && (t.Scope == "" || t.Scope == e.Scope)
}
