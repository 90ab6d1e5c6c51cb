package errors

import (
	"errors"
	"fmt"
)

// Common error types for the AAMS client
var (
	// API error categories, every *apiclient.Error unwraps to one of these
	ErrAuthExpired = errors.New("authentication expired")
	ErrClientError = errors.New("client error")
	ErrServerError = errors.New("server error")
	ErrNetwork     = errors.New("network error")
	ErrTimeout     = errors.New("request timed out")

	// Session errors
	ErrNoSession       = errors.New("no active session")
	ErrNoRefreshToken  = errors.New("no refresh token")
	ErrKeyNotFound     = errors.New("key not found")
	ErrInvalidToken    = errors.New("invalid token")
	ErrSessionSealed   = errors.New("session store is encrypted")
	ErrInvalidPassword = errors.New("invalid session passphrase")

	// Login errors
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInvalidLogin       = errors.New("login response missing token or user")
	ErrWeakPassword       = errors.New("password does not meet strength requirements")

	// General errors
	ErrInvalidBaseURL   = errors.New("invalid base URL")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrResponseTooLarge = errors.New("response body too large")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func New(text string) error {
	return errors.New(text)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join wraps errors.Join so callers importing this package under the errors name keep one import
func Join(errs ...error) error {
	return errors.Join(errs...)
}
