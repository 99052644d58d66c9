package snappa

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrBadRequest is returned when the server rejects the request shape
	ErrBadRequest = errors.New("bad request")

	// ErrInvalidSignature is returned when no address of the fid signed the message
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrUserNotFound is returned when the directory has no such fid
	ErrUserNotFound = errors.New("user not found")

	// ErrUnauthenticated is returned when a token is missing, invalid or expired
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrLocalSignInDisabled is returned when the server is not in dev mode
	ErrLocalSignInDisabled = errors.New("local sign-in is disabled")

	// ErrRateLimited is returned when the server throttles the caller
	ErrRateLimited = errors.New("rate limited")

	// ErrUnavailable is returned for server-side failures
	ErrUnavailable = errors.New("service unavailable")
)

// APIError is a non-2xx response. It unwraps to one of the sentinel errors.
type APIError struct {
	StatusCode int
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("snappa: %d %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

func newAPIError(status int, message string) *APIError {
	err := &APIError{StatusCode: status, Message: message}

	switch status {
	case http.StatusBadRequest:
		err.kind = ErrBadRequest
	case http.StatusNotFound:
		err.kind = ErrUserNotFound
	case http.StatusTooManyRequests:
		err.kind = ErrRateLimited
	case http.StatusUnauthorized:
		switch message {
		case "Invalid signature":
			err.kind = ErrInvalidSignature
		case "Local sign-in is disabled":
			err.kind = ErrLocalSignInDisabled
		default:
			err.kind = ErrUnauthenticated
		}
	default:
		err.kind = ErrUnavailable
	}

	return err
}
