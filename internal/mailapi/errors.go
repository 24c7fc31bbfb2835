package mailapi

import (
	"errors"
	"fmt"
)

// AuthError indicates the backend rejected the session credentials
// (HTTP 401). Callers distinguish it from other failures so the UI can
// prompt for a fresh login instead of showing a generic error.
type AuthError struct {
	Endpoint string
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (%s): %s", e.Endpoint, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// APIError is a non-2xx backend response other than a 401. Message holds
// the server-provided error text when the response body supplied one, in
// which case Error returns it verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}
