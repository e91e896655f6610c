package errors

import (
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

// ErrNoRefreshToken is returned by a refresh attempt when no refresh token is stored.
var ErrNoRefreshToken = pkgerrors.New("no refresh token available")

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Detail     string
	Message    string
	// Fields holds per-field validation messages.
	Fields map[string][]string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("unexpected status code %d from %s %s", e.StatusCode, e.Method, e.URL)
	switch {
	case e.Detail != "":
		return msg + ": " + e.Detail
	case e.Message != "":
		return msg + ": " + e.Message
	}
	return msg
}

// ConnectionError means the request was sent but no response came back.
type ConnectionError struct {
	Err error
	URL string
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("could not reach %s: %s", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// SessionExpiredError is returned when a 401 could not be recovered by a token
// refresh. The local session has been cleared by the time it is returned.
type SessionExpiredError struct {
	Err error
}

func (e *SessionExpiredError) Error() string {
	return fmt.Sprintf("session expired: %s", e.Err)
}

func (e *SessionExpiredError) Unwrap() error { return e.Err }

// AccessDeniedError is a local refusal by a role or permission gate.
type AccessDeniedError struct {
	// Login is set when the refusal is because nobody is logged in.
	Login bool
	// Required describes what the gate asked for.
	Required string
}

func (e *AccessDeniedError) Error() string {
	if e.Login {
		return "authentication required"
	}
	if e.Required == "" {
		return "access denied"
	}
	return fmt.Sprintf("access denied: requires %s", e.Required)
}

func statusOf(err error) int {
	var apiErr *APIError
	if pkgerrors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsAuthError reports whether err is a 401 from the API.
func IsAuthError(err error) bool {
	return statusOf(err) == http.StatusUnauthorized
}

// IsPermissionError reports whether err is a 403 from the API or a local gate refusal.
func IsPermissionError(err error) bool {
	var denied *AccessDeniedError
	if pkgerrors.As(err, &denied) {
		return !denied.Login
	}
	return statusOf(err) == http.StatusForbidden
}

// IsValidationError reports whether err is a 400 from the API.
func IsValidationError(err error) bool {
	return statusOf(err) == http.StatusBadRequest
}

// IsServerError reports whether err is any 5xx from the API.
func IsServerError(err error) bool {
	code := statusOf(err)
	return code >= 500 && code <= 599
}

// IsSessionExpired reports whether err ended the session.
func IsSessionExpired(err error) bool {
	var expired *SessionExpiredError
	return pkgerrors.As(err, &expired)
}

// FieldErrors returns the validation messages for field, or nil.
func FieldErrors(err error, field string) []string {
	var apiErr *APIError
	if !pkgerrors.As(err, &apiErr) || apiErr.Fields == nil {
		return nil
	}
	msgs, ok := apiErr.Fields[field]
	if !ok {
		return nil
	}
	return msgs
}
