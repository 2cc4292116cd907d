package apierror

import (
	"fmt"
	"net/http"
)

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidRole        = "INVALID_ROLE"
	CodeDuplicateEmail     = "DUPLICATE_EMAIL"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeMissingToken       = "MISSING_TOKEN"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeAlreadyCheckedIn   = "ALREADY_CHECKED_IN"
	CodeNoOpenSession      = "NO_OPEN_SESSION"
	CodeUnsupportedMedia   = "UNSUPPORTED_MEDIA"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeRequestTimeout     = "REQUEST_TIMEOUT"
	CodeInternal           = "INTERNAL_ERROR"
)

// APIError is an error that knows how it is rendered at the HTTP boundary.
// Details are for server-side logs only and never reach the client.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"-"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on Code so callers can compare against the constructors below
// with errors.Is.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

func Validation(message string, details string) *APIError {
	return New(CodeValidation, message, details, http.StatusBadRequest)
}

func InvalidRole(role string) *APIError {
	return New(CodeInvalidRole, "role must be one of: mahasiswa, admin", role, http.StatusBadRequest)
}

func DuplicateEmail(email string) *APIError {
	return New(CodeDuplicateEmail, "email is already registered", email, http.StatusBadRequest)
}

func InvalidCredentials() *APIError {
	return New(CodeInvalidCredentials, "wrong password", "", http.StatusUnauthorized)
}

func MissingToken() *APIError {
	return New(CodeMissingToken, "bearer token is required", "", http.StatusUnauthorized)
}

func InvalidToken(details string) *APIError {
	return New(CodeInvalidToken, "invalid or expired token", details, http.StatusUnauthorized)
}

func Forbidden(message string) *APIError {
	return New(CodeForbidden, message, "", http.StatusForbidden)
}

func NotFound(message string, details string) *APIError {
	return New(CodeNotFound, message, details, http.StatusNotFound)
}

func AlreadyCheckedIn() *APIError {
	return New(CodeAlreadyCheckedIn, "you already have an open check-in", "", http.StatusBadRequest)
}

func NoOpenSession() *APIError {
	return New(CodeNoOpenSession, "no open check-in found", "", http.StatusNotFound)
}
