package errors

import (
	"errors"
	"net/http"
)

// Operational errors: expected, client-actionable failures. Each maps to a
// single HTTP status and stable machine-readable code via MapErrorToHTTP.
var (
	// ErrEmailTaken is returned when registering with an email that already exists.
	ErrEmailTaken = errors.New("email already in use")
	// ErrInvalidCredentials covers both unknown email and wrong password;
	// the two are deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountDeactivated is returned when the account exists but is disabled.
	ErrAccountDeactivated = errors.New("account is deactivated")
	// ErrNotAuthenticated is returned when no bearer token was presented.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidToken is returned for a structurally or cryptographically bad token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned for a validly-signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked is returned for a token invalidated by logout or password change.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrUserGone is returned when a valid token references a deleted user.
	ErrUserGone = errors.New("user no longer exists")
	// ErrIncorrectPassword is returned by the password-change flow.
	ErrIncorrectPassword = errors.New("current password is incorrect")
	// ErrForbidden is returned when the caller's role is not in the allowed set.
	ErrForbidden = errors.New("forbidden")
	// ErrUserNotFound is returned when a user lookup resolves nothing.
	ErrUserNotFound = errors.New("user not found")
	// ErrMissingUser signals a role gate running without an upstream auth gate.
	// This is a wiring bug, not a client failure.
	ErrMissingUser = errors.New("no authenticated user in context")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Anything outside the
// operational set becomes a detail-free 500.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrEmailTaken):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "EMAIL_IN_USE")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrAccountDeactivated):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "ACCOUNT_DEACTIVATED")
	case errors.Is(err, ErrNotAuthenticated):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "NOT_AUTHENTICATED")
	case errors.Is(err, ErrInvalidToken):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_TOKEN")
	case errors.Is(err, ErrTokenExpired):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "TOKEN_EXPIRED")
	case errors.Is(err, ErrTokenRevoked):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "TOKEN_REVOKED")
	case errors.Is(err, ErrUserGone):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "USER_GONE")
	case errors.Is(err, ErrIncorrectPassword):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INCORRECT_PASSWORD")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "NOT_FOUND")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
