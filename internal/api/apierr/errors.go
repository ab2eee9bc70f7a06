package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/enzo-projet/zogames/internal/model"
	"github.com/enzo-projet/zogames/internal/services/identity"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeEmailExists           = "EMAIL_EXISTS"
	CodeUserNotFound          = "USER_NOT_FOUND"
	CodeInvalidGameKind       = "INVALID_GAME_KIND"
	CodeSessionNotFound       = "SESSION_NOT_FOUND"
	CodeSessionAlreadyStarted = "SESSION_ALREADY_STARTED"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodeEmptyQuestion         = "EMPTY_QUESTION"
	CodeIncompleteSubmissions = "INCOMPLETE_SUBMISSIONS"
	CodePlayerNotFound        = "PLAYER_NOT_FOUND"
	CodeStoreUnavailable      = "STORE_UNAVAILABLE"
	CodeInternalError         = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Identity errors
	case errors.Is(err, model.ErrUnauthorized):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired credential"}}
	case errors.Is(err, identity.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid email or password"}}
	case errors.Is(err, identity.ErrEmailExists):
		return &httpError{http.StatusConflict, APIError{CodeEmailExists, "Email already registered"}}
	case errors.Is(err, model.ErrUserNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeUserNotFound, "User not found"}}

	// Session errors
	case errors.Is(err, model.ErrInvalidGameKind):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidGameKind, "Unknown game kind"}}
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeSessionNotFound, "Session not found"}}
	case errors.Is(err, model.ErrSessionAlreadyStarted):
		return &httpError{http.StatusConflict, APIError{CodeSessionAlreadyStarted, "Session has already started"}}
	case errors.Is(err, model.ErrInvalidTransition):
		return &httpError{http.StatusConflict, APIError{CodeInvalidTransition, "Operation not valid in current step"}}
	case errors.Is(err, model.ErrEmptyQuestion):
		return &httpError{http.StatusBadRequest, APIError{CodeEmptyQuestion, "Question is empty"}}
	case errors.Is(err, model.ErrIncompleteSubmissions):
		return &httpError{http.StatusConflict, APIError{CodeIncompleteSubmissions, "Not every player has submitted a question"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found in session"}}

	// Store errors
	case errors.Is(err, model.ErrStoreUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeStoreUnavailable, "Session store unavailable"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
