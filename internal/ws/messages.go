package ws

import (
	"errors"

	"github.com/enzo-projet/zogames/internal/model"
	"github.com/enzo-projet/zogames/internal/services/identity"
	"github.com/enzo-projet/zogames/internal/services/registry"
)

// Inbound request types
const (
	RequestCreate    = "create"
	RequestJoin      = "join"
	RequestSubscribe = "subscribe"
	RequestQuestion  = "question"
	RequestAnswers   = "answers"
	RequestStart     = "start"
)

// Request is an inbound frame from a client. Every type except subscribe
// must carry a token.
type Request struct {
	Type     string                    `json:"type"`
	GameKind model.GameKind            `json:"gameKind"`
	Code     model.SessionCode         `json:"code"`
	Token    string                    `json:"token,omitempty"`
	Text     string                    `json:"text,omitempty"`
	Answers  map[model.PublicID]string `json:"answers,omitempty"`
}

// OperationError is sent back for validation failures; the connection stays
// open. Credential or membership failures close the connection instead.
type OperationError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const typeError = "error"

// Error codes surfaced on operation errors
const (
	codeInvalidGameKind       = "INVALID_GAME_KIND"
	codeSessionNotFound       = "SESSION_NOT_FOUND"
	codeSessionAlreadyStarted = "SESSION_ALREADY_STARTED"
	codeInvalidTransition     = "INVALID_TRANSITION"
	codeEmptyQuestion         = "EMPTY_QUESTION"
	codeIncompleteSubmissions = "INCOMPLETE_SUBMISSIONS"
	codeStoreUnavailable      = "STORE_UNAVAILABLE"
	codeInternalError         = "INTERNAL_ERROR"
)

// operationError maps a validation failure to its wire form
func operationError(err error) OperationError {
	code := codeInternalError
	switch {
	case errors.Is(err, model.ErrInvalidGameKind):
		code = codeInvalidGameKind
	case errors.Is(err, model.ErrSessionNotFound):
		code = codeSessionNotFound
	case errors.Is(err, model.ErrSessionAlreadyStarted):
		code = codeSessionAlreadyStarted
	case errors.Is(err, model.ErrInvalidTransition):
		code = codeInvalidTransition
	case errors.Is(err, model.ErrEmptyQuestion):
		code = codeEmptyQuestion
	case errors.Is(err, model.ErrIncompleteSubmissions):
		code = codeIncompleteSubmissions
	case errors.Is(err, model.ErrStoreUnavailable), errors.Is(err, registry.ErrCodeSpaceExhausted):
		code = codeStoreUnavailable
	}
	return OperationError{Type: typeError, Code: code, Message: err.Error()}
}

// isFatal reports whether an error must close the connection: a bad or
// expired credential, or a user addressing a session they are not part of.
// Neither is safely retryable in place.
func isFatal(err error) bool {
	return errors.Is(err, model.ErrUnauthorized) ||
		errors.Is(err, model.ErrPlayerNotFound) ||
		errors.Is(err, identity.ErrInvalidCredentials)
}
