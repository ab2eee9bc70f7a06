package model

import "errors"

// Common errors used across the application
var (
	// Identity errors
	ErrUnauthorized = errors.New("invalid or expired credential")
	ErrUserNotFound = errors.New("user not found")

	// Session errors
	ErrInvalidGameKind       = errors.New("unknown game kind")
	ErrSessionNotFound       = errors.New("session not found")
	ErrSessionExists         = errors.New("session already exists")
	ErrSessionAlreadyStarted = errors.New("session has already started")
	ErrInvalidTransition     = errors.New("operation not valid in current step")

	// Submission errors
	ErrEmptyQuestion         = errors.New("question is empty")
	ErrIncompleteSubmissions = errors.New("not every player has submitted a question")

	// Player errors
	ErrPlayerNotFound = errors.New("player not found in session")

	// Store errors
	ErrStoreUnavailable = errors.New("session store unavailable")
)
