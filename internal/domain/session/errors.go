package session

import "errors"

var (
	// ErrSessionNotFound indicates the session doesn't exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionClosed indicates the session has been closed.
	ErrSessionClosed = errors.New("session closed")
	// ErrEditingDisabled indicates the session does not allow edits.
	ErrEditingDisabled = errors.New("editing disabled for session")
	// ErrInvalidInput indicates invalid session input.
	ErrInvalidInput = errors.New("invalid session input")
)
