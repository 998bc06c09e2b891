package collab

import "errors"

var (
	// ErrNotInitialized indicates the manager has no session yet.
	ErrNotInitialized = errors.New("collaboration not initialized")
	// ErrAlreadyInitialized indicates Initialize was called twice.
	ErrAlreadyInitialized = errors.New("collaboration already initialized")
	// ErrSessionFull indicates the session reached its max user count.
	ErrSessionFull = errors.New("session is full")
	// ErrFileNotFound indicates the change targets a file the session
	// doesn't contain.
	ErrFileNotFound = errors.New("file not in session")
	// ErrCommentsDisabled indicates the session does not allow comments.
	ErrCommentsDisabled = errors.New("comments disabled for session")
)
