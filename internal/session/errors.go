package session

import "errors"

var (
	// ErrConversationExists is returned by Create when the conversation id
	// already has a live handle. Callers must End the existing session
	// before creating a new one.
	ErrConversationExists = errors.New("conversation already has a live session")

	// ErrNoConversation is returned when an operation targets a
	// conversation id with no registered handle.
	ErrNoConversation = errors.New("no active session for conversation")
)
