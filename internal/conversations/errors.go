package conversations

import "errors"

var (
	// ErrInvalidChannel is returned for an unknown conversation channel
	ErrInvalidChannel = errors.New("invalid conversation channel")

	// ErrInvalidOutcome is returned for an unknown conversation outcome
	ErrInvalidOutcome = errors.New("invalid conversation outcome")

	// ErrConversationNotFound is returned when a conversation is not found
	ErrConversationNotFound = errors.New("conversation not found")
)
