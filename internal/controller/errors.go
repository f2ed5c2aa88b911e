package controller

import "errors"

// Precondition errors. These are rejected locally before any network
// call and are fully recoverable: the user satisfies the precondition
// and retries.
var (
	// ErrBlankMessage rejects empty or whitespace-only input.
	ErrBlankMessage = errors.New("message is empty")
	// ErrBusy rejects a send while another one is outstanding.
	ErrBusy = errors.New("a message is already being sent")
	// ErrAPIKeyRequired means a Gemini API key must be supplied first.
	ErrAPIKeyRequired = errors.New("Gemini API key required")
	// ErrAuthRequired guards history operations, which only exist for
	// logged-in users.
	ErrAuthRequired = errors.New("login required")
	// ErrConversationTooShort rejects prescription generation before
	// enough exchange has happened.
	ErrConversationTooShort = errors.New("conversation too short to generate a prescription")
)
