package service

import "errors"

var (
	// ErrAuthMissing is returned when no bearer token is available
	ErrAuthMissing = errors.New("authentication required")
	// ErrFetchFailed is returned when the existence check fails for a reason other than absence
	ErrFetchFailed = errors.New("failed to fetch stored record")
	// ErrGenerationFailed is returned when the AI provider fails or returns an invalid payload
	ErrGenerationFailed = errors.New("failed to generate analysis")
	// ErrPersistFailed marks a failed write of a generated record
	ErrPersistFailed = errors.New("failed to persist record")
	// ErrChatUnavailable is returned when a case has no vector store to chat over
	ErrChatUnavailable = errors.New("chat unavailable for this case")
	// ErrNoMessages is returned when a chat request has no non-blank message
	ErrNoMessages = errors.New("no messages to send")
	// ErrViewClosed is returned when a view is resolved after it was closed
	ErrViewClosed = errors.New("view closed")
)
