package entities

import "errors"

// Domain errors
var (
	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidEmail = errors.New("invalid email")
	ErrInvalidName  = errors.New("invalid name")

	// Meeting errors
	ErrMeetingNotFound  = errors.New("meeting not found")
	ErrInvalidStatus    = errors.New("invalid meeting status")
	ErrNoAudioAttached  = errors.New("meeting has no audio file")
	ErrAlreadyStarted   = errors.New("meeting is already being processed")
	ErrNotInProcessing  = errors.New("meeting is not currently processing")

	// Generic errors
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRequest = errors.New("invalid request")
)
