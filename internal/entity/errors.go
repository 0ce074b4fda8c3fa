package entity

import "errors"

var (
	// Calendar errors
	ErrInvalidMonth = errors.New("month must be between 1 and 12")
	ErrInvalidYear  = errors.New("year must be positive")

	// Notification errors
	ErrNotificationNotFound = errors.New("notification not found")
	ErrIndicatorStopped     = errors.New("notification indicator is stopped")
	ErrStaleResponse        = errors.New("response is older than local state")
	ErrMutationNotFound     = errors.New("mutation not found")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")

	// General errors
	ErrInvalidInput  = errors.New("invalid input")
	ErrCacheMiss     = errors.New("cache miss")
	ErrDatabaseError = errors.New("database error")
)
