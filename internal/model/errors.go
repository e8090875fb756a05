package model

import "errors"

// Sentinel errors shared across the pipeline.
var (
	// ErrEventNotFound is returned when a requested navigation id was not discovered.
	ErrEventNotFound = errors.New("event not found in navigation")
	// ErrLinkOutOfRange is returned when --link does not name an existing main link.
	ErrLinkOutOfRange = errors.New("main link index out of range")
)
