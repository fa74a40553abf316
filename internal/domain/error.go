package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")

	// Catalog
	ErrInvalidPrice = errors.New("invalid price")
	ErrEmptyImage   = errors.New("empty image payload")

	// Conversation / delivery
	ErrLockNotAcquired = errors.New("sender lock not acquired")
	ErrQueueFull       = errors.New("outbound queue full")
	ErrQueueClosed     = errors.New("outbound queue closed")
)
