// Package services holds the chat pipeline: catalogue lookups, the
// conversation store, intent extraction, context retrieval, reply generation
// and the per-turn orchestrator that sequences them.
//
// This file centralizes the service-level error values. Handlers translate
// them into HTTP status codes; services never decide on transport details.
package services

import "errors"

var (
	// ErrEmptyMessage is returned when a turn carries no text after trimming.
	ErrEmptyMessage = errors.New("message is required")

	// ErrMessageTooLong is returned when a turn exceeds the configured rune cap.
	ErrMessageTooLong = errors.New("message too long")

	// ErrInvalidArgument marks caller-supplied values the store cannot accept,
	// such as a non-numeric order owner or an unknown sender role. It is
	// wrapped with the offending detail.
	ErrInvalidArgument = errors.New("invalid argument")
)

// IsClientError reports whether err should be surfaced to the caller as a
// 4xx rather than a server failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrEmptyMessage) ||
		errors.Is(err, ErrMessageTooLong) ||
		errors.Is(err, ErrInvalidArgument)
}
