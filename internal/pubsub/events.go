// Package pubsub carries display events and log entries from conversation
// turns to the TUI. Publishing never blocks, so engine turns are insulated
// from slow frontends.
package pubsub

import (
	"time"
)

// EventType classifies a published event.
type EventType string

const (
	// CreatedEvent marks a newly produced item, like a log line.
	CreatedEvent EventType = "created"
	// UpdatedEvent marks a change to ongoing state, like a stream delta.
	UpdatedEvent EventType = "updated"
)

// Event is a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}
