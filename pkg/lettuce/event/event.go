// Package event provides the process-wide event bus for connection
// lifecycle events.
//
// The bus is hot: subscribers receive only events published after they
// subscribe, with no buffering or replay. Publish is fire-and-forget and
// never blocks the publisher; a subscriber that cannot keep up has events
// dropped rather than slowing down connection handling.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is any immutable application value published on the bus.
// Ownership transfers to the bus at publish time; subscribers treat the
// value as read-only.
type Event any

// Metadata identifies an event instance.
type Metadata struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMetadata creates metadata with a fresh ID and the current time.
func NewMetadata() Metadata {
	return Metadata{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
	}
}

// ConnectionActivated is published when a connection becomes usable.
type ConnectionActivated struct {
	Metadata
	Local  string `json:"local"`
	Remote string `json:"remote"`
}

// ConnectionDeactivated is published when a connection is closed or lost.
type ConnectionDeactivated struct {
	Metadata
	Local  string `json:"local"`
	Remote string `json:"remote"`
}

// ReconnectFailed is published when a reconnect attempt fails.
type ReconnectFailed struct {
	Metadata
	Remote  string `json:"remote"`
	Attempt int    `json:"attempt"`
	Cause   string `json:"cause"`
}
