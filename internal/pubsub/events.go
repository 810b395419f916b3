// Package pubsub fans out typed events to any number of subscribers.
package pubsub

import (
	"context"
	"time"
)

// EventType names what happened.
type EventType string

const (
	MadeEvent   EventType = "made"
	FailedEvent EventType = "failed"
)

// Event is one published payload.
type Event[T any] struct {
	Type    EventType `json:"type"`
	Payload T         `json:"payload"`
	Time    time.Time `json:"time"`
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher publishes events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T) int
}
