// Package pubsub is the in-process event bus. Auth state changes travel over
// it from the request that caused them to the websockets of open pages.
package pubsub

import (
	"context"
	"errors"
)

// ErrClosed is returned by a bus that has been shut down.
var ErrClosed = errors.New("pubsub: bus closed")

// Message is one event on a topic. Payload is the JSON encoded event body.
type Message struct {
	Topic string
	// UserID is the user the event is about; empty for anonymous browsers.
	UserID   string
	Payload  []byte
	Metadata map[string]string
}

// Handler processes a received message. A returned error nacks it.
type Handler func(ctx context.Context, msg Message) error

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber delivers the messages of a topic to handler until ctx is done.
// Subscribe itself does not block.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

// Bus publishes and subscribes.
type Bus interface {
	Publisher
	Subscriber
}
