package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
)

// Event[T] binds a topic name to its payload type.
type Event[T any] struct {
	topicName   string
	description string
}

// NewEvent creates a typed event.
func NewEvent[T any](name string, description string) Event[T] {
	return Event[T]{topicName: name, description: description}
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.topicName
}

// Description is a human readable summary of the event.
func (e Event[T]) Description() string {
	return e.description
}

// Publish sends a typed event. The compiler ensures 'payload' matches 'T'.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], userID string, payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event.Name(), err)
	}
	return p.Publish(ctx, Message{
		Topic:   event.Name(),
		UserID:  userID,
		Payload: data,
	})
}

// Subscribe decodes every message on the event's topic into T before calling
// handler. Messages that fail to decode are reported as handler errors.
func Subscribe[T any](ctx context.Context, s Subscriber, event Event[T], handler func(ctx context.Context, userID string, payload T) error) error {
	return s.Subscribe(ctx, event.Name(), func(ctx context.Context, msg Message) error {
		var payload T
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal %s payload: %w", event.Name(), err)
		}
		return handler(ctx, msg.UserID, payload)
	})
}
