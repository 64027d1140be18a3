// Package pubsub provides named-group broadcast with at-most-once delivery.
//
// A message published to a group reaches the subscribers of that group that are
// connected at publish time. Nothing is buffered for absent subscribers and no
// acknowledgement is returned.
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrClosed is returned by a broker after Close.
var ErrClosed = errors.New("pubsub: broker closed")

// Message is a typed event broadcast to a group.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewMessage marshals data into a message of the given type.
func NewMessage(msgType string, data any) (Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("marshal %s message: %w", msgType, err)
	}
	return Message{Type: msgType, Data: raw}, nil
}

// Subscription receives the messages published to one group.
type Subscription interface {
	// Messages is closed when the subscription ends.
	Messages() <-chan Message
	Close() error
}

// Broker publishes to and subscribes on named groups.
type Broker interface {
	Publish(ctx context.Context, group string, msg Message) error
	Subscribe(ctx context.Context, group string) (Subscription, error)
	Close() error
}

// Options configures New.
type Options struct {
	// Kind is "memory" or "redis".
	Kind     string
	RedisURL string
}

// New builds the broker selected by opts.Kind.
func New(opts Options) (Broker, error) {
	switch opts.Kind {
	case "", "memory":
		return NewMemoryBroker(), nil
	case "redis":
		return NewRedisBrokerFromURL(opts.RedisURL)
	default:
		return nil, fmt.Errorf("pubsub: unknown broker kind %q", opts.Kind)
	}
}
