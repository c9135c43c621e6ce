package messaging

import (
	"context"
	"errors"
	"io"
	"maps"
	"time"
)

var (
	// ErrClosed is returned by Publish and Consume after Close.
	ErrClosed = errors.New("messaging: client closed")
	// ErrMissingConfig is wrapped by errors about absent driver settings.
	ErrMissingConfig = errors.New("messaging: missing config")
	// ErrInvalidArgument is wrapped when a topic or handler is empty.
	ErrInvalidArgument = errors.New("messaging: invalid argument")
)

// headerKey carries Message.Key on drivers without a native key field.
const headerKey = "x-message-key"

// Messaging is the broker client shared by every module.
type Messaging interface {
	io.Closer

	// Publish sends msg to topic and returns once the broker accepted it.
	Publish(ctx context.Context, topic string, msg Message) error
	// Consume blocks, feeding deliveries of topic to h until ctx is done.
	Consume(ctx context.Context, topic string, h Handler, opts ...ConsumeOption) error
}

// Message is the payload of an event.
type Message struct {
	// Key groups related messages, e.g. all events of one account. Kafka
	// partitions by it.
	Key     string
	Headers map[string]string
	Body    []byte
}

// Header returns the value of header k, or "" when absent.
func (m Message) Header(k string) string {
	return m.Headers[k]
}

// Delivery is a Message as received by a consumer.
type Delivery struct {
	Message

	ID    string
	Topic string
	// Attempt counts deliveries of this message, starting at 1. Zero means
	// the broker does not report it.
	Attempt  int
	Received time.Time
}

// Handler processes one delivery.
type Handler func(ctx context.Context, d Delivery) error

func cloneHeaders(h map[string]string) map[string]string {
	if len(h) == 0 {
		return map[string]string{}
	}
	return maps.Clone(h)
}

func validate(topic string, h Handler) error {
	if topic == "" {
		return errors.Join(ErrInvalidArgument, errors.New("empty topic"))
	}
	if h == nil {
		return errors.Join(ErrInvalidArgument, errors.New("nil handler"))
	}
	return nil
}
