package messaging

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"google.golang.org/api/option"
)

// PubSubConfig configures the Google Pub/Sub driver. Topics and
// subscriptions are provisioned outside the service; the consumer group is
// the subscription id.
type PubSubConfig struct {
	ProjectID     string
	ClientOptions []option.ClientOption
}

// PubSub is the Google Pub/Sub driver. Headers and the key travel as message
// attributes. A handler error nacks the message for redelivery.
type PubSub struct {
	client *pubsub.Client

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
	closed     bool
}

func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("%w: pubsub project id", ErrMissingConfig)
	}

	c, err := pubsub.NewClient(ctx, cfg.ProjectID, cfg.ClientOptions...)
	if err != nil {
		return nil, fmt.Errorf("messaging: pubsub client: %w", err)
	}

	return &PubSub{client: c, publishers: map[string]*pubsub.Publisher{}}, nil
}

func (p *PubSub) publisher(topic string) (*pubsub.Publisher, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	pub, ok := p.publishers[topic]
	if !ok {
		pub = p.client.Publisher(topic)
		p.publishers[topic] = pub
	}
	return pub, nil
}

func (p *PubSub) Publish(ctx context.Context, topic string, msg Message) error {
	if topic == "" {
		return fmt.Errorf("%w: empty topic", ErrInvalidArgument)
	}

	pub, err := p.publisher(topic)
	if err != nil {
		return err
	}

	attrs := cloneHeaders(msg.Headers)
	if msg.Key != "" {
		attrs[headerKey] = msg.Key
	}

	res := pub.Publish(ctx, &pubsub.Message{Data: msg.Body, Attributes: attrs})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("messaging: pubsub publish %s: %w", topic, err)
	}
	return nil
}

func (p *PubSub) Consume(ctx context.Context, topic string, h Handler, opts ...ConsumeOption) error {
	if err := validate(topic, h); err != nil {
		return err
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}

	cfg := newConsumeConfig(opts...)
	subscription := cfg.group
	if subscription == "" {
		subscription = topic
	}

	sub := p.client.Subscriber(subscription)
	sub.ReceiveSettings.MaxOutstandingMessages = cfg.maxInFlight

	err := sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		d := Delivery{
			Message:  Message{Headers: maps.Clone(m.Attributes), Body: m.Data},
			ID:       m.ID,
			Topic:    topic,
			Received: m.PublishTime,
		}
		if d.Headers == nil {
			d.Headers = map[string]string{}
		}
		d.Key = d.Headers[headerKey]
		delete(d.Headers, headerKey)
		if m.DeliveryAttempt != nil {
			d.Attempt = *m.DeliveryAttempt
		}
		if d.Received.IsZero() {
			d.Received = time.Now()
		}

		if dispatch(ctx, DriverGooglePubSub, h, d) != nil {
			m.Nack()
			return
		}
		m.Ack()
	})
	if err != nil {
		return fmt.Errorf("messaging: pubsub receive %s: %w", subscription, err)
	}
	return ctx.Err()
}

func (p *PubSub) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	pubs := p.publishers
	p.publishers = nil
	p.mu.Unlock()

	for _, pub := range pubs {
		pub.Stop()
	}
	return p.client.Close()
}
