package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

// NSQConfig configures the NSQ driver. Consumers connect through lookupd when
// ConsumerLookupdAddrs is set and straight to nsqd otherwise.
type NSQConfig struct {
	ProducerAddr         string
	ConsumerNSQDAddrs    []string
	ConsumerLookupdAddrs []string
	ProducerConfig       *nsq.Config
	ConsumerConfig       *nsq.Config
}

// nsqEnvelope wraps a Message because NSQ frames carry only a body.
type nsqEnvelope struct {
	Key     string            `json:"key,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    []byte            `json:"body"`
}

func encodeNSQ(msg Message) ([]byte, error) {
	return json.Marshal(nsqEnvelope{Key: msg.Key, Headers: msg.Headers, Body: msg.Body})
}

// decodeNSQ unwraps an envelope. Bodies published by other producers without
// one are passed through untouched.
func decodeNSQ(raw []byte) Message {
	var env nsqEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Body == nil {
		return Message{Body: raw, Headers: map[string]string{}}
	}
	return Message{Key: env.Key, Headers: cloneHeaders(env.Headers), Body: env.Body}
}

// NSQ is the NSQ driver. A handler error requeues the message with the
// consumer's backoff until MaxAttempts is reached.
type NSQ struct {
	producer *nsq.Producer
	cfg      NSQConfig

	mu        sync.Mutex
	consumers []*nsq.Consumer
	closed    bool
}

func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	if len(cfg.ConsumerNSQDAddrs) == 0 && len(cfg.ConsumerLookupdAddrs) == 0 && cfg.ProducerAddr == "" {
		return nil, fmt.Errorf("%w: nsq addresses", ErrMissingConfig)
	}
	if cfg.ProducerConfig == nil {
		cfg.ProducerConfig = nsq.NewConfig()
	}
	if cfg.ConsumerConfig == nil {
		cfg.ConsumerConfig = nsq.NewConfig()
	}

	n := &NSQ{cfg: cfg}
	if cfg.ProducerAddr != "" {
		p, err := nsq.NewProducer(cfg.ProducerAddr, cfg.ProducerConfig)
		if err != nil {
			return nil, fmt.Errorf("messaging: nsq producer: %w", err)
		}
		p.SetLoggerLevel(nsq.LogLevelError)
		n.producer = p
	}

	return n, nil
}

func (n *NSQ) Publish(ctx context.Context, topic string, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return fmt.Errorf("%w: empty topic", ErrInvalidArgument)
	}

	n.mu.Lock()
	closed := n.closed
	n.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if n.producer == nil {
		return fmt.Errorf("%w: nsq producer address", ErrMissingConfig)
	}

	frame, err := encodeNSQ(msg)
	if err != nil {
		return fmt.Errorf("messaging: nsq encode: %w", err)
	}
	if err := n.producer.Publish(topic, frame); err != nil {
		return fmt.Errorf("messaging: nsq publish %s: %w", topic, err)
	}
	return nil
}

func (n *NSQ) Consume(ctx context.Context, topic string, h Handler, opts ...ConsumeOption) error {
	if err := validate(topic, h); err != nil {
		return err
	}

	cfg := newConsumeConfig(opts...)
	if cfg.group == "" {
		return fmt.Errorf("%w: nsq channel", ErrMissingConfig)
	}

	ccfg := *n.cfg.ConsumerConfig
	ccfg.MaxInFlight = cfg.maxInFlight

	consumer, err := nsq.NewConsumer(topic, cfg.group, &ccfg)
	if err != nil {
		return fmt.Errorf("messaging: nsq consumer %s/%s: %w", topic, cfg.group, err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelError)
	consumer.AddConcurrentHandlers(nsq.HandlerFunc(func(m *nsq.Message) error {
		return dispatch(ctx, DriverNSQ, h, Delivery{
			Message:  decodeNSQ(m.Body),
			ID:       string(m.ID[:]),
			Topic:    topic,
			Attempt:  int(m.Attempts),
			Received: time.Unix(0, m.Timestamp),
		})
	}), cfg.concurrency)

	if !n.track(consumer) {
		return ErrClosed
	}

	if len(n.cfg.ConsumerLookupdAddrs) > 0 {
		err = consumer.ConnectToNSQLookupds(n.cfg.ConsumerLookupdAddrs)
	} else {
		err = consumer.ConnectToNSQDs(n.cfg.ConsumerNSQDAddrs)
	}
	if err != nil {
		consumer.Stop()
		<-consumer.StopChan
		return fmt.Errorf("messaging: nsq connect %s/%s: %w", topic, cfg.group, err)
	}

	select {
	case <-ctx.Done():
		consumer.Stop()
		<-consumer.StopChan
		return ctx.Err()
	case <-consumer.StopChan:
		return ErrClosed
	}
}

func (n *NSQ) track(c *nsq.Consumer) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return false
	}
	n.consumers = append(n.consumers, c)
	return true
}

func (n *NSQ) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	consumers := n.consumers
	n.consumers = nil
	n.mu.Unlock()

	for _, c := range consumers {
		c.Stop()
		<-c.StopChan
	}
	if n.producer != nil {
		n.producer.Stop()
	}
	return nil
}
