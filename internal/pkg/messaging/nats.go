package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSConfig configures the NATS driver.
type NATSConfig struct {
	URL     string
	Options []nats.Option
}

// NATS publishes with core NATS and consumes through queue subscriptions.
// Delivery is at most once unless the subject is backed by a JetStream
// stream, in which case handler errors Nak the message.
type NATS struct {
	conn *nats.Conn

	mu     sync.Mutex
	closed bool
}

func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: nats url", ErrMissingConfig)
	}

	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

func (n *NATS) isClosed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}

func (n *NATS) Publish(ctx context.Context, topic string, msg Message) error {
	if n.isClosed() {
		return ErrClosed
	}
	if topic == "" {
		return fmt.Errorf("%w: empty topic", ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := nats.NewMsg(topic)
	m.Data = msg.Body
	for k, v := range msg.Headers {
		m.Header.Set(k, v)
	}
	if msg.Key != "" {
		m.Header.Set(headerKey, msg.Key)
	}

	if err := n.conn.PublishMsg(m); err != nil {
		return fmt.Errorf("messaging: nats publish %s: %w", topic, err)
	}
	if err := n.conn.Flush(); err != nil {
		return fmt.Errorf("messaging: nats flush %s: %w", topic, err)
	}

	return nil
}

func (n *NATS) Consume(ctx context.Context, topic string, h Handler, opts ...ConsumeOption) error {
	if n.isClosed() {
		return ErrClosed
	}
	if err := validate(topic, h); err != nil {
		return err
	}

	cfg := newConsumeConfig(opts...)
	slots := make(chan struct{}, cfg.concurrency)

	sub, err := n.conn.QueueSubscribe(topic, cfg.group, func(m *nats.Msg) {
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			return
		}

		go func() {
			defer func() { <-slots }()
			n.handle(ctx, h, m)
		}()
	})
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe %s: %w", topic, err)
	}
	if err := sub.SetPendingLimits(cfg.maxInFlight, -1); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("messaging: nats pending limits %s: %w", topic, err)
	}

	<-ctx.Done()
	uerr := sub.Unsubscribe()

	// wait for running handlers by taking every slot
	for range cap(slots) {
		slots <- struct{}{}
	}

	if uerr != nil && !errors.Is(uerr, nats.ErrConnectionClosed) {
		return fmt.Errorf("messaging: nats unsubscribe %s: %w", topic, uerr)
	}
	return ctx.Err()
}

func (n *NATS) handle(ctx context.Context, h Handler, m *nats.Msg) {
	d := Delivery{
		Message:  Message{Body: m.Data, Headers: map[string]string{}},
		Topic:    m.Subject,
		Received: time.Now(),
	}
	for k := range m.Header {
		d.Headers[k] = m.Header.Get(k)
	}
	d.Key = d.Headers[headerKey]
	delete(d.Headers, headerKey)

	if md, err := m.Metadata(); err == nil {
		d.ID = strconv.FormatUint(md.Sequence.Stream, 10)
		d.Attempt = int(md.NumDelivered)
	}

	herr := dispatch(ctx, DriverNATS, h, d)

	var serr error
	if herr == nil {
		serr = m.Ack()
	} else {
		serr = m.Nak()
	}
	if serr != nil && !errors.Is(serr, nats.ErrMsgNoReply) && !errors.Is(serr, nats.ErrMsgNotBound) {
		slog.ErrorContext(ctx, "failed to settle nats message", "topic", m.Subject, "error", serr)
	}
}

// Close drains subscriptions and then closes the connection.
func (n *NATS) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()

	if err := n.conn.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("messaging: nats drain: %w", err)
	}
	return nil
}
