package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig configures the Kafka driver.
type KafkaConfig struct {
	Brokers []string
	Dialer  *kafka.Dialer
}

// Kafka is the Kafka driver. Messages are partitioned by Message.Key so the
// events of one account stay ordered. A handler error leaves the offset
// uncommitted and the message comes back after a rebalance or restart.
type Kafka struct {
	cfg    KafkaConfig
	writer *kafka.Writer

	mu      sync.Mutex
	readers map[*kafka.Reader]struct{}
	closed  bool
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("%w: kafka brokers", ErrMissingConfig)
	}
	if cfg.Dialer == nil {
		cfg.Dialer = kafka.DefaultDialer
	}

	return &Kafka{
		cfg: cfg,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			Transport: &kafka.Transport{
				ClientID:    cfg.Dialer.ClientID,
				DialTimeout: cfg.Dialer.Timeout,
			},
		},
		readers: map[*kafka.Reader]struct{}{},
	}, nil
}

func (k *Kafka) Publish(ctx context.Context, topic string, msg Message) error {
	if topic == "" {
		return fmt.Errorf("%w: empty topic", ErrInvalidArgument)
	}

	k.mu.Lock()
	closed := k.closed
	k.mu.Unlock()
	if closed {
		return ErrClosed
	}

	km := kafka.Message{Topic: topic, Value: msg.Body}
	if msg.Key != "" {
		km.Key = []byte(msg.Key)
	}
	for key, v := range msg.Headers {
		km.Headers = append(km.Headers, kafka.Header{Key: key, Value: []byte(v)})
	}

	if err := k.writer.WriteMessages(ctx, km); err != nil {
		return fmt.Errorf("messaging: kafka write %s: %w", topic, err)
	}
	return nil
}

func (k *Kafka) Consume(ctx context.Context, topic string, h Handler, opts ...ConsumeOption) error {
	if err := validate(topic, h); err != nil {
		return err
	}

	cfg := newConsumeConfig(opts...)
	if cfg.group == "" {
		return fmt.Errorf("%w: kafka consumer group", ErrMissingConfig)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.cfg.Brokers,
		GroupID:  cfg.group,
		Topic:    topic,
		Dialer:   k.cfg.Dialer,
		MaxBytes: 10e6,
	})
	if !k.track(reader) {
		_ = reader.Close()
		return ErrClosed
	}
	defer k.release(reader)

	jobs := make(chan kafka.Message, cfg.maxInFlight)
	var wg sync.WaitGroup
	for range cfg.concurrency {
		wg.Go(func() {
			for m := range jobs {
				k.handle(ctx, reader, h, m)
			}
		})
	}

	var ferr error
	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			ferr = err
			break
		}
		jobs <- m
	}
	close(jobs)
	wg.Wait()

	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(ferr, io.EOF):
		return ErrClosed
	default:
		return fmt.Errorf("messaging: kafka fetch %s: %w", topic, ferr)
	}
}

func (k *Kafka) handle(ctx context.Context, reader *kafka.Reader, h Handler, m kafka.Message) {
	d := Delivery{
		Message: Message{
			Key:     string(m.Key),
			Headers: make(map[string]string, len(m.Headers)),
			Body:    m.Value,
		},
		ID:       fmt.Sprintf("%d/%d", m.Partition, m.Offset),
		Topic:    m.Topic,
		Received: m.Time,
	}
	for _, hd := range m.Headers {
		d.Headers[hd.Key] = string(hd.Value)
	}

	if err := dispatch(ctx, DriverKafka, h, d); err != nil {
		return
	}
	if err := reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "failed to commit kafka offset", "topic", m.Topic, "offset", m.Offset, "error", err)
	}
}

func (k *Kafka) track(r *kafka.Reader) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return false
	}
	k.readers[r] = struct{}{}
	return true
}

func (k *Kafka) release(r *kafka.Reader) {
	k.mu.Lock()
	_, ok := k.readers[r]
	delete(k.readers, r)
	k.mu.Unlock()
	if ok {
		_ = r.Close()
	}
}

func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	readers := k.readers
	k.readers = map[*kafka.Reader]struct{}{}
	k.mu.Unlock()

	var errs []error
	for r := range readers {
		errs = append(errs, r.Close())
	}
	errs = append(errs, k.writer.Close())
	return errors.Join(errs...)
}
