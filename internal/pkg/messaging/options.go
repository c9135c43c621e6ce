package messaging

// ConsumeOption tunes a Consume call.
type ConsumeOption func(*consumeConfig)

type consumeConfig struct {
	group       string
	concurrency int
	maxInFlight int
}

// WithGroup names the consumer group. Consumers sharing a group split the
// deliveries between them, different groups each receive every message. It
// maps to the NSQ channel, the NATS queue group, the Kafka group id and the
// Pub/Sub subscription id.
func WithGroup(name string) ConsumeOption {
	return func(c *consumeConfig) { c.group = name }
}

// WithConcurrency sets how many handlers run at once.
func WithConcurrency(n int) ConsumeOption {
	return func(c *consumeConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithMaxInFlight caps deliveries received but not yet settled.
func WithMaxInFlight(n int) ConsumeOption {
	return func(c *consumeConfig) {
		if n > 0 {
			c.maxInFlight = n
		}
	}
}

func newConsumeConfig(opts ...ConsumeOption) consumeConfig {
	c := consumeConfig{concurrency: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	c.maxInFlight = max(c.maxInFlight, c.concurrency)
	return c
}
