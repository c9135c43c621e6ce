// Package messaging publishes and consumes domain events over one of the
// supported brokers (NATS, NSQ, Kafka or Google Pub/Sub).
//
// Every driver carries the same Message shape. Headers travel natively on
// NATS and Kafka, as attributes on Pub/Sub and inside a small JSON envelope
// on NSQ, so a correlation id set by the publisher always reaches the
// consumer.
//
// A Handler settles its own delivery: returning nil acknowledges it, returning
// an error asks the broker to redeliver where the broker supports that.
package messaging
