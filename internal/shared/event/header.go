package event

// HeaderCorrelationID carries the request correlation id from the publisher to
// every consumer.
const HeaderCorrelationID string = "cID"
