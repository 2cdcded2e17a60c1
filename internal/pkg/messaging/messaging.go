package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrDestinationRequired is returned when the subject or topic is empty.
	ErrDestinationRequired = errors.New("messaging: destination is required")
	// ErrClosed is returned when publishing on a closed publisher.
	ErrClosed = errors.New("messaging: publisher closed")
)

// Publisher sends messages to a destination (NATS subject, Kafka topic).
type Publisher interface {
	io.Closer
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// OutgoingMessage is a broker-agnostic message.
type OutgoingMessage struct {
	Body []byte
	// Key selects the Kafka partition; NATS ignores it.
	Key     []byte
	Headers []Header
}

// Header is a message header; duplicate keys are allowed.
type Header struct {
	Key   string
	Value []byte
}

// HeaderValue returns the first header value named key.
func (m OutgoingMessage) HeaderValue(key string) (string, bool) {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value), true
		}
	}
	return "", false
}

// PublishResult carries what the broker reported for a publish.
type PublishResult struct {
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
}
