package messaging

import (
	"context"
	"sync"
	"time"
)

// Published is a message captured by Memory.
type Published struct {
	Destination string
	Message     OutgoingMessage
}

// Memory keeps published messages in process. With Discard set it drops them,
// which is what the "none" driver uses.
type Memory struct {
	Discard bool

	mu   sync.Mutex
	msgs []Published
	err  error
}

// NewMemory returns a recording publisher.
func NewMemory() *Memory {
	return &Memory{}
}

// FailWith makes subsequent publishes return err.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return PublishResult{}, m.err
	}
	if !m.Discard {
		m.msgs = append(m.msgs, Published{Destination: destination, Message: msg})
	}
	return PublishResult{Topic: destination, Offset: int64(len(m.msgs)), Timestamp: time.Now()}, nil
}

// Messages returns a copy of what was published so far.
func (m *Memory) Messages() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Published(nil), m.msgs...)
}

func (m *Memory) Close() error { return nil }
