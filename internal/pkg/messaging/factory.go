package messaging

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DriverNone discards events.
	DriverNone = "none"
	// DriverNATS selects the NATS backend.
	DriverNATS = "nats"
	// DriverKafka selects the Kafka backend.
	DriverKafka = "kafka"
)

// ErrUnknownDriver indicates an unsupported messaging driver.
var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions groups config for the supported backends.
type FactoryOptions struct {
	NATS  NATSConfig
	Kafka KafkaConfig
}

// NewFromDriver builds a Publisher by driver name. An empty name means "none".
func NewFromDriver(driver string, opts FactoryOptions) (Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverNone:
		return &Memory{Discard: true}, nil
	case DriverNATS:
		return NewNATS(opts.NATS)
	case DriverKafka:
		return NewKafka(opts.Kafka)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
