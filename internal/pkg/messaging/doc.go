// Package messaging publishes domain events to a broker without tying the
// caller to one. NATS and Kafka are supported; the "none" driver discards
// events and Memory keeps them for tests.
package messaging
