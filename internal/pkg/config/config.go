package config

import (
	"io"
	"time"
)

// Config is the read-only view of runtime configuration used by the app.
//
// Keys are dot separated ("database.url"). Missing keys return the zero value
// of the requested type unless a default was registered.
type Config interface {
	io.Closer

	// GetSecond reads an integer number of seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads an integer number of minutes.
	GetMinute(key string) time.Duration

	GetInt(key string) int
	GetInt32(key string) int32
	GetUint(key string) uint
	GetFloat64(key string) float64
	GetBool(key string) bool
	GetString(key string) string

	// GetBinary reads a base64 encoded value. Invalid base64 yields nil.
	GetBinary(key string) []byte
	// GetArray reads a YAML list or a comma separated string (the form env
	// overrides take), skipping empty items.
	GetArray(key string) []string
}
