// Package qrcode renders otpauth provisioning URIs as PNG images for
// authenticator apps to scan.
package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"

	libqr "github.com/skip2/go-qrcode"
)

const (
	// DefaultSize is the PNG edge length in pixels when none is requested.
	DefaultSize = 256
	MinSize     = 64
	MaxSize     = 1024
)

var (
	// ErrEmptyContent is returned when there is nothing to encode.
	ErrEmptyContent = errors.New("qrcode: content is empty")
	// ErrInvalidSize is returned for sizes outside [MinSize, MaxSize].
	ErrInvalidSize = errors.New("qrcode: size out of range")
)

// Generate encodes content as a PNG of size x size pixels with medium error
// correction. A zero size selects DefaultSize.
func Generate(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if size == 0 {
		size = DefaultSize
	}
	if size < MinSize || size > MaxSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	png, err := libqr.Encode(content, libqr.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qrcode: encode: %w", err)
	}
	return png, nil
}

// DataURI returns the PNG as a data:image/png;base64 URI for inline embedding.
func DataURI(content string, size int) (string, error) {
	png, err := Generate(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
