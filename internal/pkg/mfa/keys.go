package mfa

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

var (
	// ErrMissingMasterKey indicates an empty master key.
	ErrMissingMasterKey = errors.New("mfacrypto: missing master key")
	// ErrMissingPurpose indicates a scope without a purpose.
	ErrMissingPurpose = errors.New("mfacrypto: scope purpose is required")
)

// HKDFKeyProvider derives one AES-256 key per purpose from a master key
// using HKDF-SHA256. Rotating the master key rotates every derived key.
type HKDFKeyProvider struct {
	master []byte
	salt   []byte
}

// NewHKDFKeyProvider returns a provider over master. The salt may be nil.
func NewHKDFKeyProvider(master, salt []byte) (*HKDFKeyProvider, error) {
	if len(master) < aesKeyLen {
		return nil, fmt.Errorf("mfacrypto: master key must be at least %d bytes: %w", aesKeyLen, ErrInvalidKeyLength)
	}

	return &HKDFKeyProvider{
		master: append([]byte(nil), master...),
		salt:   append([]byte(nil), salt...),
	}, nil
}

// Key derives the key for scope.Purpose. The identity is bound through the
// AAD, not the key, so one key serves all identities of a purpose.
func (p *HKDFKeyProvider) Key(scope Scope) ([]byte, error) {
	if p == nil || len(p.master) == 0 {
		return nil, ErrMissingMasterKey
	}
	if scope.Purpose == "" {
		return nil, ErrMissingPurpose
	}

	r := hkdf.New(sha256.New, p.master, p.salt, []byte("twofa/"+string(scope.Purpose)))
	key := make([]byte, aesKeyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("mfacrypto: hkdf: %w", err)
	}
	return key, nil
}

// StaticKeyProvider returns the same key for every scope.
type StaticKeyProvider struct {
	KeyBytes []byte
}

// Key returns a copy of the static key.
func (p StaticKeyProvider) Key(_ Scope) ([]byte, error) {
	if len(p.KeyBytes) == 0 {
		return nil, ErrMissingStaticKey
	}
	k := make([]byte, len(p.KeyBytes))
	copy(k, p.KeyBytes)
	return k, nil
}
