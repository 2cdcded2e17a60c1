package mfa

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Sealed layout:
//
//	[0:2]   uint16 big-endian format version
//	[2:14]  GCM nonce
//	[14:]   ciphertext || tag
const (
	aesGCMVersion uint16 = 1
	versionSize          = 2
	gcmNonceSize         = 12
	aesKeyLen            = 32
)

var (
	// ErrEncryptorNotConfigured indicates a missing key provider.
	ErrEncryptorNotConfigured = errors.New("mfacrypto: encryptor not configured")
	// ErrPlaintextEmpty indicates an empty plaintext input.
	ErrPlaintextEmpty = errors.New("mfacrypto: plaintext is empty")
	// ErrInvalidKeyLength indicates the key is not 32 bytes.
	ErrInvalidKeyLength = errors.New("mfacrypto: invalid key length")
	// ErrCiphertextTooShort indicates a truncated ciphertext.
	ErrCiphertextTooShort = errors.New("mfacrypto: ciphertext too short")
	// ErrUnsupportedCiphertextVersion indicates an unknown layout version.
	ErrUnsupportedCiphertextVersion = errors.New("mfacrypto: unsupported ciphertext version")
	// ErrDecryptFailed indicates authentication or decryption failure.
	ErrDecryptFailed = errors.New("mfacrypto: decrypt failed")
	// ErrMissingStaticKey indicates a missing static key.
	ErrMissingStaticKey = errors.New("mfacrypto: missing static key")
)

// AESGCMEncryptor implements Encryptor using AES-256-GCM.
type AESGCMEncryptor struct {
	keys  KeyProvider
	nonce io.Reader
}

// NewAESGCMEncryptor constructs an encryptor over keys.
func NewAESGCMEncryptor(keys KeyProvider) *AESGCMEncryptor {
	return &AESGCMEncryptor{keys: keys, nonce: rand.Reader}
}

// Encrypt seals plaintext, binding it to scope via the AAD.
func (e *AESGCMEncryptor) Encrypt(plaintext []byte, scope Scope) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, ErrPlaintextEmpty
	}

	gcm, err := e.aead(scope)
	if err != nil {
		return nil, err
	}

	out := make([]byte, versionSize+gcmNonceSize, versionSize+gcmNonceSize+len(plaintext)+gcm.Overhead())
	binary.BigEndian.PutUint16(out[:versionSize], aesGCMVersion)

	nonce := out[versionSize : versionSize+gcmNonceSize]
	if _, err := io.ReadFull(e.nonce, nonce); err != nil {
		return nil, fmt.Errorf("mfacrypto: nonce generation failed: %w", err)
	}

	return gcm.Seal(out, nonce, plaintext, scopeAAD(scope)), nil
}

// Decrypt opens ciphertext produced by Encrypt with the same scope.
func (e *AESGCMEncryptor) Decrypt(ciphertext []byte, scope Scope) ([]byte, error) {
	if len(ciphertext) <= versionSize+gcmNonceSize {
		return nil, ErrCiphertextTooShort
	}

	if v := binary.BigEndian.Uint16(ciphertext[:versionSize]); v != aesGCMVersion {
		return nil, fmt.Errorf("mfacrypto: version %d: %w", v, ErrUnsupportedCiphertextVersion)
	}

	gcm, err := e.aead(scope)
	if err != nil {
		return nil, err
	}

	nonce := ciphertext[versionSize : versionSize+gcmNonceSize]
	plain, err := gcm.Open(nil, nonce, ciphertext[versionSize+gcmNonceSize:], scopeAAD(scope))
	if err != nil {
		// wrong scope, wrong key and tampering are indistinguishable on purpose
		return nil, ErrDecryptFailed
	}
	return plain, nil
}

func (e *AESGCMEncryptor) aead(scope Scope) (cipher.AEAD, error) {
	if e == nil || e.keys == nil {
		return nil, ErrEncryptorNotConfigured
	}

	key, err := e.keys.Key(scope)
	if err != nil {
		return nil, fmt.Errorf("mfacrypto: key provider error: %w", err)
	}
	if len(key) != aesKeyLen {
		return nil, fmt.Errorf("mfacrypto: key is %d bytes, want %d: %w", len(key), aesKeyLen, ErrInvalidKeyLength)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("mfacrypto: aes init failed: %w", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, gcmNonceSize)
	if err != nil {
		return nil, fmt.Errorf("mfacrypto: gcm init failed: %w", err)
	}
	return gcm, nil
}

// scopeAAD hashes a labelled canonical form of the scope so the AAD has a
// fixed length and no separator ambiguity.
func scopeAAD(s Scope) []byte {
	canonical := fmt.Sprintf("identity=%q\npurpose=%s\n", s.IdentityID, s.Purpose)
	sum := sha256.Sum256([]byte(canonical))
	return sum[:]
}
