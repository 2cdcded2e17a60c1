package mfa

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEncryptor(t *testing.T) *AESGCMEncryptor {
	t.Helper()

	keys, err := NewHKDFKeyProvider(bytes.Repeat([]byte{0x42}, 32), []byte("salt"))
	require.NoError(t, err)

	return NewAESGCMEncryptor(keys)
}

func TestAESGCMEncryptor_RoundTrip(t *testing.T) {
	enc := newTestEncryptor(t)
	scope := Scope{IdentityID: "user-1", Purpose: PurposeTOTPSecret}
	plaintext := []byte("12345678901234567890")

	sealed, err := enc.Encrypt(plaintext, scope)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), string(plaintext))
	assert.Len(t, sealed, versionSize+gcmNonceSize+len(plaintext)+16)

	opened, err := enc.Decrypt(sealed, scope)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestAESGCMEncryptor_FreshNonce(t *testing.T) {
	enc := newTestEncryptor(t)
	scope := Scope{IdentityID: "user-1", Purpose: PurposeTOTPSecret}

	a, err := enc.Encrypt([]byte("same"), scope)
	require.NoError(t, err)
	b, err := enc.Encrypt([]byte("same"), scope)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestAESGCMEncryptor_ScopeBinding(t *testing.T) {
	enc := newTestEncryptor(t)
	sealed, err := enc.Encrypt([]byte("secret"), Scope{IdentityID: "user-1", Purpose: PurposeTOTPSecret})
	require.NoError(t, err)

	_, err = enc.Decrypt(sealed, Scope{IdentityID: "user-2", Purpose: PurposeTOTPSecret})
	assert.ErrorIs(t, err, ErrDecryptFailed)

	_, err = enc.Decrypt(sealed, Scope{IdentityID: "user-1", Purpose: "other"})
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestAESGCMEncryptor_Errors(t *testing.T) {
	enc := newTestEncryptor(t)
	scope := Scope{IdentityID: "user-1", Purpose: PurposeTOTPSecret}

	_, err := enc.Encrypt(nil, scope)
	assert.ErrorIs(t, err, ErrPlaintextEmpty)

	_, err = enc.Decrypt([]byte{0, 1, 2}, scope)
	assert.ErrorIs(t, err, ErrCiphertextTooShort)

	sealed, err := enc.Encrypt([]byte("secret"), scope)
	require.NoError(t, err)
	sealed[1] = 9
	_, err = enc.Decrypt(sealed, scope)
	assert.ErrorIs(t, err, ErrUnsupportedCiphertextVersion)

	sealed, err = enc.Encrypt([]byte("secret"), scope)
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff
	_, err = enc.Decrypt(sealed, scope)
	assert.ErrorIs(t, err, ErrDecryptFailed)

	var nilEnc *AESGCMEncryptor
	_, err = nilEnc.Encrypt([]byte("x"), scope)
	assert.ErrorIs(t, err, ErrEncryptorNotConfigured)

	short := NewAESGCMEncryptor(StaticKeyProvider{KeyBytes: []byte("too-short")})
	_, err = short.Encrypt([]byte("x"), scope)
	assert.ErrorIs(t, err, ErrInvalidKeyLength)
}

func TestHKDFKeyProvider(t *testing.T) {
	_, err := NewHKDFKeyProvider([]byte("short"), nil)
	assert.ErrorIs(t, err, ErrInvalidKeyLength)

	keys, err := NewHKDFKeyProvider(bytes.Repeat([]byte{1}, 32), nil)
	require.NoError(t, err)

	a, err := keys.Key(Scope{IdentityID: "a", Purpose: PurposeTOTPSecret})
	require.NoError(t, err)
	b, err := keys.Key(Scope{IdentityID: "b", Purpose: PurposeTOTPSecret})
	require.NoError(t, err)
	c, err := keys.Key(Scope{IdentityID: "a", Purpose: "other"})
	require.NoError(t, err)

	assert.Len(t, a, aesKeyLen)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	_, err = keys.Key(Scope{IdentityID: "a"})
	assert.ErrorIs(t, err, ErrMissingPurpose)
}
