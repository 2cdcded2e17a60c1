package mfa

// Encryptor seals and opens secrets at rest.
type Encryptor interface {
	// Encrypt returns ciphertext for the given plaintext and scope.
	Encrypt(plaintext []byte, scope Scope) (ciphertext []byte, err error)
	// Decrypt returns plaintext for the given ciphertext and scope.
	Decrypt(ciphertext []byte, scope Scope) (plaintext []byte, err error)
}

// KeyProvider provides raw AES-256 keys (32 bytes) for a scope.
type KeyProvider interface {
	Key(scope Scope) ([]byte, error)
}
