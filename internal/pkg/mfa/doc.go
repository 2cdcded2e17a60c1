// Package mfa holds the cryptographic helpers around second factors:
// AES-256-GCM sealing of TOTP secrets at rest, HKDF key derivation and the
// recovery code generator.
package mfa
