package mfa

// Purpose identifies what a ciphertext protects.
type Purpose string

// PurposeTOTPSecret scopes encryption to TOTP shared secrets.
const PurposeTOTPSecret Purpose = "totp_secret"

// Scope binds a ciphertext to its owner and purpose.
// It is fed into AES-GCM as additional authenticated data, so a secret sealed
// for one identity cannot be opened under another.
type Scope struct {
	// IdentityID is the external identity that owns the secret.
	IdentityID string
	// Purpose is the encryption purpose.
	Purpose Purpose
}
