package entity

import (
	"time"

	"github.com/shandysiswandi/twofa/internal/pkg/mfa"
	"github.com/shandysiswandi/twofa/internal/pkg/otp"
)

// CurrentKeyVersion tags ciphertexts produced by the current master key.
const CurrentKeyVersion int16 = 1

// IdentitySecret is the TOTP binding of one external identity. Secret holds
// the AES-GCM ciphertext of the shared secret.
type IdentitySecret struct {
	IdentityID    string
	Secret        []byte
	KeyVersion    int16
	CodeLength    int
	StepDuration  uint
	HashAlgorithm otp.Algorithm
	CreatedAt     time.Time
}

// Params returns the engine parameters stored with the secret.
func (s IdentitySecret) Params() otp.Params {
	return otp.Params{
		Digits:    s.CodeLength,
		Algorithm: s.HashAlgorithm,
		Period:    s.StepDuration,
	}
}

// Scope is the encryption scope of the secret.
func (s IdentitySecret) Scope() mfa.Scope {
	return mfa.Scope{IdentityID: s.IdentityID, Purpose: mfa.PurposeTOTPSecret}
}

// RecoveryCode is a stored single-use code. Code is the keyed digest, never
// the plaintext.
type RecoveryCode struct {
	ID         int64
	IdentityID string
	Code       string
	Used       bool
	UsedAt     *time.Time
	CreatedAt  time.Time
}
