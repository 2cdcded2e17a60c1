package entity

import "errors"

// Sentinels carried (via errors.Is) by the errors the usecase returns.
var (
	// ErrInvalidParameter marks an unsupported code length or hash algorithm.
	ErrInvalidParameter = errors.New("twofa: invalid parameter")
	// ErrUserCreation marks a failed provisioning: invalid parameters or an
	// identity that is already provisioned.
	ErrUserCreation = errors.New("twofa: user creation failed")
	// ErrUnknownIdentity marks an identity that has no secret.
	ErrUnknownIdentity = errors.New("twofa: unknown identity")
	// ErrInvalidCode marks a TOTP code that matched no step in the window.
	ErrInvalidCode = errors.New("twofa: invalid code")
	// ErrRecoveryCodeConsumption marks a recovery code that is wrong, belongs
	// to another identity or was already used.
	ErrRecoveryCodeConsumption = errors.New("twofa: recovery code consumption failed")
	// ErrRegenerationInProgress marks a regeneration that lost the race for
	// the per-identity lock.
	ErrRegenerationInProgress = errors.New("twofa: recovery code regeneration in progress")
)
