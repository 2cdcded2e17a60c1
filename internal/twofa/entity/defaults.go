package entity

import (
	"github.com/shandysiswandi/twofa/internal/pkg/mfa"
	"github.com/shandysiswandi/twofa/internal/pkg/otp"
)

// Built-in provisioning defaults, used when configuration leaves a value unset.
const (
	DefaultCodeLength    = otp.DigitsSix
	DefaultStepDuration  = otp.DefaultPeriod
	DefaultHashAlgorithm = otp.AlgorithmSHA256
	DefaultWindowRadius  = uint(1)
	DefaultIssuer        = "twofa"
)

// Defaults are the provisioning and verification parameters applied when a
// call does not override them. They are resolved once when the module starts.
type Defaults struct {
	CodeLength        int
	StepDuration      uint
	HashAlgorithm     otp.Algorithm
	WindowRadius      uint
	RecoveryCodeCount int
	Issuer            string
}

// Resolve fills every zero field with its built-in value. WindowRadius is
// only filled when unsetRadius is true, since zero is a valid radius.
func (d Defaults) Resolve(unsetRadius bool) Defaults {
	if d.CodeLength == 0 {
		d.CodeLength = DefaultCodeLength
	}
	if d.StepDuration == 0 {
		d.StepDuration = DefaultStepDuration
	}
	if d.HashAlgorithm == "" {
		d.HashAlgorithm = DefaultHashAlgorithm
	}
	if unsetRadius {
		d.WindowRadius = DefaultWindowRadius
	}
	if d.RecoveryCodeCount == 0 {
		d.RecoveryCodeCount = mfa.DefaultRecoveryCodeCount
	}
	if d.Issuer == "" {
		d.Issuer = DefaultIssuer
	}
	return d
}
