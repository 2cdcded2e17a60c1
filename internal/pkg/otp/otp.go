package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	libOTP "github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

const (
	// DigitsSix is the common 6 digit code length.
	DigitsSix = 6
	// DigitsEight is the 8 digit code length.
	DigitsEight = 8
	// SecretSize is the size in bytes of a generated shared secret (RFC 4226 recommendation).
	SecretSize = 20
	// DefaultPeriod is the common 30 second time step.
	DefaultPeriod uint = 30
)

var (
	// ErrUnsupportedDigits indicates a code length other than 6 or 8.
	ErrUnsupportedDigits = errors.New("otp: unsupported code length")
	// ErrUnsupportedAlgorithm indicates a hash algorithm outside SHA1/SHA256/SHA512.
	ErrUnsupportedAlgorithm = errors.New("otp: unsupported hash algorithm")
	// ErrInvalidPeriod indicates a zero time step.
	ErrInvalidPeriod = errors.New("otp: period must be greater than zero")
	// ErrEmptySecret indicates a missing shared secret.
	ErrEmptySecret = errors.New("otp: secret is empty")
)

// Algorithm is the HMAC hash used to derive codes.
type Algorithm string

const (
	AlgorithmSHA1   Algorithm = "SHA1"
	AlgorithmSHA256 Algorithm = "SHA256"
	AlgorithmSHA512 Algorithm = "SHA512"
)

// ParseAlgorithm converts a case-insensitive name into an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	a := Algorithm(strings.ToUpper(strings.TrimSpace(s)))
	if _, err := a.toLib(); err != nil {
		return "", err
	}
	return a, nil
}

// String returns the name used in otpauth URIs.
func (a Algorithm) String() string {
	return string(a)
}

func (a Algorithm) toLib() (libOTP.Algorithm, error) {
	switch a {
	case AlgorithmSHA1:
		return libOTP.AlgorithmSHA1, nil
	case AlgorithmSHA256:
		return libOTP.AlgorithmSHA256, nil
	case AlgorithmSHA512:
		return libOTP.AlgorithmSHA512, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, string(a))
	}
}

// ValidDigits reports whether n is a supported code length.
func ValidDigits(n int) bool {
	return n == DigitsSix || n == DigitsEight
}

// Params are the per-secret code parameters fixed at provisioning time.
type Params struct {
	Digits    int
	Algorithm Algorithm
	Period    uint
}

// Validate rejects parameters the engine cannot evaluate.
func (p Params) Validate() error {
	if !ValidDigits(p.Digits) {
		return fmt.Errorf("%w: %d", ErrUnsupportedDigits, p.Digits)
	}
	if _, err := p.Algorithm.toLib(); err != nil {
		return err
	}
	if p.Period == 0 {
		return ErrInvalidPeriod
	}
	return nil
}

func (p Params) opts() (hotp.ValidateOpts, error) {
	if err := p.Validate(); err != nil {
		return hotp.ValidateOpts{}, err
	}

	alg, err := p.Algorithm.toLib()
	if err != nil {
		return hotp.ValidateOpts{}, err
	}

	return hotp.ValidateOpts{
		Digits:    libOTP.Digits(p.Digits),
		Algorithm: alg,
	}, nil
}

// OTP defines the engine contract consumed by the usecases.
type OTP interface {
	// GenerateSecret returns a fresh random shared secret.
	GenerateSecret() ([]byte, error)
	// GenerateCode returns the code valid at unix time at.
	GenerateCode(secret []byte, p Params, at int64) (string, error)
	// Verify reports whether code matches any step within radius steps of at.
	Verify(secret []byte, p Params, code string, at int64, radius uint) (bool, error)
	// URI builds the otpauth:// provisioning URI for secret.
	URI(secret []byte, p Params, displayName, issuer string) string
}

// TOTP implements OTP using RFC 6238 time steps over RFC 4226 HOTP.
type TOTP struct {
	rand io.Reader
}

// NewTOTP returns a TOTP engine backed by crypto/rand.
func NewTOTP() *TOTP {
	return &TOTP{rand: rand.Reader}
}

// GenerateSecret returns SecretSize random bytes.
func (o *TOTP) GenerateSecret() ([]byte, error) {
	secret := make([]byte, SecretSize)
	if _, err := io.ReadFull(o.rand, secret); err != nil {
		return nil, fmt.Errorf("otp: generate secret: %w", err)
	}
	return secret, nil
}

// GenerateCode returns the zero-padded code for the time step containing at.
func (o *TOTP) GenerateCode(secret []byte, p Params, at int64) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptySecret
	}
	if at < 0 {
		return "", fmt.Errorf("otp: time %d is before the unix epoch", at)
	}

	opts, err := p.opts()
	if err != nil {
		return "", err
	}

	return hotp.GenerateCodeCustom(EncodeSecret(secret), counterAt(at, p.Period), opts)
}

// Verify checks code against every step in SlidingTimeWindow(at, p.Period, radius).
//
// All steps are evaluated and compared in constant time, so the duration does
// not depend on which step (if any) matched.
func (o *TOTP) Verify(secret []byte, p Params, code string, at int64, radius uint) (bool, error) {
	if len(secret) == 0 {
		return false, ErrEmptySecret
	}

	opts, err := p.opts()
	if err != nil {
		return false, err
	}

	key := EncodeSecret(secret)
	candidate := []byte(strings.TrimSpace(code))

	matched := 0
	for _, t := range SlidingTimeWindow(at, p.Period, radius) {
		if t < 0 {
			continue
		}

		want, err := hotp.GenerateCodeCustom(key, counterAt(t, p.Period), opts)
		if err != nil {
			return false, err
		}

		matched |= subtle.ConstantTimeCompare([]byte(want), candidate)
	}

	return matched == 1, nil
}

// URI builds otpauth://totp/{issuer}:{displayName}?secret=..&issuer=..&algorithm=..&digits=..&period=..
func (o *TOTP) URI(secret []byte, p Params, displayName, issuer string) string {
	label := url.PathEscape(displayName)
	if issuer != "" {
		label = url.PathEscape(issuer) + ":" + label
	}

	var sb strings.Builder
	sb.WriteString("otpauth://totp/")
	sb.WriteString(label)
	sb.WriteString("?secret=")
	sb.WriteString(EncodeSecret(secret))
	if issuer != "" {
		sb.WriteString("&issuer=")
		sb.WriteString(url.QueryEscape(issuer))
	}
	sb.WriteString(fmt.Sprintf("&algorithm=%s&digits=%d&period=%d", p.Algorithm, p.Digits, p.Period))

	return sb.String()
}

// SlidingTimeWindow returns the time points current-step*radius .. current+step*radius
// in ascending order, stepping by step. A radius of zero yields only current.
func SlidingTimeWindow(current int64, step, radius uint) []int64 {
	if step == 0 || radius == 0 {
		return []int64{current}
	}

	s, r := int64(step), int64(radius)
	out := make([]int64, 0, 2*r+1)
	for t := current - s*r; t <= current+s*r; t += s {
		out = append(out, t)
	}
	return out
}

// EncodeSecret encodes raw secret bytes as unpadded base32, the form
// authenticator apps expect.
func EncodeSecret(secret []byte) string {
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret)
}

func counterAt(at int64, period uint) uint64 {
	return uint64(at) / uint64(period)
}
