package mfa

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"
	"strings"
)

// DefaultRecoveryCodeCount is the batch size used when callers do not ask for one.
const DefaultRecoveryCodeCount = 10

// MaxRecoveryCodeCount bounds a single batch.
const MaxRecoveryCodeCount = 100

// ErrInvalidRecoveryCodeCount indicates a batch size outside 1..MaxRecoveryCodeCount.
var ErrInvalidRecoveryCodeCount = errors.New("mfa: invalid recovery code count")

// RecoveryCodeGenerator generates batches of single-use recovery codes.
type RecoveryCodeGenerator interface {
	// Generate returns n distinct codes.
	Generate(n int) ([]string, error)
}

// alphabet holds 62 symbols, about 5.95 bits per character.
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const (
	groupLen   = 4
	groupCount = 3
)

// RecoveryCode produces codes formatted as XXXX-XXXX-XXXX, each character
// drawn uniformly from alphabet with crypto/rand.
type RecoveryCode struct {
	rand io.Reader
}

// NewRecoveryCode returns a generator backed by crypto/rand.
func NewRecoveryCode() *RecoveryCode {
	return &RecoveryCode{rand: rand.Reader}
}

// Generate returns n distinct codes.
func (rc *RecoveryCode) Generate(n int) ([]string, error) {
	if n < 1 || n > MaxRecoveryCodeCount {
		return nil, ErrInvalidRecoveryCodeCount
	}

	out := make([]string, 0, n)
	seen := make(map[string]struct{}, n)
	for len(out) < n {
		code, err := rc.code()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}

	return out, nil
}

func (rc *RecoveryCode) code() (string, error) {
	var sb strings.Builder
	sb.Grow(groupLen*groupCount + groupCount - 1)

	max := big.NewInt(int64(len(alphabet)))
	for g := 0; g < groupCount; g++ {
		if g > 0 {
			sb.WriteByte('-')
		}
		for i := 0; i < groupLen; i++ {
			idx, err := rand.Int(rc.rand, max)
			if err != nil {
				return "", err
			}
			sb.WriteByte(alphabet[idx.Int64()])
		}
	}

	return sb.String(), nil
}

// NormalizeRecoveryCode trims surrounding whitespace from user input.
// Codes are case sensitive, so nothing else is changed.
func NormalizeRecoveryCode(code string) string {
	return strings.TrimSpace(code)
}
