package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 is a keyed, deterministic Hash. Being deterministic, the digest
// can be used as a lookup key (recovery codes are found by their digest),
// while the key keeps a leaked table from being brute forced offline.
type HMACSHA256 struct {
	secret []byte
}

// NewHMACSHA256 returns a hasher keyed with secret.
func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

// Hash returns the lowercase hex HMAC-SHA256 of str.
func (s *HMACSHA256) Hash(str string) ([]byte, error) {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(str))
	return []byte(hex.EncodeToString(mac.Sum(nil))), nil
}
