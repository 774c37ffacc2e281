package utils // package utils provides helpers for password hashing and token generation

import (
	"crypto/rand"
	"encoding/hex"
)

// TokenKeyLen is the length of an auth token key in characters.
const TokenKeyLen = 40

// NewTokenKey returns a random opaque token key: 20 bytes from crypto/rand,
// hex encoded.
func NewTokenKey() (string, error) {
	return randomHex(TokenKeyLen / 2)
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
