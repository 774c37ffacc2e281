package utils

import "golang.org/x/crypto/bcrypt"

// unusablePrefix marks a stored hash that no password can match.  bcrypt
// hashes always start with "$", so the two never collide.
const unusablePrefix = "!"

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UnusablePassword returns a hash value for accounts created without a
// password.
func UnusablePassword() (string, error) {
	raw, err := randomHex(20)
	if err != nil {
		return "", err
	}
	return unusablePrefix + raw, nil
}

// HasUsablePassword reports whether hash came from HashPassword.
func HasUsablePassword(hash string) bool {
	return hash != "" && hash[:1] != unusablePrefix
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	if !HasUsablePassword(hash) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
