// Package crypto implements server-side password hashing and verification.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters (tuned for server-side hashing).
const (
	argonTime    uint32 = 3         // iterations
	argonMemory  uint32 = 64 * 1024 // 64 MB
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32

	// SaltLen is the size of a per-user auth salt.
	SaltLen = 16
)

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// HashPassword returns Argon2id hash of password using the provided salt.
func HashPassword(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// VerifyPassword verifies password against expected Argon2id hash and salt.
func VerifyPassword(password, salt, expected []byte) bool {
	got := HashPassword(password, salt)
	return subtle.ConstantTimeCompare(got, expected) == 1
}

// NewCredentials draws a fresh salt and hashes password with it.
func NewCredentials(password string) (hash, salt []byte, err error) {
	salt, err = RandBytes(SaltLen)
	if err != nil {
		return nil, nil, err
	}
	return HashPassword([]byte(password), salt), salt, nil
}

// Fingerprint is a short stable digest of a stored hash. Reset tokens carry it so
// that a token stops working once the password has changed.
func Fingerprint(pwdHash []byte) string {
	sum := sha256.Sum256(pwdHash)
	return hex.EncodeToString(sum[:8])
}

// FingerprintMatches compares fingerprints in constant time.
func FingerprintMatches(pwdHash []byte, fp string) bool {
	return subtle.ConstantTimeCompare([]byte(Fingerprint(pwdHash)), []byte(fp)) == 1
}
