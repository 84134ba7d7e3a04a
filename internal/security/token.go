package security

import (
	"crypto/rand"
	"encoding/hex"
)

// NewVerificationToken returns a 32-byte random token, hex encoded.
// Single use: the store clears it once the email is confirmed.
func NewVerificationToken() (string, error) {
	b := make([]byte, 32)

	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
