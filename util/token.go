package util

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateToken returns n crypto-random bytes hex encoded. Used for
// session identifiers, so math/rand is not good enough here.
func GenerateToken(n int) (string, error) {
	b := make([]byte, n)

	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
