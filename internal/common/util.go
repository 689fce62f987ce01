package common

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// MakeRandHexString returns size random bytes hex-encoded, so the result
// is 2*size characters long.
func MakeRandHexString(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// WipeByteArray zeroes b in place. The CLI calls it on passwords once the
// session manager has hashed or verified them.
func WipeByteArray(b []byte) {
	clear(b)
}
