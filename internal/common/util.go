package common

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateRandByteArray returns n cryptographically random bytes.
// It panics if the platform CSPRNG fails, which should never happen
// on supported targets.
func GenerateRandByteArray(size int) []byte {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return buf
}

// MakeRandHexString returns a hex string built from size random bytes
// (so the result is 2*size characters long).
func MakeRandHexString(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// WipeByteArray zeroes the buffer in place. Used to shorten the lifetime
// of key material in memory.
func WipeByteArray(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
