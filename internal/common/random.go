package common

import (
	"crypto/rand"
	"math/big"
)

const (
	// GeneratedPasswordSize is the length of passwords issued on registration.
	GeneratedPasswordSize = 10

	passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GeneratePassword returns a random password of n characters drawn uniformly
// from upper-case letters and digits using crypto/rand.
func GeneratePassword(n int) (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = passwordAlphabet[idx.Int64()]
	}
	return string(buf), nil
}
