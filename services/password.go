package services

import (
	"crypto/rand"
	"math/big"
)

const (
	// PasswordLength is the fixed length of generated temporary passwords.
	PasswordLength = 12

	// PasswordAlphabet deliberately omits lookalike glyphs (0/O, 1/l/I) so
	// passwords read over the phone survive the trip.
	PasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
)

// GeneratePassword returns a random temporary password of exactly
// PasswordLength characters drawn from PasswordAlphabet.
func GeneratePassword() (string, error) {
	max := big.NewInt(int64(len(PasswordAlphabet)))
	out := make([]byte, PasswordLength)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = PasswordAlphabet[n.Int64()]
	}
	return string(out), nil
}
