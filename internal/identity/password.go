package identity

import (
	"crypto/rand"
	"math/big"
)

const passwordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// TemporaryPasswordLength is the length of generated one-time passwords.
const TemporaryPasswordLength = 12

// GenerateTemporaryPassword returns a random alphanumeric password. The
// value is shown to the caller exactly once and never retrievable again.
func GenerateTemporaryPassword(length int) (string, error) {
	if length <= 0 {
		length = TemporaryPasswordLength
	}

	out := make([]byte, length)
	max := big.NewInt(int64(len(passwordCharset)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = passwordCharset[n.Int64()]
	}
	return string(out), nil
}
