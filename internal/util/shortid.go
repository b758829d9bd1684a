package util

import (
	"crypto/rand"
	"math/big"
)

// ShortIDLength is the length of page short ids used in URLs.
const ShortIDLength = 8

const shortIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewShortID returns a collision-resistant base36 identifier short enough to
// embed in a URL segment. Uniqueness is enforced by the store; callers retry
// on the rare collision.
func NewShortID() string {
	buf := make([]byte, ShortIDLength)
	max := big.NewInt(int64(len(shortIDAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			panic(err)
		}
		buf[i] = shortIDAlphabet[n.Int64()]
	}
	return string(buf)
}

// IsShortID reports whether s looks like a short id.
func IsShortID(s string) bool {
	if len(s) != ShortIDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}
